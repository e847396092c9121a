package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingestEntry(uri, name string) IngestEntry {
	return IngestEntry{
		ExternalURI:  uri,
		DisplayName:  name,
		Neighborhood: "Malasaña",
		Slug:         "malasana-" + name,
		ProcessedAt:  time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC),
	}
}

func TestLoad_MissingFile(t *testing.T) {
	entries := Load[IngestEntry](filepath.Join(t.TempDir(), "nope.json"))
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"`), 0o644))

	assert.Empty(t, Load[IngestEntry](path))
}

func TestLoad_CollapsesDuplicateKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	raw := `[
  {"externalUri": "https://maps.google.com/?cid=1", "displayName": "First"},
  {"externalUri": "https://maps.google.com/?cid=1", "displayName": "Second"},
  {"externalUri": "https://maps.google.com/?cid=2", "displayName": "Other"}
]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	entries := Load[IngestEntry](path)
	require.Len(t, entries, 2)
	assert.Equal(t, "First", entries[0].DisplayName)
	assert.Equal(t, "Other", entries[1].DisplayName)
}

func TestSave_CreatesDirAndUsesCamelCaseKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "ingest-ledger.json")

	require.NoError(t, Save(path, []IngestEntry{ingestEntry("uri-1", "toma-cafe")}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"externalUri": "uri-1"`)
	assert.Contains(t, s, `"displayName": "toma-cafe"`)
	assert.Contains(t, s, `"processedAt": "2026-05-04T09:30:00Z"`)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestSave_NilWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")
	require.NoError(t, Save[RefineEntry](path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestLedger_AppendRejectsDuplicateKey(t *testing.T) {
	l := Open[IngestEntry](filepath.Join(t.TempDir(), "ledger.json"))

	assert.True(t, l.Append(ingestEntry("uri-1", "a")))
	assert.False(t, l.Append(ingestEntry("uri-1", "b")))
	assert.True(t, l.Has("uri-1"))
	assert.False(t, l.Has("uri-2"))
	assert.Equal(t, 1, l.Len())
}

func TestLedger_RoundTripKeepsKeysUnique(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")

	l := Open[IngestEntry](path)
	l.Append(ingestEntry("uri-1", "a"))
	l.Append(ingestEntry("uri-2", "b"))
	require.NoError(t, l.Save())

	reloaded := Open[IngestEntry](path)
	reloaded.Append(ingestEntry("uri-2", "b-again"))
	reloaded.Append(ingestEntry("uri-3", "c"))
	require.NoError(t, reloaded.Save())

	final := Load[IngestEntry](path)
	require.Len(t, final, 3)
	keys := map[string]int{}
	for _, e := range final {
		keys[e.Key()]++
	}
	for k, n := range keys {
		assert.Equal(t, 1, n, "key %s duplicated", k)
	}
	assert.Equal(t, "b", final[1].DisplayName)
}

func TestLedger_EntriesReturnsCopy(t *testing.T) {
	l := Open[RefineEntry](filepath.Join(t.TempDir(), "ledger.json"))
	l.Append(RefineEntry{Filename: "centro-toma-cafe.mdx", SpotName: "Toma Café"})

	entries := l.Entries()
	entries[0].SpotName = "mutated"

	assert.Equal(t, "Toma Café", l.Entries()[0].SpotName)
}

func TestRefineLedger_MarkedFileIsRefinedAfterReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refine-ledger.json")

	l := Open[RefineEntry](path)
	l.Append(RefineEntry{Filename: "lavapies-cafe-pepe.mdx", SpotName: "Café Pepe", RefinedAt: time.Now().UTC()})
	require.NoError(t, l.Save())

	fresh := Open[RefineEntry](path)
	assert.True(t, fresh.Has("lavapies-cafe-pepe.mdx"))
	assert.Equal(t, path, fresh.Path())
}

func TestRecentNames(t *testing.T) {
	l := Open[IngestEntry](filepath.Join(t.TempDir(), "ledger.json"))
	for _, name := range []string{"a", "b", "c", "d"} {
		l.Append(ingestEntry("uri-"+name, name))
	}

	assert.Equal(t, []string{"c", "d"}, RecentNames(l, 2))
	assert.Equal(t, []string{"a", "b", "c", "d"}, RecentNames(l, 15))
	assert.Nil(t, RecentNames(l, 0))
}
