// Package ledger persists the keys of items a pipeline has already handled so
// reruns skip them. A ledger file is a JSON array rewritten in full on every save.
package ledger

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Entry is a ledger row identified by a unique key.
type Entry interface {
	Key() string
}

// Load reads the entries stored at path. A missing or unreadable file and a
// file that is not a JSON array of entries all yield an empty ledger. Rows
// repeating an earlier key are dropped.
func Load[E Entry](path string) []E {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			zap.L().Warn("ledger: unreadable file, starting empty", zap.String("path", path), zap.Error(err))
		}
		return []E{}
	}

	var entries []E
	if err := json.Unmarshal(data, &entries); err != nil {
		zap.L().Warn("ledger: corrupt file, starting empty", zap.String("path", path), zap.Error(err))
		return []E{}
	}

	seen := make(map[string]struct{}, len(entries))
	out := make([]E, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Key()]; dup {
			continue
		}
		seen[e.Key()] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Save replaces the file at path with entries. The data is written to a
// temporary file in the same directory and renamed over the target.
func Save[E Entry](path string, entries []E) error {
	if entries == nil {
		entries = []E{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return eris.Wrap(err, "ledger: marshal")
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "ledger: create dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "ledger: create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "ledger: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "ledger: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "ledger: replace %s", path)
	}
	return nil
}

// Ledger owns the entries of one ledger file for the duration of a run.
// It is not safe for concurrent use.
type Ledger[E Entry] struct {
	path    string
	entries []E
	index   map[string]struct{}
}

// Open loads the ledger at path. It never fails; see Load.
func Open[E Entry](path string) *Ledger[E] {
	entries := Load[E](path)
	index := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		index[e.Key()] = struct{}{}
	}
	return &Ledger[E]{path: path, entries: entries, index: index}
}

// Path returns the backing file path.
func (l *Ledger[E]) Path() string { return l.path }

// Has reports whether an entry with key exists.
func (l *Ledger[E]) Has(key string) bool {
	_, ok := l.index[key]
	return ok
}

// Append adds e unless its key is already present. It reports whether e was added.
func (l *Ledger[E]) Append(e E) bool {
	if l.Has(e.Key()) {
		return false
	}
	l.index[e.Key()] = struct{}{}
	l.entries = append(l.entries, e)
	return true
}

// Entries returns a copy of the entries in insertion order.
func (l *Ledger[E]) Entries() []E {
	out := make([]E, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Ledger[E]) Len() int { return len(l.entries) }

// Save writes every entry to the backing file.
func (l *Ledger[E]) Save() error {
	return Save(l.path, l.entries)
}
