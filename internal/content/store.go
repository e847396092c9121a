package content

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/casimadrid/casi-cli/internal/venue"
)

// Extension is the extension of files written by the store.
const Extension = ".mdx"

// Store manages the venue record files in one directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the content directory.
func (s *Store) Dir() string { return s.dir }

// Exists reports whether a record file for slug is present, with either
// extension.
func (s *Store) Exists(slug string) bool {
	for _, ext := range []string{Extension, ".md"} {
		if _, err := os.Stat(filepath.Join(s.dir, slug+ext)); err == nil {
			return true
		}
	}
	return false
}

// UniqueSlug returns slug, or slug with the smallest numeric suffix starting
// at 2, such that it is neither in taken nor already on disk.
func (s *Store) UniqueSlug(slug string, taken map[string]bool) string {
	free := func(c string) bool { return !taken[c] && !s.Exists(c) }
	if free(slug) {
		return slug
	}
	for n := 2; ; n++ {
		c := slug + "-" + strconv.Itoa(n)
		if free(c) {
			return c
		}
	}
}

// Write renders r and writes it as <slug>.mdx, returning the file path.
func (s *Store) Write(r venue.Record) (string, error) {
	data, err := Render(r)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, r.Slug+Extension)
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// List returns the names of all .md and .mdx files, sorted. A missing
// directory has no files.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "content: list %s", s.dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".md", ".mdx":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Resolve maps a bare filename to a path inside the content directory.
// Anything containing a path separator is returned unchanged.
func (s *Store) Resolve(target string) string {
	if strings.ContainsRune(target, '/') || strings.ContainsRune(target, filepath.Separator) {
		return target
	}
	return filepath.Join(s.dir, target)
}

// Read loads and parses the file named by target (see Resolve).
func (s *Store) Read(target string) (*Document, error) {
	path := s.Resolve(target)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "content: read %s", path)
	}
	return Parse(path, data)
}

// Overwrite atomically replaces the file at path.
func (s *Store) Overwrite(path string, data []byte) error {
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "content: create dir %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "content: create temp for %s", path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "content: write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "content: close %s", path)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return eris.Wrapf(err, "content: chmod %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return eris.Wrapf(err, "content: rename %s", path)
	}
	return nil
}
