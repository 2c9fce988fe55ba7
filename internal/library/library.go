// Package library persists generated books in an output directory.
package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dgallion1/fb2fetch/internal/fb2"
)

// File permission constants.
const (
	dirPermissions  = 0o750
	filePermissions = 0o644
)

var (
	ErrInvalidName = errors.New("invalid book name")
	ErrNotFound    = errors.New("book not found")
)

// Entry describes a saved book.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified_at"`
}

// Store writes books into Dir. Existing files with the same name are overwritten.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{Dir: dir}
}

// FileName derives the on-disk name for a book title. The title is kept verbatim
// except that path separators and NUL bytes become underscores, so a title can
// never escape the output directory.
func FileName(title string) string {
	title = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, title)
	if title == "" || title == "." || title == ".." {
		title = "unk"
	}
	return fb2.FileName(title)
}

// Save writes data under the name derived from title and returns the full path.
func (s *Store) Save(title string, data []byte) (string, error) {
	if err := os.MkdirAll(s.Dir, dirPermissions); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, FileName(title))
	if err := os.WriteFile(path, data, filePermissions); err != nil {
		return "", fmt.Errorf("write book: %w", err)
	}
	return path, nil
}

// List returns saved books sorted by name.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	entries := []Entry{}
	for _, de := range dirEntries {
		if de.IsDir() || filepath.Ext(de.Name()) != fb2.Extension {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: de.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	slices.SortFunc(entries, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}

// Path resolves a saved book name to its path, rejecting anything that is not a
// plain .fb2 file name.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		filepath.Ext(name) != fb2.Extension {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	path := filepath.Join(s.Dir, name)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("stat book: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return path, nil
}

// Delete removes a saved book.
func (s *Store) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	return nil
}
