package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// MaxBookListSize limits the batch file to prevent memory exhaustion.
const MaxBookListSize = 1 << 20

var (
	ErrBookListNotFound = errors.New("book list not found")
	ErrBookListParse    = errors.New("failed to parse book list")
	ErrBookListEmpty    = errors.New("book list has no entries")
)

// BookEntry is one source in a batch file. Title, when set, overrides the title
// found in the page.
type BookEntry struct {
	URL   string `yaml:"url"`
	Title string `yaml:"title,omitempty"`
}

// BookList is the batch input used when no sources are given on the command line.
//
//	output: ./books
//	urls:
//	  - http://example.org/b/1/read
//	books:
//	  - url: http://example.org/b/2/read
//	    title: Second
type BookList struct {
	Output string      `yaml:"output,omitempty"`
	URLs   []string    `yaml:"urls,omitempty"`
	Books  []BookEntry `yaml:"books,omitempty"`
}

// Entries returns urls followed by books, skipping blanks.
func (l *BookList) Entries() []BookEntry {
	var out []BookEntry
	for _, u := range l.URLs {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, BookEntry{URL: u})
		}
	}
	for _, b := range l.Books {
		b.URL = strings.TrimSpace(b.URL)
		if b.URL != "" {
			out = append(out, b)
		}
	}
	return out
}

// LoadBookList reads and validates a YAML batch file. Unknown fields are rejected.
func LoadBookList(path string) (*BookList, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided batch file
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBookListNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read book list: %w", err)
	}
	return ParseBookList(data)
}

// ParseBookList decodes a YAML batch file body.
func ParseBookList(data []byte) (*BookList, error) {
	if len(data) > MaxBookListSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrBookListParse, len(data), MaxBookListSize)
	}
	var list BookList
	if err := yaml.UnmarshalWithOptions(data, &list, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBookListParse, err)
	}
	if len(list.Entries()) == 0 {
		return nil, ErrBookListEmpty
	}
	return &list, nil
}
