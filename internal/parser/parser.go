package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/fb2fetch/internal/book"
)

// Parser converts raw document bytes into a flat, ordered node sequence.
type Parser interface {
	Parse(r io.Reader, filename string) (*book.Source, error)
}

// UnknownTitle is used when a source carries no usable title.
const UnknownTitle = "unk"

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options carries per-source parser settings.
type Options struct {
	ContentClass      string // HTML class marking book content
	ContentType       string // HTTP Content-Type, used for charset detection
	FallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{ContentClass: opts.ContentClass, ContentType: opts.ContentType}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// stem strips the directory and extension from a filename.
func stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// spool copies r into a temp file for libraries that need random access. The
// returned cleanup removes the file.
func spool(r io.Reader, pattern string) (path string, size int64, cleanup func(), err error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", 0, nil, fmt.Errorf("create temp file: %w", err)
	}
	path = tmp.Name()
	cleanup = func() { os.Remove(path) }

	size, err = io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", 0, nil, fmt.Errorf("write temp file: %w", err)
	}
	return path, size, cleanup, nil
}
