package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dgallion1/fb2fetch/internal/fb2"
	"github.com/dgallion1/fb2fetch/internal/fetch"
	"github.com/dgallion1/fb2fetch/internal/library"
)

const bookPage = `<html><body>
<h1 class="title">Test Book</h1>
<h2 class="book">Chapter One</h2>
<p class="book">Fish &amp; chips</p>
<h2 class="book">Chapter Two</h2>
<p class="book">The end</p>
</body></html>`

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Get(ctx context.Context, url string) (*fetch.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	body, ok := f.pages[url]
	if !ok {
		return nil, &fetch.StatusError{URL: url, StatusCode: 404, Message: "not found"}
	}
	return &fetch.Page{URL: url, ContentType: "text/html; charset=utf-8", Body: []byte(body)}, nil
}

func testConverter(t *testing.T, pages map[string]string, opts Options) (*Converter, *library.Store) {
	t.Helper()
	store := library.NewStore(t.TempDir())
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewConverter(&fakeFetcher{pages: pages}, store, log, opts), store
}

func TestConverter_URLJob(t *testing.T) {
	conv, store := testConverter(t, map[string]string{"http://x/b/1/read": bookPage}, Options{})
	job := NewURLJob("http://x/b/1/read", "")

	if err := conv.Convert(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Title != "Test Book" {
		t.Errorf("expected title %q, got %q", "Test Book", snap.Title)
	}
	if snap.Progress.Chapters != 2 || snap.Progress.Nodes != 4 || snap.Progress.SpecialChars != 1 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}

	data, err := os.ReadFile(snap.OutputPath)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	doc := string(data)
	for _, want := range []string{
		"<book-title>Test Book</book-title>",
		`<section id="chapter2">`,
		"<p>Fish &amp; chips</p>",
		`<p><a l:href="#chapter1">Chapter One</a></p>`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}

	entries, err := store.List()
	if err != nil || len(entries) != 1 || entries[0].Name != "Test Book.fb2" {
		t.Errorf("expected saved book in store, got %+v (%v)", entries, err)
	}
}

func TestConverter_TitleOverride(t *testing.T) {
	conv, _ := testConverter(t, map[string]string{"http://x/1": bookPage}, Options{})
	job := NewURLJob("http://x/1", "Custom")
	if err := conv.Convert(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(job.Snapshot().OutputPath, "Custom.fb2") {
		t.Errorf("expected output named after override, got %q", job.Snapshot().OutputPath)
	}
}

func TestConverter_FileJob(t *testing.T) {
	conv, _ := testConverter(t, nil, Options{})
	job := NewFileJob("notes.md", []byte("# Intro\n\nHello <world>\n"), "")
	if err := conv.Convert(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(job.Snapshot().OutputPath)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if !strings.Contains(string(data), "<p>Hello &lt;world&gt;</p>") {
		t.Errorf("expected escaped paragraph in output, got:\n%s", data)
	}
	if job.FileData() != nil {
		t.Error("expected file data released after parsing")
	}
}

func TestConverter_RawHeadingsOption(t *testing.T) {
	page := `<h1 class="book">A &amp; B</h1>`
	conv, _ := testConverter(t, map[string]string{"http://x/1": page}, Options{Extract: fb2.Options{RawHeadings: true}})
	job := NewURLJob("http://x/1", "")
	if err := conv.Convert(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, _ := os.ReadFile(job.Snapshot().OutputPath)
	if !strings.Contains(string(data), "<title>A & B</title>") {
		t.Errorf("expected raw heading title, got:\n%s", data)
	}
}

func TestConverter_FetchFailure(t *testing.T) {
	conv, _ := testConverter(t, nil, Options{})
	job := NewURLJob("http://x/missing", "")
	err := conv.Convert(context.Background(), job)
	if !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	var statusErr *fetch.StatusError
	if !errors.As(err, &statusErr) {
		t.Errorf("expected wrapped *fetch.StatusError, got %v", err)
	}
	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "fetching" {
		t.Errorf("expected failed in fetching, got %q/%q", snap.Status, snap.Phase)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected 1 recorded error, got %d", len(snap.Progress.Errors))
	}
}

func TestConverter_UnsupportedFile(t *testing.T) {
	conv, _ := testConverter(t, nil, Options{})
	job := NewFileJob("data.csv", []byte("a,b"), "")
	if err := conv.Convert(context.Background(), job); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestConverter_NoInput(t *testing.T) {
	conv, _ := testConverter(t, nil, Options{})
	job := NewFileJob("empty.txt", nil, "")
	if err := conv.Convert(context.Background(), job); !errors.Is(err, ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
}

func TestPageFilename(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://flibusta.site/b/759596/read", "page.html"},
		{"http://example.org/books/novel.md", "novel.md"},
		{"http://example.org/a.html?x=1", "a.html"},
		{"http://example.org/", "page.html"},
		{"::bad", "page.html"},
	}
	for _, tt := range tests {
		if got := pageFilename(tt.url); got != tt.want {
			t.Errorf("pageFilename(%q): expected %q, got %q", tt.url, tt.want, got)
		}
	}
}

func TestConverter_EmptyPage(t *testing.T) {
	pages := map[string]string{
		"http://x/empty": "",
		"http://x/blank": "  \n\t\n",
	}
	for url := range pages {
		conv, store := testConverter(t, pages, Options{})
		job := NewURLJob(url, "")
		if err := conv.Convert(context.Background(), job); err != nil {
			t.Fatalf("%s: unexpected error: %v", url, err)
		}
		snap := job.Snapshot()
		if snap.Title != "unk" {
			t.Errorf("%s: expected title %q, got %q", url, "unk", snap.Title)
		}
		data, err := os.ReadFile(filepath.Join(store.Dir, "unk.fb2"))
		if err != nil {
			t.Fatalf("%s: expected unk.fb2: %v", url, err)
		}
		want := fb2.Serialize("unk", nil, nil)
		if string(data) != want {
			t.Errorf("%s: expected empty book\n%s\ngot\n%s", url, want, data)
		}
	}
}
