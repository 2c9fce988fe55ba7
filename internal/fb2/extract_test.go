package fb2

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/fb2fetch/internal/book"
)

func units(s ...string) []book.BodyUnit {
	out := make([]book.BodyUnit, len(s))
	for i, v := range s {
		out[i] = book.BodyUnit(v)
	}
	return out
}

func countUnits(body []book.BodyUnit, pred func(string) bool) int {
	n := 0
	for _, u := range body {
		if pred(string(u)) {
			n++
		}
	}
	return n
}

func isOpen(u string) bool  { return strings.HasPrefix(u, "<section ") }
func isClose(u string) bool { return u == "</section>" }

func TestExtract_ParagraphsOnlyInput(t *testing.T) {
	toc, body, err := Extract([]book.Node{book.Paragraph("hi & bye")}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toc) != 0 {
		t.Errorf("expected empty toc, got %v", toc)
	}
	want := units("<p>hi &amp; bye</p>")
	if !reflect.DeepEqual(body, want) {
		t.Errorf("expected body %q, got %q", want, body)
	}
}

func TestExtract_SingleChapter(t *testing.T) {
	nodes := []book.Node{book.Heading(1, "Chapter One"), book.Paragraph("text")}
	toc, body, err := Extract(nodes, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantToc := []book.TocEntry{{ID: "chapter1", Title: "Chapter One"}}
	if !reflect.DeepEqual(toc, wantToc) {
		t.Errorf("expected toc %v, got %v", wantToc, toc)
	}
	wantBody := units(
		`<section id="chapter1">`,
		"<title>Chapter One</title>",
		"<p><strong>Chapter One</strong></p>",
		"<p>text</p>",
		"</section>",
	)
	if !reflect.DeepEqual(body, wantBody) {
		t.Errorf("expected body %q, got %q", wantBody, body)
	}
}

func TestExtract_ConsecutiveHeadings(t *testing.T) {
	toc, body, err := Extract([]book.Node{book.Heading(1, "A"), book.Heading(1, "B")}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toc) != 2 {
		t.Fatalf("expected 2 toc entries, got %d", len(toc))
	}
	wantBody := units(
		`<section id="chapter1">`,
		"<title>A</title>",
		"<p><strong>A</strong></p>",
		"</section>",
		`<section id="chapter2">`,
		"<title>B</title>",
		"<p><strong>B</strong></p>",
		"</section>",
	)
	if !reflect.DeepEqual(body, wantBody) {
		t.Errorf("expected body %q, got %q", wantBody, body)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	toc, body, err := Extract(nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toc) != 0 || len(body) != 0 {
		t.Errorf("expected empty output, got toc=%v body=%v", toc, body)
	}
}

func TestExtract_EmptyHeadingTitle(t *testing.T) {
	toc, body, err := Extract([]book.Node{book.Heading(2, "   ")}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toc) != 1 || toc[0].Title != "" {
		t.Fatalf("expected one toc entry with empty title, got %v", toc)
	}
	if body[1] != "<title></title>" {
		t.Errorf("expected empty title unit, got %q", body[1])
	}
}

func TestExtract_TrimsParagraphText(t *testing.T) {
	_, body, err := Extract([]book.Node{book.Paragraph("  padded \n")}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body[0] != "<p>padded</p>" {
		t.Errorf("expected trimmed paragraph, got %q", body[0])
	}
}

func TestExtract_LeadingParagraphsOutsideSections(t *testing.T) {
	nodes := []book.Node{
		book.Paragraph("preface"),
		book.Heading(3, "One"),
		book.Paragraph("body"),
	}
	_, body, err := Extract(nodes, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body[0] != "<p>preface</p>" {
		t.Errorf("expected preface before first section, got %q", body[0])
	}
	if !isOpen(string(body[1])) {
		t.Errorf("expected section open after preface, got %q", body[1])
	}
	if !isClose(string(body[len(body)-1])) {
		t.Errorf("expected trailing close, got %q", body[len(body)-1])
	}
}

func TestExtract_BalanceAndIDs(t *testing.T) {
	tests := []struct {
		name  string
		nodes []book.Node
	}{
		{"no headings", []book.Node{book.Paragraph("a"), book.Paragraph("b")}},
		{"ends mid chapter", []book.Node{book.Heading(1, "x"), book.Paragraph("a"), book.Heading(2, "y"), book.Paragraph("b")}},
		{"mixed levels", []book.Node{book.Heading(6, "x"), book.Heading(4, "y"), book.Heading(1, "z")}},
		{"heading last", []book.Node{book.Paragraph("a"), book.Heading(1, "end")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toc, body, err := Extract(tt.nodes, Options{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			headings := 0
			for _, n := range tt.nodes {
				if n.Kind.IsHeading() {
					headings++
				}
			}
			opens := countUnits(body, isOpen)
			closes := countUnits(body, isClose)
			if opens != headings || closes != headings || len(toc) != headings {
				t.Fatalf("expected %d opens/closes/toc, got %d/%d/%d", headings, opens, closes, len(toc))
			}
			var ids []string
			for _, u := range body {
				if s := string(u); isOpen(s) {
					ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(s, `<section id="`), `">`))
				}
			}
			for i, e := range toc {
				want := fmt.Sprintf("chapter%d", i+1)
				if e.ID != want || ids[i] != want {
					t.Errorf("entry %d: expected id %q, got toc=%q section=%q", i, want, e.ID, ids[i])
				}
			}
		})
	}
}

func TestExtract_EscapesHeadingsByDefault(t *testing.T) {
	toc, body, err := Extract([]book.Node{book.Heading(1, "Tom & <Jerry>")}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Tom &amp; &lt;Jerry&gt;"
	if toc[0].Title != want {
		t.Errorf("expected escaped toc title %q, got %q", want, toc[0].Title)
	}
	if string(body[1]) != "<title>"+want+"</title>" {
		t.Errorf("expected escaped title unit, got %q", body[1])
	}
}

func TestExtract_RawHeadings(t *testing.T) {
	toc, body, err := Extract([]book.Node{
		book.Heading(1, "Tom & Jerry"),
		book.Paragraph("cats & mice"),
	}, Options{RawHeadings: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toc[0].Title != "Tom & Jerry" {
		t.Errorf("expected raw toc title, got %q", toc[0].Title)
	}
	if body[2] != "<p><strong>Tom & Jerry</strong></p>" {
		t.Errorf("expected raw inline title, got %q", body[2])
	}
	if body[3] != "<p>cats &amp; mice</p>" {
		t.Errorf("expected paragraphs still escaped, got %q", body[3])
	}
}

func TestExtract_ParagraphsOnlyOption(t *testing.T) {
	toc, body, err := Extract([]book.Node{
		book.Heading(1, "Skipped"),
		book.Paragraph("kept"),
	}, Options{ParagraphsOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toc) != 0 {
		t.Errorf("expected no toc, got %v", toc)
	}
	if !reflect.DeepEqual(body, units("<p>kept</p>")) {
		t.Errorf("expected only the paragraph, got %q", body)
	}
}

func TestExtract_UnknownKind(t *testing.T) {
	nodes := []book.Node{book.Heading(1, "ok"), {Kind: book.KindUnknown, Text: "?"}}
	toc, body, err := Extract(nodes, Options{})
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedInputError, got %T", err)
	}
	if malformed.Index != 1 {
		t.Errorf("expected index 1, got %d", malformed.Index)
	}
	if toc != nil || body != nil {
		t.Errorf("expected no partial output, got toc=%v body=%v", toc, body)
	}

	wrapped := fmt.Errorf("extract: %w", err)
	if !errors.As(wrapped, &malformed) {
		t.Error("expected wrapped error to match")
	}
}

func TestExtractBook(t *testing.T) {
	b, err := ExtractBook(&book.Source{Title: "T", Nodes: []book.Node{book.Heading(1, "c")}}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Title != "T" || len(b.Toc) != 1 || len(b.Body) != 4 {
		t.Errorf("unexpected book %+v", b)
	}
}
