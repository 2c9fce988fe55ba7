package fb2

import (
	"strings"
	"testing"

	"github.com/beevik/etree"

	"github.com/dgallion1/fb2fetch/internal/book"
)

func TestSerialize_WithToc(t *testing.T) {
	toc, body, err := Extract([]book.Node{
		book.Heading(1, "One"),
		book.Paragraph("first & only"),
		book.Heading(2, "Two"),
	}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := Serialize("My Book", toc, body)

	if !strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Errorf("expected xml prolog, got %q", doc[:40])
	}
	if !strings.Contains(doc, "<book-title>My Book</book-title>") {
		t.Error("expected book title in description")
	}
	if !strings.Contains(doc, "<p>first &amp; only</p>\n") {
		t.Error("expected escaped paragraph line")
	}
	tocBlock := "<body>\n<title>Зміст</title>\n" +
		`<p><a l:href="#chapter1">One</a></p>` + "\n" +
		`<p><a l:href="#chapter2">Two</a></p>` + "\n" +
		"</body>\n"
	if !strings.Contains(doc, tocBlock) {
		t.Errorf("expected toc block %q in output", tocBlock)
	}
	if strings.Index(doc, tocBlock) < strings.Index(doc, "</section>") {
		t.Error("expected toc block after the body sections")
	}
	if !strings.HasSuffix(doc, "</body>\n</FictionBook>\n") {
		t.Error("expected footer at end")
	}
	assertWellFormed(t, doc)
}

func TestSerialize_NoTocOmitsBlock(t *testing.T) {
	doc := Serialize("Plain", nil, units("<p>hi</p>"))
	if strings.Contains(doc, TocTitle) {
		t.Error("expected no toc block for empty toc")
	}
	if strings.Count(doc, "<body>") != 1 {
		t.Errorf("expected a single body, got %d", strings.Count(doc, "<body>"))
	}
	assertWellFormed(t, doc)
}

func TestSerialize_EmptyBook(t *testing.T) {
	doc := Serialize("", nil, nil)
	if !strings.Contains(doc, "<book-title></book-title>") {
		t.Error("expected empty book title")
	}
	assertWellFormed(t, doc)
}

func TestSerializeBook_MatchesSerialize(t *testing.T) {
	b := &book.Book{Title: "X", Toc: []book.TocEntry{{ID: "chapter1", Title: "c"}}, Body: units(`<section id="chapter1">`, "</section>")}
	if SerializeBook(b) != Serialize(b.Title, b.Toc, b.Body) {
		t.Error("expected identical output")
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("Війна і мир"); got != "Війна і мир.fb2" {
		t.Errorf("expected %q, got %q", "Війна і мир.fb2", got)
	}
}

func TestSerialize_Structure(t *testing.T) {
	toc, body, err := Extract([]book.Node{
		book.Paragraph("preface"),
		book.Heading(1, "Fish & <chips>"),
		book.Paragraph("a"),
		book.Heading(3, "Second"),
		book.Paragraph("b"),
	}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := assertWellFormed(t, Serialize("Title", toc, body))

	root := doc.Root()
	if root == nil || root.Tag != "FictionBook" {
		t.Fatalf("expected FictionBook root, got %v", root)
	}
	if got := root.FindElement("./description/title-info/book-title"); got == nil || got.Text() != "Title" {
		t.Errorf("expected book-title %q, got %v", "Title", got)
	}

	// The toc body sits inside the content body, just before the footer closes it.
	bodies := root.SelectElements("body")
	if len(bodies) != 1 {
		t.Fatalf("expected a single top-level body, got %d", len(bodies))
	}
	content := bodies[0]
	tocBody := content.SelectElement("body")
	if tocBody == nil {
		t.Fatal("expected toc body nested in the content body")
	}
	if last := content.ChildElements(); last[len(last)-1] != tocBody {
		t.Error("expected toc body to be the last element of the content body")
	}
	if got := tocBody.SelectElement("title"); got == nil || got.Text() != TocTitle {
		t.Errorf("expected toc title %q, got %v", TocTitle, got)
	}
	sections := content.SelectElements("section")
	if len(sections) != len(toc) {
		t.Fatalf("expected %d sections, got %d", len(toc), len(sections))
	}
	for i, sec := range sections {
		if id := sec.SelectAttrValue("id", ""); id != toc[i].ID {
			t.Errorf("section %d: expected id %q, got %q", i, toc[i].ID, id)
		}
	}
	if got := sections[0].FindElement("./title").Text(); got != "Fish & <chips>" {
		t.Errorf("expected decoded title %q, got %q", "Fish & <chips>", got)
	}

	links := tocBody.FindElements("./p/a")
	if len(links) != len(toc) {
		t.Fatalf("expected %d toc links, got %d", len(toc), len(links))
	}
	for i, a := range links {
		if href := a.SelectAttrValue("l:href", ""); href != "#"+toc[i].ID {
			t.Errorf("link %d: expected href %q, got %q", i, "#"+toc[i].ID, href)
		}
	}
}

func assertWellFormed(t *testing.T, doc string) *etree.Document {
	t.Helper()
	d := etree.NewDocument()
	if err := d.ReadFromString(doc); err != nil {
		t.Fatalf("document is not well-formed: %v", err)
	}
	return d
}
