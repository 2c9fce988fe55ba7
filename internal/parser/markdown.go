package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/fb2fetch/internal/book"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Top-level headings become
// heading nodes; every other non-empty top-level block becomes a paragraph.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*book.Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	out := &book.Source{Title: stem(filename)}
	if out.Title == "" {
		out.Title = UnknownTitle
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			out.Nodes = append(out.Nodes, book.Heading(node.Level, extractText(node, src)))
		case *ast.ThematicBreak:
			continue
		default:
			if t := extractText(n, src); t != "" {
				out.Nodes = append(out.Nodes, book.Paragraph(t))
			}
		}
	}

	return out, nil
}

// extractText gets the text content of a goldmark AST node.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.RawHTML:
			// Inline tags are book text here; the extractor escapes them.
			for i := 0; i < t.Segments.Len(); i++ {
				seg := t.Segments.At(i)
				buf.Write(seg.Value(src))
			}
		case *ast.AutoLink:
			buf.Write(t.URL(src))
		default:
			if buf.Len() > 0 && c.Type() == ast.TypeBlock {
				buf.WriteByte(' ')
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
