// Package fb2 turns a flat sequence of book nodes into FictionBook 2 markup.
//
// Extraction is a single forward pass with two pieces of state: whether a chapter
// section is currently open and the index of the next chapter. Every heading closes
// the open section (if any) and opens a new one; end of input closes the last.
package fb2

import (
	"fmt"
	"strings"

	"github.com/dgallion1/fb2fetch/internal/book"
)

// Options tweak extraction output.
type Options struct {
	// RawHeadings emits heading titles without escaping in the section title,
	// the inline title paragraph and the table of contents, for output that must
	// match tools which never escaped headings. Paragraphs are always escaped.
	RawHeadings bool

	// ParagraphsOnly drops headings entirely: no sections, no table of contents.
	ParagraphsOnly bool
}

// Extract walks nodes in order and returns the table of contents and body units.
// A node with an unrecognised kind aborts extraction with *MalformedInputError and
// no partial output.
func Extract(nodes []book.Node, opts Options) ([]book.TocEntry, []book.BodyUnit, error) {
	var (
		toc          []book.TocEntry
		body         []book.BodyUnit
		chapterIndex = 1
		chapterOpen  bool
	)

	for i, n := range nodes {
		switch {
		case n.Kind == book.KindParagraph:
			body = append(body, paragraph(Escape(strings.TrimSpace(n.Text))))

		case n.Kind.IsHeading():
			if opts.ParagraphsOnly {
				continue
			}
			if chapterOpen {
				body = append(body, sectionClose)
			}
			title := strings.TrimSpace(n.Text)
			if !opts.RawHeadings {
				title = Escape(title)
			}
			id := ChapterID(chapterIndex)
			toc = append(toc, book.TocEntry{ID: id, Title: title})
			body = append(body,
				book.BodyUnit(`<section id="`+id+`">`),
				book.BodyUnit("<title>"+title+"</title>"),
				paragraph("<strong>"+title+"</strong>"),
			)
			chapterIndex++
			chapterOpen = true

		default:
			return nil, nil, &MalformedInputError{Index: i, Kind: n.Kind}
		}
	}

	if chapterOpen {
		body = append(body, sectionClose)
	}
	return toc, body, nil
}

// ExtractBook is Extract plus the title, packaged as a book.Book.
func ExtractBook(src *book.Source, opts Options) (*book.Book, error) {
	toc, body, err := Extract(src.Nodes, opts)
	if err != nil {
		return nil, err
	}
	return &book.Book{Title: src.Title, Toc: toc, Body: body}, nil
}

// ChapterID returns the stable section identifier for a 1-based chapter index.
func ChapterID(index int) string {
	return fmt.Sprintf("chapter%d", index)
}

const sectionClose book.BodyUnit = "</section>"

func paragraph(inner string) book.BodyUnit {
	return book.BodyUnit("<p>" + inner + "</p>")
}
