package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dgallion1/fb2fetch/internal/book"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Paragraphs styled Heading1-Heading6 become
// headings; all other non-empty paragraphs become paragraph nodes.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*book.Source, error) {
	tmpPath, size, cleanup, err := spool(r, "fb2fetch-docx-*.docx")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	f, err := os.Open(tmpPath) // #nosec G304 -- our own temp file
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()

	// go-docx needs a ReaderAt and the archive size.
	doc, err := docx.Parse(f, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	src := &book.Source{Title: stem(filename)}
	if src.Title == "" {
		src.Title = UnknownTitle
	}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if level := docxHeadingLevel(para); level > 0 {
			src.Nodes = append(src.Nodes, book.Heading(level, text))
		} else {
			src.Nodes = append(src.Nodes, book.Paragraph(text))
		}
	}

	return src, nil
}

// docxHeadingLevel reads the level from a "Heading N" paragraph style, or 0.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	rest, ok := strings.CutPrefix(style, "heading")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(rest)
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
