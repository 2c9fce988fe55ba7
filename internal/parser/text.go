package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/fb2fetch/internal/book"
)

// TextParser handles plain text files. Blank lines separate paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*book.Source, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	src := &book.Source{Title: stem(filename)}
	if src.Title == "" {
		src.Title = UnknownTitle
	}

	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			src.Nodes = append(src.Nodes, book.Paragraph(current.String()))
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return src, nil
}
