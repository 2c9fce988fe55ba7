package parser

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/dgallion1/fb2fetch/internal/book"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available. PDFs carry no reliable
// heading markup, so every node is a paragraph.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*book.Source, error) {
	tmpPath, _, cleanup, err := spool(r, "fb2fetch-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	// ledongthuc/pdf opens by path.
	text, err := extractPDFText(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	src := &book.Source{Title: stem(filename)}
	if src.Title == "" {
		src.Title = UnknownTitle
	}
	for _, page := range splitPages(text) {
		for _, para := range splitParagraphs(page) {
			src.Nodes = append(src.Nodes, book.Paragraph(para))
		}
	}
	return src, nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f") // Form feed as page separator.
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}

// splitParagraphs groups consecutive non-blank lines into paragraphs.
func splitParagraphs(page string) []string {
	var (
		paras   []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			paras = append(paras, strings.Join(current, " "))
			current = current[:0]
		}
	}
	for _, line := range strings.Split(page, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return paras
}
