package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/fb2fetch/internal/book"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// DefaultContentClass marks elements that belong to the book text.
const DefaultContentClass = "book"

// HTMLParser extracts book content from an HTML page. Only h1-h6 and p elements
// carrying ContentClass are kept, in document order. The title comes from the
// first <h1 class="title">.
type HTMLParser struct {
	ContentClass string
	ContentType  string
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*book.Source, error) {
	utf8Reader, err := charset.NewReader(r, p.ContentType)
	if errors.Is(err, io.EOF) {
		// Nothing to sniff: an empty page is an empty book.
		return &book.Source{Title: UnknownTitle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	doc, err := html.Parse(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	class := p.ContentClass
	if class == "" {
		class = DefaultContentClass
	}

	src := &book.Source{Title: UnknownTitle}
	if title := findTitle(doc); title != "" {
		src.Title = title
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			if kind := book.KindFromTag(n.Data); kind != book.KindUnknown {
				src.Nodes = append(src.Nodes, book.Node{Kind: kind, Text: textContent(n)})
				// Matched elements are taken whole, so a match nested inside
				// another match is not collected separately.
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return src, nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

// findTitle returns the trimmed text of the first <h1 class="title">.
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "h1" && hasClass(n, "title") {
		return strings.TrimSpace(textContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
