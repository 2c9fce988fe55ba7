package book

import "fmt"

// Kind identifies what a Node is. The recognised set is closed: a paragraph or a
// heading of level 1 through 6.
type Kind int

const (
	KindUnknown Kind = iota
	KindParagraph
	KindHeading1
	KindHeading2
	KindHeading3
	KindHeading4
	KindHeading5
	KindHeading6
)

// KindFromTag maps an element tag name to a Kind. Unrecognised tags yield KindUnknown.
func KindFromTag(tag string) Kind {
	switch tag {
	case "p":
		return KindParagraph
	case "h1":
		return KindHeading1
	case "h2":
		return KindHeading2
	case "h3":
		return KindHeading3
	case "h4":
		return KindHeading4
	case "h5":
		return KindHeading5
	case "h6":
		return KindHeading6
	}
	return KindUnknown
}

// HeadingKind returns the Kind for heading level 1-6, or KindUnknown.
func HeadingKind(level int) Kind {
	if level < 1 || level > 6 {
		return KindUnknown
	}
	return KindHeading1 + Kind(level-1)
}

// IsHeading reports whether k is one of the six heading kinds.
func (k Kind) IsHeading() bool {
	return k >= KindHeading1 && k <= KindHeading6
}

// Valid reports whether k belongs to the recognised set.
func (k Kind) Valid() bool {
	return k == KindParagraph || k.IsHeading()
}

// Level returns the heading level (1-6), or 0 for non-headings.
func (k Kind) Level() int {
	if !k.IsHeading() {
		return 0
	}
	return int(k-KindHeading1) + 1
}

func (k Kind) String() string {
	switch {
	case k == KindParagraph:
		return "p"
	case k.IsHeading():
		return fmt.Sprintf("h%d", k.Level())
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is one content element from the source, in document order.
type Node struct {
	Kind Kind
	Text string // Raw, unescaped text
}

// Paragraph and Heading are shorthand constructors.
func Paragraph(text string) Node { return Node{Kind: KindParagraph, Text: text} }

func Heading(level int, text string) Node { return Node{Kind: HeadingKind(level), Text: text} }

// Source is the output of a parser: a resolved title and the flat node sequence.
type Source struct {
	Title string
	Nodes []Node
}

// TocEntry links a chapter id to its display title.
type TocEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// BodyUnit is one literal markup fragment of the document body.
type BodyUnit string

// Book is a fully extracted document ready for serialization.
type Book struct {
	Title string
	Toc   []TocEntry
	Body  []BodyUnit
}
