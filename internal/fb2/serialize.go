package fb2

import (
	"strings"

	"github.com/dgallion1/fb2fetch/internal/book"
)

// Extension is appended to the title to name output files.
const Extension = ".fb2"

// TocTitle labels the trailing table-of-contents body.
const TocTitle = "Зміст"

const headerTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<FictionBook xmlns="http://www.gribuser.ru/xml/fictionbook/2.0" xmlns:l="http://www.w3.org/1999/xlink">
  <description>
    <title-info>
      <genre>fiction</genre>
      <author><first-name>Unknown</first-name><last-name>Author</last-name></author>
      <book-title>{{title}}</book-title>
      <lang>ru</lang>
    </title-info>
  </description>
<body>
`

const footer = `
</body>
</FictionBook>
`

// Serialize wraps the body and table of contents in the FictionBook envelope.
// The title is inserted verbatim; callers pass an already sanitized string.
// When toc is empty the table-of-contents body is omitted.
func Serialize(title string, toc []book.TocEntry, body []book.BodyUnit) string {
	var sb strings.Builder
	sb.WriteString(strings.Replace(headerTemplate, "{{title}}", title, 1))

	for _, u := range body {
		sb.WriteString(string(u))
		sb.WriteByte('\n')
	}

	if len(toc) > 0 {
		sb.WriteString("<body>\n<title>" + TocTitle + "</title>\n")
		for _, e := range toc {
			sb.WriteString(`<p><a l:href="#` + e.ID + `">` + e.Title + "</a></p>\n")
		}
		sb.WriteString("</body>\n")
	}

	sb.WriteString(footer)
	return sb.String()
}

// SerializeBook serializes an extracted book.
func SerializeBook(b *book.Book) string {
	return Serialize(b.Title, b.Toc, b.Body)
}

// FileName derives the output file name from a book title.
func FileName(title string) string {
	return title + Extension
}
