package fb2

import (
	"strings"

	"github.com/dgallion1/fb2fetch/internal/book"
)

// Single pass, so the output matches replacing & first and then < and >.
var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape replaces the XML metacharacters &, < and > with entity references.
// It must be applied once per raw text; escaping already-escaped text
// escapes the ampersands of the existing entities again.
func Escape(s string) string {
	if !strings.ContainsAny(s, "&<>") {
		return s
	}
	return escaper.Replace(s)
}

// CountSpecial returns how many &, < and > characters occur across all node texts.
func CountSpecial(nodes []book.Node) int {
	count := 0
	for _, n := range nodes {
		for _, r := range n.Text {
			switch r {
			case '&', '<', '>':
				count++
			}
		}
	}
	return count
}
