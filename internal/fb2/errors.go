package fb2

import (
	"fmt"

	"github.com/dgallion1/fb2fetch/internal/book"
)

// MalformedInputError reports a node whose kind is outside the recognised set.
type MalformedInputError struct {
	Index int
	Kind  book.Kind
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: node %d has unrecognised kind %s", e.Index, e.Kind)
}
