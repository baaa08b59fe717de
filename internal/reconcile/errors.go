package reconcile

import (
	"errors"
	"fmt"
)

// StructuralError marks a document whose required containers are missing or
// of the wrong shape. It is fatal: the whole pass aborts and nothing is
// written. Per-element problems are never structural; they are logged and
// the element is skipped.
type StructuralError struct {
	Container string // "topology", "nodes", "links"
	Reason    string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("document structure invalid: %s %s", e.Container, e.Reason)
}

// IsStructural reports whether err is (or wraps) a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
