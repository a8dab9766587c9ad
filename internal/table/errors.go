package table

import "fmt"

// SchemaError reports a malformed identity column. It is returned before
// the dataset is modified.
type SchemaError struct {
	Column string
	Row    int // zero-based record position, -1 when not row-specific
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("table: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("table: column %q row %d: %s", e.Column, e.Row, e.Reason)
}
