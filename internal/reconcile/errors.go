package reconcile

import (
	"fmt"

	"github.com/sells-group/crm-geo/internal/table"
)

// IdentityError reports an edited view whose RowIDs cannot be matched
// unambiguously. The full dataset is not modified when it is returned.
type IdentityError struct {
	ID  table.RowID
	Row int
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("reconcile: row id %d appears more than once in the edited view (row %d)", e.ID, e.Row)
}
