package enrich

import (
	"strings"

	"github.com/sells-group/crm-geo/internal/table"
)

// DefaultFields are the columns combined into a geocoding query when the
// caller does not choose any.
var DefaultFields = []string{table.ColLocation, table.ColCustomer}

// BuildQuery joins the non-blank values of fields, in order, with single
// spaces. Columns the record lacks are skipped.
func BuildQuery(r *table.Record, fields []string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		v, ok := r.Get(f)
		if !ok || v.IsBlank() {
			continue
		}
		parts = append(parts, strings.TrimSpace(v.String()))
	}
	return strings.Join(parts, " ")
}
