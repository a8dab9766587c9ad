package table

import (
	"os"
	"slices"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultFilterColumns are the columns offered for cascading filters.
var DefaultFilterColumns = []string{ColCustomer, ColLocation, ColPackage, ColApplication}

// Filter keeps records whose column value (as text) is one of Values.
// A filter with no values, or on a column the dataset lacks, keeps everything.
type Filter struct {
	Column string   `yaml:"column" json:"column"`
	Values []string `yaml:"values" json:"values"`
}

func (f Filter) matches(r *Record) bool {
	v, ok := r.Get(f.Column)
	if !ok || v.IsMissing() {
		return false
	}
	return slices.Contains(f.Values, v.String())
}

// View returns a new dataset holding clones of the records that pass every
// filter. RowIDs and the high-water mark are carried over so edits to the
// view can be merged back.
func (ds *Dataset) View(filters ...Filter) *Dataset {
	active := make([]Filter, 0, len(filters))
	for _, f := range filters {
		if len(f.Values) > 0 && ds.HasColumn(f.Column) {
			active = append(active, f)
		}
	}

	out := &Dataset{
		columns:    slices.Clone(ds.columns),
		lastID:     ds.lastID,
		assigned:   ds.assigned,
		identified: ds.identified,
	}
	for _, r := range ds.rows {
		keep := true
		for _, f := range active {
			if !f.matches(r) {
				keep = false
				break
			}
		}
		if keep {
			out.rows = append(out.rows, r.Clone())
		}
	}
	return out
}

// LoadFilters reads a YAML list of filters:
//
//	- column: Customer
//	  values: [Acme, Globex]
func LoadFilters(path string) ([]Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "table: read filters %s", path)
	}
	var filters []Filter
	if err := yaml.Unmarshal(data, &filters); err != nil {
		return nil, eris.Wrap(err, "table: parse filters")
	}
	return filters, nil
}
