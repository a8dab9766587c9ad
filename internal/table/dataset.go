package table

import (
	"slices"
	"sort"
)

// Dataset is an ordered sequence of records plus the column order used when
// writing it out. The identity column is never part of Columns; writers emit
// it first.
//
// A Dataset has a single writer. Callers serialize enrich and merge calls
// against the same instance.
type Dataset struct {
	columns    []string
	rows       []*Record
	lastID     RowID
	assigned   bool
	identified bool // set by IdentifyView on edited views
	index      map[RowID]int
}

// New creates a dataset with the given columns and records. Records are
// stored as given (not cloned).
func New(columns []string, rows []*Record) *Dataset {
	ds := &Dataset{rows: rows}
	for _, c := range columns {
		ds.AddColumn(c)
	}
	return ds
}

// Columns returns the column order, identity column excluded.
func (ds *Dataset) Columns() []string { return slices.Clone(ds.columns) }

// HasColumn reports whether name is a known column.
func (ds *Dataset) HasColumn(name string) bool {
	return slices.Contains(ds.columns, name)
}

// AddColumn appends name to the column order if it is not already there.
func (ds *Dataset) AddColumn(name string) {
	if name == ColRowID || ds.HasColumn(name) {
		return
	}
	ds.columns = append(ds.columns, name)
}

// Len returns the number of records.
func (ds *Dataset) Len() int { return len(ds.rows) }

// Rows returns the records in order. The slice is a copy; the records are not.
func (ds *Dataset) Rows() []*Record { return slices.Clone(ds.rows) }

// At returns the i-th record.
func (ds *Dataset) At(i int) *Record { return ds.rows[i] }

// Assigned reports whether RowIDs have been assigned and validated.
func (ds *Dataset) Assigned() bool { return ds.assigned }

// LastID is the highest RowID ever assigned in this dataset. It never
// decreases, so deleted IDs are not handed out again.
func (ds *Dataset) LastID() RowID { return ds.lastID }

// NextID reserves and returns a fresh RowID.
func (ds *Dataset) NextID() RowID {
	ds.lastID++
	return ds.lastID
}

// ByID returns the record with the given RowID, or nil.
func (ds *Dataset) ByID(id RowID) *Record {
	if ds.index == nil {
		ds.reindex()
	}
	i, ok := ds.index[id]
	if !ok {
		return nil
	}
	return ds.rows[i]
}

// Append adds a record at the end. The record must already carry a RowID if
// the dataset is assigned.
func (ds *Dataset) Append(r *Record) {
	ds.rows = append(ds.rows, r)
	if r.ID > ds.lastID {
		ds.lastID = r.ID
	}
	for name := range r.fields {
		ds.AddColumn(name)
	}
	if ds.index != nil && r.ID != 0 {
		ds.index[r.ID] = len(ds.rows) - 1
	}
}

// Remove deletes the records with the given IDs and reports how many were
// removed. The high-water mark is unchanged.
func (ds *Dataset) Remove(ids map[RowID]bool) int {
	before := len(ds.rows)
	ds.rows = slices.DeleteFunc(ds.rows, func(r *Record) bool { return ids[r.ID] })
	if removed := before - len(ds.rows); removed > 0 {
		ds.reindex()
		return removed
	}
	return 0
}

// Clone returns a deep copy sharing nothing with ds.
func (ds *Dataset) Clone() *Dataset {
	out := &Dataset{
		columns:    slices.Clone(ds.columns),
		rows:       make([]*Record, len(ds.rows)),
		lastID:     ds.lastID,
		assigned:   ds.assigned,
		identified: ds.identified,
	}
	for i, r := range ds.rows {
		out.rows[i] = r.Clone()
	}
	return out
}

// Distinct returns the sorted distinct non-blank string values of a column.
func (ds *Dataset) Distinct(column string) []string {
	seen := make(map[string]bool)
	for _, r := range ds.rows {
		v, ok := r.Get(column)
		if !ok || v.IsMissing() {
			continue
		}
		seen[v.String()] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (ds *Dataset) reindex() {
	ds.index = make(map[RowID]int, len(ds.rows))
	for i, r := range ds.rows {
		if r.ID != 0 {
			ds.index[r.ID] = i
		}
	}
}
