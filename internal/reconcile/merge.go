// Package reconcile folds an edited view back into the dataset it was cut
// from, matching records by RowID.
package reconcile

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-geo/internal/monitoring"
	"github.com/sells-group/crm-geo/internal/table"
)

// Stats counts what a merge did.
type Stats struct {
	Updated  int `json:"updated"`
	Appended int `json:"appended"`
	Deleted  int `json:"deleted"`
}

type options struct {
	deletes []table.RowID
	metrics *monitoring.Metrics
}

// Option configures a merge.
type Option func(*options)

// WithDeletes removes the given RowIDs from the full dataset. Leaving a
// row out of the view never deletes it; this is the only way to. Unknown
// IDs are ignored.
func WithDeletes(ids ...table.RowID) Option {
	return func(o *options) {
		o.deletes = append(o.deletes, ids...)
	}
}

// WithMetrics records merge counts on m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// Merge applies edited to full in place.
//
// Records whose RowID exists in full have every non-missing field of the
// edited record copied over. Absent fields and missing values (empty cells,
// JSON null) leave the full dataset's value alone, so coordinates written
// after the view was cut survive the merge. Records with RowID 0 or an ID full does not
// know are appended under a fresh RowID. Rows of full that the view does
// not mention are untouched.
//
// edited itself is not modified.
func Merge(full, edited *table.Dataset, opts ...Option) (*Stats, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if edited.Len() > 0 && !table.HasIdentity(edited) {
		return nil, &table.SchemaError{Column: table.ColRowID, Row: -1, Reason: "edited view carries no row ids"}
	}

	view := edited.Clone()
	if err := table.IdentifyView(view); err != nil {
		return nil, err
	}
	if err := checkDuplicates(view); err != nil {
		return nil, err
	}
	if err := table.Assign(full); err != nil {
		return nil, eris.Wrap(err, "reconcile: full dataset identity")
	}

	for _, c := range view.Columns() {
		full.AddColumn(c)
	}

	stats := &Stats{}
	for _, r := range view.Rows() {
		if target := lookup(full, r.ID); target != nil {
			if apply(target, r) {
				stats.Updated++
			}
			continue
		}
		added := table.NewRecord(full.NextID(), r.Fields())
		if added.Value(table.ColRemarks).IsMissing() {
			added.Set(table.ColRemarks, table.String(""))
		}
		clearPartialCoordinates(added)
		full.Append(added)
		stats.Appended++
	}

	if len(o.deletes) > 0 {
		ids := make(map[table.RowID]bool, len(o.deletes))
		for _, id := range o.deletes {
			ids[id] = true
		}
		stats.Deleted = full.Remove(ids)
	}

	o.metrics.MergeRows(monitoring.ActionUpdated, stats.Updated)
	o.metrics.MergeRows(monitoring.ActionAppended, stats.Appended)
	o.metrics.MergeRows(monitoring.ActionDeleted, stats.Deleted)

	zap.L().Info("reconcile: merge complete",
		zap.Int("updated", stats.Updated),
		zap.Int("appended", stats.Appended),
		zap.Int("deleted", stats.Deleted),
		zap.Int("rows", full.Len()),
	)
	return stats, nil
}

func lookup(full *table.Dataset, id table.RowID) *table.Record {
	if id == 0 {
		return nil
	}
	return full.ByID(id)
}

// apply copies the non-missing fields of src onto dst and reports whether
// anything changed. Values are compared by their text, so a file round trip
// that turns numbers into strings is not an edit.
func apply(dst, src *table.Record) bool {
	changed := false
	for name, v := range src.Fields() {
		if v.IsMissing() || dst.Value(name).String() == v.String() {
			continue
		}
		dst.Set(name, v)
		changed = true
	}
	if changed {
		clearPartialCoordinates(dst)
	}
	return changed
}

// clearPartialCoordinates drops a lat/lon pair where only one side is a
// valid number, so the row is geocoded again on the next run.
func clearPartialCoordinates(r *table.Record) {
	_, latOK := r.Value(table.ColLat).Float()
	_, lonOK := r.Value(table.ColLon).Float()
	if latOK == lonOK {
		return
	}
	zap.L().Warn("reconcile: clearing partial coordinates",
		zap.Int64("row_id", int64(r.ID)),
		zap.String("lat", r.Value(table.ColLat).String()),
		zap.String("lon", r.Value(table.ColLon).String()),
	)
	r.ClearCoordinates()
}

func checkDuplicates(view *table.Dataset) error {
	seen := roaring64.New()
	for i, r := range view.Rows() {
		if r.ID == 0 {
			continue
		}
		if !seen.CheckedAdd(uint64(r.ID)) {
			return &IdentityError{ID: r.ID, Row: i}
		}
	}
	return nil
}
