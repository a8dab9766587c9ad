package table

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Assign gives every record a RowID and normalizes the well-known columns.
//
// When no record carries identity, rows are numbered 1..N in load order.
// A record carries identity through its identity field or a non-zero ID.
// Once any record does, every record must, and all IDs must be unique
// positive integers; otherwise a *SchemaError is returned and ds is left
// untouched. Calling Assign on an assigned dataset only re-validates it.
func Assign(ds *Dataset) error {
	if ds.assigned {
		return validateAssigned(ds)
	}

	ids, present, err := readIDs(ds, false)
	if err != nil {
		return err
	}

	if present {
		seen := roaring64.New()
		for i, id := range ids {
			if seen.Contains(uint64(id)) {
				return &SchemaError{Column: ColRowID, Row: i, Reason: fmt.Sprintf("duplicate row id %d", id)}
			}
			seen.Add(uint64(id))
		}
	}

	var last RowID
	for i, r := range ds.rows {
		if present {
			r.ID = ids[i]
		} else {
			r.ID = RowID(i + 1)
		}
		r.Delete(ColRowID)
		last = max(last, r.ID)
	}
	ds.lastID = max(ds.lastID, last)
	ds.assigned = true
	ds.normalizeColumns()
	ds.reindex()
	return nil
}

// IdentifyView reads identity values of an edited view into RowIDs without
// numbering anything. Records with a blank identity become RowID 0, meaning
// "added by the user". Duplicates are left for the merger to reject.
func IdentifyView(ds *Dataset) error {
	if ds.assigned || ds.identified {
		return nil
	}
	ids, _, err := readIDs(ds, true)
	if err != nil {
		return err
	}
	for i, r := range ds.rows {
		r.ID = ids[i]
		r.Delete(ColRowID)
		ds.lastID = max(ds.lastID, r.ID)
	}
	ds.identified = true
	ds.index = nil
	return nil
}

// HasIdentity reports whether the dataset already carries RowIDs: assigned,
// read by IdentifyView, set on the records, or as a raw identity column from
// a file.
func HasIdentity(ds *Dataset) bool {
	if ds.assigned || ds.identified {
		return true
	}
	return slices.ContainsFunc(ds.rows, carriesIdentity)
}

func carriesIdentity(r *Record) bool {
	return r.ID != 0 || r.Has(ColRowID)
}

// readIDs reads the identity of every record. The identity field wins over
// an ID already set on the record. present is false when no record carries
// identity at all.
func readIDs(ds *Dataset, allowBlank bool) (ids []RowID, present bool, err error) {
	ids = make([]RowID, len(ds.rows))
	if !slices.ContainsFunc(ds.rows, carriesIdentity) {
		return ids, false, nil
	}

	for i, r := range ds.rows {
		if !r.Has(ColRowID) && r.ID > 0 {
			ids[i] = r.ID
			continue
		}
		v := r.Value(ColRowID)
		if v.IsBlank() {
			if allowBlank {
				continue
			}
			return nil, true, &SchemaError{Column: ColRowID, Row: i, Reason: "missing row id"}
		}
		n, ok := v.Int()
		if !ok {
			return nil, true, &SchemaError{Column: ColRowID, Row: i, Reason: fmt.Sprintf("non-integer row id %q", v.String())}
		}
		if n <= 0 {
			return nil, true, &SchemaError{Column: ColRowID, Row: i, Reason: fmt.Sprintf("row id %d is not positive", n)}
		}
		ids[i] = RowID(n)
	}
	return ids, true, nil
}

func validateAssigned(ds *Dataset) error {
	seen := roaring64.New()
	for i, r := range ds.rows {
		if r.ID <= 0 {
			return &SchemaError{Column: ColRowID, Row: i, Reason: "record without row id"}
		}
		if seen.Contains(uint64(r.ID)) {
			return &SchemaError{Column: ColRowID, Row: i, Reason: fmt.Sprintf("duplicate row id %d", r.ID)}
		}
		seen.Add(uint64(r.ID))
	}
	return nil
}

// normalizeColumns makes sure Remarks, lat and lon exist. Remarks defaults
// to an empty string on records that lack it.
func (ds *Dataset) normalizeColumns() {
	ds.AddColumn(ColRemarks)
	ds.AddColumn(ColLat)
	ds.AddColumn(ColLon)
	for _, r := range ds.rows {
		if !r.Has(ColRemarks) {
			r.Set(ColRemarks, String(""))
		}
	}
}
