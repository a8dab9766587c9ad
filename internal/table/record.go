package table

import "maps"

// Well-known column names.
const (
	ColRowID       = "__row_id__"
	ColLocation    = "Location"
	ColCustomer    = "Customer"
	ColLat         = "lat"
	ColLon         = "lon"
	ColRemarks     = "Remarks"
	ColPackage     = "Package"
	ColApplication = "Application"
	ColQty         = "Qty"
)

// RowID identifies a record for its whole life in a dataset. Zero means
// "not yet assigned".
type RowID int64

// Record is one customer row. Field presence varies between records, so
// callers must check Has or the ok result of Get.
type Record struct {
	ID     RowID
	fields map[string]Value
}

// NewRecord creates a record with the given fields. The map is copied.
func NewRecord(id RowID, fields map[string]Value) *Record {
	r := &Record{ID: id, fields: make(map[string]Value, len(fields))}
	maps.Copy(r.fields, fields)
	return r
}

// Get returns the named field and whether it is present.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Value returns the named field, Missing when absent.
func (r *Record) Value(name string) Value {
	return r.fields[name]
}

// Has reports whether the named field is present.
func (r *Record) Has(name string) bool {
	_, ok := r.fields[name]
	return ok
}

// Set stores a field value.
func (r *Record) Set(name string, v Value) {
	if r.fields == nil {
		r.fields = make(map[string]Value)
	}
	r.fields[name] = v
}

// Delete removes a field.
func (r *Record) Delete(name string) {
	delete(r.fields, name)
}

// Fields returns a copy of the record's fields.
func (r *Record) Fields() map[string]Value {
	return maps.Clone(r.fields)
}

// Len returns the number of present fields.
func (r *Record) Len() int { return len(r.fields) }

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	return NewRecord(r.ID, r.fields)
}

// Coordinates returns the record's lat/lon when both parse as finite numbers.
func (r *Record) Coordinates() (lat, lon float64, ok bool) {
	lat, latOK := r.Value(ColLat).Float()
	lon, lonOK := r.Value(ColLon).Float()
	if !latOK || !lonOK {
		return 0, 0, false
	}
	return lat, lon, true
}

// SetCoordinates writes both lat and lon.
func (r *Record) SetCoordinates(lat, lon float64) {
	r.Set(ColLat, Number(lat))
	r.Set(ColLon, Number(lon))
}

// ClearCoordinates marks both lat and lon missing.
func (r *Record) ClearCoordinates() {
	r.Set(ColLat, Missing())
	r.Set(ColLon, Missing())
}

// NeedsGeocoding reports whether lat or lon fails to parse as a finite number.
func (r *Record) NeedsGeocoding() bool {
	_, _, ok := r.Coordinates()
	return !ok
}
