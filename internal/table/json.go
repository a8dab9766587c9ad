package table

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
)

// jsonDataset is the wire shape of a Dataset: explicit column order plus one
// object per row. The identity column appears in each row object.
type jsonDataset struct {
	Columns []string                     `json:"columns,omitempty"`
	Rows    []map[string]json.RawMessage `json:"rows"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindNumber:
		return []byte(strconv.FormatFloat(v.f, 'f', -1, 64)), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. Booleans become text.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = Missing()
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "table: decode string value")
		}
		*v = String(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*v = String(string(data))
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return eris.Wrapf(err, "table: unsupported value %s", data)
		}
		*v = Number(f)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (ds *Dataset) MarshalJSON() ([]byte, error) {
	out := jsonDataset{
		Columns: ds.Columns(),
		Rows:    make([]map[string]json.RawMessage, 0, len(ds.rows)),
	}
	withID := writesIdentity(ds)
	if withID {
		out.Columns = append([]string{ColRowID}, out.Columns...)
	}
	for _, r := range ds.rows {
		row := make(map[string]json.RawMessage, len(r.fields)+1)
		for name, val := range r.fields {
			b, err := val.MarshalJSON()
			if err != nil {
				return nil, err
			}
			row[name] = b
		}
		if withID && r.ID != 0 {
			row[ColRowID] = json.RawMessage(strconv.FormatInt(int64(r.ID), 10))
		}
		out.Rows = append(out.Rows, row)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. When columns are omitted they
// are derived from the row keys in sorted order. Identity values stay raw
// until Assign or IdentifyView reads them.
func (ds *Dataset) UnmarshalJSON(data []byte) error {
	var in jsonDataset
	if err := json.Unmarshal(data, &in); err != nil {
		return eris.Wrap(err, "table: decode dataset")
	}

	columns := in.Columns
	if len(columns) == 0 {
		seen := make(map[string]bool)
		for _, row := range in.Rows {
			for k := range row {
				if !seen[k] {
					seen[k] = true
					columns = append(columns, k)
				}
			}
		}
		sort.Strings(columns)
	}

	fresh := New(columns, nil)
	for i, row := range in.Rows {
		rec := &Record{fields: make(map[string]Value, len(row))}
		for k, raw := range row {
			var v Value
			if err := v.UnmarshalJSON(raw); err != nil {
				return eris.Wrapf(err, "table: row %d field %q", i, k)
			}
			rec.fields[k] = v
			fresh.AddColumn(k)
		}
		fresh.rows = append(fresh.rows, rec)
	}
	*ds = *fresh
	return nil
}
