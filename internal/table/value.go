// Package table holds the in-memory customer dataset: tagged scalar values,
// records keyed by a stable RowID, and the loaders that move datasets in and
// out of CSV, XLSX and JSON.
package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant stored in a Value.
type Kind uint8

// Value kinds.
const (
	KindMissing Kind = iota
	KindString
	KindNumber
)

// Value is a single cell: a string, a finite number, or missing.
// The zero Value is Missing.
type Value struct {
	kind Kind
	s    string
	f    float64
}

// Missing returns the missing marker.
func Missing() Value { return Value{} }

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number returns a numeric Value. Non-finite inputs yield Missing.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{kind: KindNumber, f: f}
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether v is the missing marker.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// String renders v as text. Missing renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return ""
	}
}

// Float coerces v to a finite number. Strings are parsed after trimming;
// anything that does not parse to a finite float reports false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.f, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int coerces v to an integer. Integral floats ("3", "3.0", 3) are accepted.
func (v Value) Int() (int64, bool) {
	if v.kind == KindString {
		if n, err := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64); err == nil {
			return n, true
		}
	}
	f, ok := v.Float()
	if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int64(f), true
}

// missingTokens are text values treated as absent when building queries.
var missingTokens = map[string]bool{
	"nan":  true,
	"none": true,
	"null": true,
	"<na>": true,
	"n/a":  true,
}

// IsBlank reports whether v carries no usable text: missing, empty, or a
// "nan"-like marker left behind by spreadsheet exports.
func (v Value) IsBlank() bool {
	if v.kind == KindMissing {
		return true
	}
	s := strings.TrimSpace(v.String())
	return s == "" || missingTokens[strings.ToLower(s)]
}

// ParseCell converts raw text from a file into a Value. Empty cells are
// Missing; everything else is kept as text so it round-trips unchanged.
func ParseCell(raw string) Value {
	if raw == "" {
		return Missing()
	}
	return String(raw)
}
