package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadCSVFile loads a dataset from a CSV file with a header row.
func ReadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(f)
}

// ReadCSV loads a dataset from CSV. Header names are trimmed; empty cells
// load as Missing. Rows shorter than the header are padded with Missing.
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read")
	}
	if len(records) == 0 {
		return nil, eris.New("csv: missing header row")
	}
	return fromGrid(records[0], records[1:]), nil
}

// WriteCSVFile writes ds to path, replacing any existing file.
func WriteCSVFile(path string, ds *Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "csv: create file")
	}
	if err := WriteCSV(f, ds); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "csv: close file")
}

// WriteCSV writes ds with the identity column first when RowIDs exist.
func WriteCSV(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)
	header, rows := toGrid(ds)
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "csv: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "csv: flush")
}

// fromGrid builds a dataset from a header and string rows, the common shape
// of CSV and XLSX input.
func fromGrid(header []string, rows [][]string) *Dataset {
	columns := uniqueHeader(header)
	ds := New(columns, nil)
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		rec := &Record{fields: make(map[string]Value, len(columns))}
		for i, col := range columns {
			if i < len(row) {
				rec.fields[col] = ParseCell(row[i])
			} else {
				rec.fields[col] = Missing()
			}
		}
		ds.rows = append(ds.rows, rec)
	}
	return ds
}

// toGrid renders ds as a header and string rows.
func toGrid(ds *Dataset) ([]string, [][]string) {
	withID := writesIdentity(ds)
	header := make([]string, 0, len(ds.columns)+1)
	if withID {
		header = append(header, ColRowID)
	}
	header = append(header, ds.columns...)

	rows := make([][]string, 0, len(ds.rows))
	for _, r := range ds.rows {
		row := make([]string, 0, len(header))
		if withID {
			if r.ID != 0 {
				row = append(row, strconv.FormatInt(int64(r.ID), 10))
			} else {
				row = append(row, r.Value(ColRowID).String())
			}
		}
		for _, col := range ds.columns {
			row = append(row, r.Value(col).String())
		}
		rows = append(rows, row)
	}
	return header, rows
}

func writesIdentity(ds *Dataset) bool {
	if ds.assigned || ds.identified {
		return true
	}
	for _, r := range ds.rows {
		if r.ID != 0 || r.Has(ColRowID) {
			return true
		}
	}
	return false
}

// uniqueHeader trims names and suffixes repeats with ".1", ".2", ...
func uniqueHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
