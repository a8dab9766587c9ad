package table

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures the XLSX reader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSXFile loads a dataset from one sheet of a workbook. The first
// non-empty row is the header.
func ReadXLSXFile(path string, opts XLSXOptions) (*Dataset, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	var grid [][]string
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := rowToStrings(row)
		if len(grid) == 0 && isEmptyRow(cells) {
			continue
		}
		grid = append(grid, cells)
	}
	if len(grid) == 0 {
		return nil, eris.New("xlsx: sheet has no header row")
	}
	return fromGrid(grid[0], grid[1:]), nil
}

// WriteXLSXFile writes ds to a single-sheet workbook. Numeric values are
// written as number cells.
func WriteXLSXFile(path string, ds *Dataset) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	withID := writesIdentity(ds)
	header := sheet.AddRow()
	if withID {
		header.AddCell().SetString(ColRowID)
	}
	for _, col := range ds.columns {
		header.AddCell().SetString(col)
	}

	for _, r := range ds.rows {
		row := sheet.AddRow()
		if withID {
			if r.ID != 0 {
				row.AddCell().SetInt64(int64(r.ID))
			} else {
				row.AddCell().SetString("")
			}
		}
		for _, col := range ds.columns {
			v := r.Value(col)
			cell := row.AddCell()
			if v.Kind() == KindNumber {
				f, _ := v.Float()
				cell.SetFloat(f)
				continue
			}
			cell.SetString(v.String())
		}
	}

	return eris.Wrap(f.Save(path), "xlsx: save file")
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
