package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-geo/internal/table"
)

// loadDataset reads a table, picking the format from the file extension.
func loadDataset(path string) (*table.Dataset, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return table.ReadCSVFile(path)
	case ".xlsx":
		return table.ReadXLSXFile(path, table.XLSXOptions{})
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrap(err, "read json dataset")
		}
		var ds table.Dataset
		if err := json.Unmarshal(data, &ds); err != nil {
			return nil, err
		}
		return &ds, nil
	default:
		return nil, eris.Errorf("unsupported table format %q (want .csv, .xlsx or .json)", ext)
	}
}

// saveDataset writes a table, picking the format from the file extension.
func saveDataset(path string, ds *table.Dataset) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return table.WriteCSVFile(path, ds)
	case ".xlsx":
		return table.WriteXLSXFile(path, ds)
	case ".json":
		data, err := json.MarshalIndent(ds, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode json dataset")
		}
		return eris.Wrap(os.WriteFile(path, data, 0o644), "write json dataset")
	default:
		return eris.Errorf("unsupported table format %q (want .csv, .xlsx or .json)", ext)
	}
}

// writeJSONFile writes v as indented JSON.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode json")
	}
	return eris.Wrap(os.WriteFile(path, data, 0o644), "write json")
}
