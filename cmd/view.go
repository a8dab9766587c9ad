package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-geo/internal/table"
)

var (
	viewIn      string
	viewOut     string
	viewWhere   []string
	viewFilters string
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Write the rows matching every filter to an editable file",
	Long:  "Writes a filtered view that keeps row ids, so edits can be merged back with the merge command. The input must already carry row ids (see assign).",
	RunE: func(cmd *cobra.Command, args []string) error {
		filters, err := collectFilters(viewWhere, viewFilters)
		if err != nil {
			return err
		}

		ds, err := loadDataset(viewIn)
		if err != nil {
			return err
		}
		if !table.HasIdentity(ds) {
			return eris.Errorf("view: %s has no %s column; run assign first", viewIn, table.ColRowID)
		}
		if err := table.Assign(ds); err != nil {
			return eris.Wrap(err, "view: read row ids")
		}

		view := ds.View(filters...)
		if err := saveDataset(viewOut, view); err != nil {
			return err
		}
		zap.L().Info("view written",
			zap.Int("rows", view.Len()),
			zap.Int("of", ds.Len()),
			zap.String("out", viewOut),
		)
		return nil
	},
}

// collectFilters merges --where flags with a YAML filter file.
func collectFilters(where []string, file string) ([]table.Filter, error) {
	var filters []table.Filter
	if file != "" {
		loaded, err := table.LoadFilters(file)
		if err != nil {
			return nil, err
		}
		filters = append(filters, loaded...)
	}
	for _, w := range where {
		f, err := parseWhere(w)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// parseWhere reads "Column=v1,v2".
func parseWhere(s string) (table.Filter, error) {
	col, vals, ok := strings.Cut(s, "=")
	col = strings.TrimSpace(col)
	if !ok || col == "" {
		return table.Filter{}, eris.Errorf("view: bad filter %q (want Column=value,value)", s)
	}
	var values []string
	for _, v := range strings.Split(vals, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return table.Filter{Column: col, Values: values}, nil
}

func init() {
	viewCmd.Flags().StringVar(&viewIn, "in", "", "input table with row ids")
	viewCmd.Flags().StringVar(&viewOut, "out", "", "output view")
	viewCmd.Flags().StringArrayVar(&viewWhere, "where", nil, "filter as Column=value,value (repeatable)")
	viewCmd.Flags().StringVar(&viewFilters, "filters", "", "YAML file with a list of {column, values} filters")
	_ = viewCmd.MarkFlagRequired("in")
	_ = viewCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(viewCmd)
}
