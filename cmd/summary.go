package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crm-geo/internal/table"
)

var summaryIn string

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print record, customer and package counts plus the geocoded extent",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(summaryIn)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(table.Summarize(ds), "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode summary")
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryIn, "in", "", "input table")
	_ = summaryCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(summaryCmd)
}
