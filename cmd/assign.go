package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-geo/internal/table"
)

var (
	assignIn  string
	assignOut string
)

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Give every row a stable row id and add Remarks, lat and lon columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(assignIn)
		if err != nil {
			return err
		}
		if err := table.Assign(ds); err != nil {
			return eris.Wrap(err, "assign row ids")
		}
		if err := saveDataset(assignOut, ds); err != nil {
			return err
		}
		zap.L().Info("row ids assigned",
			zap.Int("rows", ds.Len()),
			zap.Int64("last_id", int64(ds.LastID())),
			zap.String("out", assignOut),
		)
		return nil
	},
}

func init() {
	assignCmd.Flags().StringVar(&assignIn, "in", "", "input table (.csv, .xlsx, .json)")
	assignCmd.Flags().StringVar(&assignOut, "out", "", "output table")
	_ = assignCmd.MarkFlagRequired("in")
	_ = assignCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(assignCmd)
}
