package main

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/crm-geo/internal/reconcile"
	"github.com/sells-group/crm-geo/internal/table"
)

var (
	mergeFull   string
	mergeEdited string
	mergeOut    string
	mergeDelete []string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge an edited view back into the full table by row id",
	RunE: func(cmd *cobra.Command, args []string) error {
		deletes, err := parseRowIDs(mergeDelete)
		if err != nil {
			return err
		}

		full, err := loadDataset(mergeFull)
		if err != nil {
			return err
		}
		edited, err := loadDataset(mergeEdited)
		if err != nil {
			return err
		}

		stats, err := reconcile.Merge(full, edited, reconcile.WithDeletes(deletes...))
		if err != nil {
			return eris.Wrap(err, "merge")
		}
		if err := saveDataset(mergeOut, full); err != nil {
			return err
		}
		zap.L().Info("merge written",
			zap.Int("updated", stats.Updated),
			zap.Int("appended", stats.Appended),
			zap.Int("deleted", stats.Deleted),
			zap.String("out", mergeOut),
		)
		return nil
	},
}

func parseRowIDs(raw []string) ([]table.RowID, error) {
	ids := make([]table.RowID, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			return nil, eris.Errorf("merge: bad row id %q", s)
		}
		ids = append(ids, table.RowID(n))
	}
	return ids, nil
}

func init() {
	mergeCmd.Flags().StringVar(&mergeFull, "full", "", "full table with row ids")
	mergeCmd.Flags().StringVar(&mergeEdited, "edited", "", "edited view")
	mergeCmd.Flags().StringVar(&mergeOut, "out", "", "output table")
	mergeCmd.Flags().StringSliceVar(&mergeDelete, "delete", nil, "row ids to delete")
	_ = mergeCmd.MarkFlagRequired("full")
	_ = mergeCmd.MarkFlagRequired("edited")
	_ = mergeCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(mergeCmd)
}
