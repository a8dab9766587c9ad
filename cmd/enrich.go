package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/crm-geo/internal/enrich"
	"github.com/sells-group/crm-geo/internal/table"
)

var (
	enrichIn      string
	enrichOut     string
	enrichFields  []string
	enrichCountry string
	enrichRateMS  int
	enrichReport  string
)

// progressInterval is how often a running enrichment logs its progress.
var progressInterval = 5 * time.Second

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Geocode rows that are missing coordinates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ds, err := loadDataset(enrichIn)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, nil)
		if err != nil {
			return err
		}
		defer env.Close()

		report, runErr := runEnrich(ctx, env.Pipeline, ds, enrichOptions(enrichFields, enrichCountry, enrichRateMS))
		if report == nil {
			return runErr
		}

		// Partial results from an interrupted run are still written.
		if err := saveDataset(enrichOut, ds); err != nil {
			return err
		}
		if enrichReport != "" {
			if err := writeJSONFile(enrichReport, report); err != nil {
				return err
			}
		}
		return runErr
	},
}

// runEnrich runs the pipeline while a second goroutine logs progress.
func runEnrich(ctx context.Context, p *enrich.Pipeline, ds *table.Dataset, opts enrich.Options) (*enrich.Report, error) {
	progress := make(chan [2]int, 1)
	opts.Progress = func(completed, total int) {
		select {
		case progress <- [2]int{completed, total}:
		default:
		}
	}

	var report *enrich.Report
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(progress)
		r, err := p.Run(gctx, ds, opts)
		report = r
		return err
	})

	g.Go(func() error {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()

		var last [2]int
		for {
			select {
			case update, ok := <-progress:
				if !ok {
					return nil
				}
				last = update
			case <-ticker.C:
				if last[1] > 0 {
					zap.L().Info("enrich progress", zap.Int("completed", last[0]), zap.Int("total", last[1]))
				}
			}
		}
	})

	err := g.Wait()
	if report != nil {
		zap.L().Info("enrichment finished",
			zap.String("run_id", report.RunID),
			zap.Int("resolved", report.Resolved),
			zap.Int("unresolved", report.Unresolved),
			zap.Int("total", report.Total),
			zap.Int("requests", report.Requests),
			zap.Int("cache_hits", report.CacheHits),
		)
	}
	if err != nil {
		return report, eris.Wrap(err, "enrich")
	}
	return report, nil
}

func init() {
	enrichCmd.Flags().StringVar(&enrichIn, "in", "", "input table (.csv, .xlsx, .json)")
	enrichCmd.Flags().StringVar(&enrichOut, "out", "", "output table")
	enrichCmd.Flags().StringSliceVar(&enrichFields, "fields", nil, "columns combined into the query (default from config)")
	enrichCmd.Flags().StringVar(&enrichCountry, "country", "", "country bias, e.g. FR (default from config)")
	enrichCmd.Flags().IntVar(&enrichRateMS, "rate-ms", -1, "minimum milliseconds between requests (default from config)")
	enrichCmd.Flags().StringVar(&enrichReport, "report", "", "write the run report as JSON to this file")
	_ = enrichCmd.MarkFlagRequired("in")
	_ = enrichCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(enrichCmd)
}
