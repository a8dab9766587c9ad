// Package enrich fills in missing coordinates on a dataset by geocoding
// each incomplete row.
package enrich

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-geo/internal/monitoring"
	"github.com/sells-group/crm-geo/internal/table"
	"github.com/sells-group/crm-geo/pkg/geocode"
)

// Options controls a single run.
type Options struct {
	// Fields are combined, in order, into each row's query. Defaults to
	// DefaultFields.
	Fields []string
	// Interval is the minimum gap between geocoding call starts.
	Interval time.Duration
	// CountryBias is passed through to the client as a hint.
	CountryBias string
	// Progress is called after every processed row.
	Progress func(completed, total int)
}

// Pipeline geocodes rows lacking valid coordinates. A Pipeline may be
// reused across runs; its cache persists between them. Runs must not
// overlap on the same dataset.
type Pipeline struct {
	client  geocode.Client
	cache   *geocode.Cache
	metrics *monitoring.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records run activity on m.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// New creates a Pipeline. A nil cache gets a fresh in-memory one.
func New(client geocode.Client, cache *geocode.Cache, opts ...Option) *Pipeline {
	if cache == nil {
		cache = geocode.NewCache()
	}
	p := &Pipeline{client: client, cache: cache}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cache returns the pipeline's geocode cache.
func (p *Pipeline) Cache() *geocode.Cache { return p.cache }

type workItem struct {
	id    table.RowID
	query string
}

// Run geocodes every row of ds whose lat or lon is not a finite number and
// writes the coordinates of matched rows. Unmatched rows are left as they
// are so the next run picks them up again.
//
// If ctx is cancelled the run stops before the next row; rows already
// written stay written and the partial report is returned with the error.
func (p *Pipeline) Run(ctx context.Context, ds *table.Dataset, opts Options) (*Report, error) {
	if p.client == nil || !p.client.HasCredential() {
		return nil, &ConfigurationError{Reason: "geocoding credential is not set"}
	}

	fields := opts.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	if !slices.ContainsFunc(fields, ds.HasColumn) {
		return nil, &ConfigurationError{Reason: "dataset has none of the query columns: " + strings.Join(fields, ", ")}
	}
	if err := table.Assign(ds); err != nil {
		return nil, eris.Wrap(err, "enrich: assign identity")
	}

	report := newReport()
	start := time.Now()
	log := zap.L().With(zap.String("run_id", report.RunID))

	work := snapshot(ds, fields)
	report.Total = len(work)
	if len(work) == 0 {
		log.Info("enrich: nothing to geocode", zap.Int("rows", ds.Len()))
		report.Duration = time.Since(start)
		return report, nil
	}

	log.Info("enrich: run started",
		zap.Int("pending", len(work)),
		zap.Strings("fields", fields),
		zap.Duration("interval", opts.Interval),
	)

	limiter := geocode.NewLimiter(opts.Interval)
	resolve := func(ctx context.Context, query string) geocode.Result {
		if err := limiter.Wait(ctx); err != nil {
			return geocode.NoMatch()
		}
		report.Requests++
		r := p.client.Resolve(ctx, query, opts.CountryBias)
		p.metrics.GeocodeRequest(r.Matched)
		return r
	}

	for i, item := range work {
		if err := ctx.Err(); err != nil {
			return p.stop(log, report, start, err)
		}

		result := geocode.NoMatch()
		if item.query != "" {
			var hit bool
			result, hit = p.cache.GetOrResolve(ctx, item.query, resolve)
			if !result.Matched && ctx.Err() != nil {
				// Interrupted mid-lookup; the row is neither resolved nor
				// unresolved.
				return p.stop(log, report, start, ctx.Err())
			}
			if hit {
				report.CacheHits++
				p.metrics.CacheHit()
			}
		}

		if result.Matched {
			if r := ds.ByID(item.id); r != nil {
				r.SetCoordinates(result.Latitude, result.Longitude)
			}
			report.Resolved++
		} else {
			report.Unresolved++
			log.Debug("enrich: row unresolved",
				zap.Int64("row_id", int64(item.id)),
				zap.String("query", item.query),
			)
		}
		p.metrics.EnrichRow(result.Matched)

		if opts.Progress != nil {
			opts.Progress(i+1, len(work))
		}
	}

	report.Duration = time.Since(start)
	log.Info("enrich: run complete",
		zap.Int("resolved", report.Resolved),
		zap.Int("unresolved", report.Unresolved),
		zap.Int("cache_hits", report.CacheHits),
		zap.Int("requests", report.Requests),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (p *Pipeline) stop(log *zap.Logger, report *Report, start time.Time, err error) (*Report, error) {
	report.Duration = time.Since(start)
	log.Warn("enrich: run interrupted",
		zap.Int("processed", report.Processed()),
		zap.Int("total", report.Total),
		zap.Error(err),
	)
	return report, eris.Wrap(err, "enrich: run interrupted")
}

// snapshot captures the rows needing coordinates, in dataset order, with
// their queries as they are now.
func snapshot(ds *table.Dataset, fields []string) []workItem {
	var work []workItem
	for _, r := range ds.Rows() {
		if !r.NeedsGeocoding() {
			continue
		}
		work = append(work, workItem{id: r.ID, query: BuildQuery(r, fields)})
	}
	return work
}
