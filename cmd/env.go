package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/crm-geo/internal/enrich"
	"github.com/sells-group/crm-geo/internal/monitoring"
	"github.com/sells-group/crm-geo/internal/store"
	"github.com/sells-group/crm-geo/pkg/geocode"
)

// geoEnv bundles what the enrich and serve commands share.
type geoEnv struct {
	Store    store.GeocodeStore // nil for the memory driver
	Pipeline *enrich.Pipeline
	Metrics  *monitoring.Metrics
}

// Close releases resources held by the environment.
func (e *geoEnv) Close() {
	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			zap.L().Warn("close geocode store", zap.Error(err))
		}
	}
}

// initEnv builds the geocode client, the cache with its optional
// persistent tier, and the enrichment pipeline from cfg.
func initEnv(ctx context.Context, metrics *monitoring.Metrics) (*geoEnv, error) {
	st, err := store.Open(ctx, cfg.Cache.Driver, cfg.Cache.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "init geocode store")
	}

	var cacheOpts []geocode.CacheOption
	if st != nil {
		cacheOpts = append(cacheOpts, geocode.WithBacking(st))
	}

	client := geocode.NewORSClient(cfg.Geocode.APIKey,
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithTimeout(time.Duration(cfg.Geocode.TimeoutSecs)*time.Second),
	)

	zap.L().Debug("geocode environment ready",
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Bool("credential", client.HasCredential()),
	)

	return &geoEnv{
		Store:    st,
		Pipeline: enrich.New(client, geocode.NewCache(cacheOpts...), enrich.WithMetrics(metrics)),
		Metrics:  metrics,
	}, nil
}

// enrichOptions fills run options from config, letting non-zero overrides win.
func enrichOptions(fields []string, country string, rateMS int) enrich.Options {
	if len(fields) == 0 {
		fields = cfg.Geocode.Fields
	}
	if country == "" {
		country = cfg.Geocode.CountryBias
	}
	if rateMS < 0 {
		rateMS = cfg.Geocode.RateLimitMS
	}
	return enrich.Options{
		Fields:      fields,
		CountryBias: country,
		Interval:    time.Duration(rateMS) * time.Millisecond,
	}
}
