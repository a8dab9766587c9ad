// Package store persists geocode results behind the in-memory cache.
package store

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-geo/pkg/geocode"
)

// Supported cache drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLitePath is used when the sqlite driver has no DSN.
const DefaultSQLitePath = "crm-geo.db"

// GeocodeStore is a persistent geocode cache tier.
type GeocodeStore interface {
	geocode.Backing

	Migrate(ctx context.Context) error
	Close() error
}

// Open returns the store for driver, migrated and ready. The memory driver
// has no persistent tier and returns a nil store.
func Open(ctx context.Context, driver, dsn string) (GeocodeStore, error) {
	var (
		st  GeocodeStore
		err error
	)
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return nil, nil
	case DriverSQLite:
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		st, err = NewSQLite(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, eris.New("store: postgres driver requires a database url")
		}
		st, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}
