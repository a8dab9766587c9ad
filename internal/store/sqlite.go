package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/crm-geo/pkg/geocode"
)

// SQLiteStore implements GeocodeStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query_hash TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	latitude   REAL,
	longitude  REAL,
	matched    INTEGER NOT NULL DEFAULT 0,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the geocode_cache table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetGeocode returns the cached result for key. Unresolved entries are
// returned as a NoMatch hit.
func (s *SQLiteStore) GetGeocode(ctx context.Context, key string) (geocode.Result, bool, error) {
	var (
		lat, lon sql.NullFloat64
		matched  bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT latitude, longitude, matched FROM geocode_cache WHERE query_hash = ?`, key,
	).Scan(&lat, &lon, &matched)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return geocode.Result{}, false, nil
		}
		return geocode.Result{}, false, eris.Wrap(err, "sqlite: get geocode")
	}
	return toResult(matched, lat.Float64, lon.Float64, lat.Valid && lon.Valid), true, nil
}

// PutGeocode upserts a result under key.
func (s *SQLiteStore) PutGeocode(ctx context.Context, key, query string, r geocode.Result) error {
	lat, lon := nullCoords(r)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO geocode_cache (query_hash, query, latitude, longitude, matched, cached_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (query_hash) DO UPDATE SET
		   query = excluded.query,
		   latitude = excluded.latitude,
		   longitude = excluded.longitude,
		   matched = excluded.matched,
		   cached_at = excluded.cached_at`,
		key, query, lat, lon, r.Matched, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: put geocode")
}

func toResult(matched bool, lat, lon float64, valid bool) geocode.Result {
	if !matched || !valid {
		return geocode.NoMatch()
	}
	return geocode.Match(lat, lon)
}

func nullCoords(r geocode.Result) (sql.NullFloat64, sql.NullFloat64) {
	if !r.Matched {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: r.Latitude, Valid: true},
		sql.NullFloat64{Float64: r.Longitude, Valid: true}
}
