package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/crm-geo/pkg/geocode"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock pools
// satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements GeocodeStore using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query_hash TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	latitude   DOUBLE PRECISION,
	longitude  DOUBLE PRECISION,
	matched    BOOLEAN NOT NULL DEFAULT false,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Migrate creates the geocode_cache table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// GetGeocode returns the cached result for key.
func (s *PostgresStore) GetGeocode(ctx context.Context, key string) (geocode.Result, bool, error) {
	var (
		lat, lon sql.NullFloat64
		matched  bool
	)
	err := s.pool.QueryRow(ctx,
		`SELECT latitude, longitude, matched FROM geocode_cache WHERE query_hash = $1`, key,
	).Scan(&lat, &lon, &matched)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return geocode.Result{}, false, nil
		}
		return geocode.Result{}, false, eris.Wrap(err, "postgres: get geocode")
	}
	return toResult(matched, lat.Float64, lon.Float64, lat.Valid && lon.Valid), true, nil
}

// PutGeocode upserts a result under key.
func (s *PostgresStore) PutGeocode(ctx context.Context, key, query string, r geocode.Result) error {
	lat, lon := nullCoords(r)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO geocode_cache (query_hash, query, latitude, longitude, matched, cached_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (query_hash) DO UPDATE SET
		   query = EXCLUDED.query,
		   latitude = EXCLUDED.latitude,
		   longitude = EXCLUDED.longitude,
		   matched = EXCLUDED.matched,
		   cached_at = EXCLUDED.cached_at`,
		key, query, lat, lon, r.Matched, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: put geocode")
}
