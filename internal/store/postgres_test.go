package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-geo/pkg/geocode"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS geocode_cache`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetGeocode_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT latitude, longitude, matched FROM geocode_cache WHERE query_hash = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := s.GetGeocode(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetGeocode_Match(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT latitude, longitude, matched FROM geocode_cache`).
		WithArgs("abc").
		WillReturnRows(mock.NewRows([]string{"latitude", "longitude", "matched"}).
			AddRow(48.8566, 2.3522, true))

	r, ok, err := s.GetGeocode(context.Background(), "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, r.Matched)
	assert.InDelta(t, 48.8566, r.Latitude, 1e-9)
	assert.InDelta(t, 2.3522, r.Longitude, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetGeocode_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT latitude, longitude, matched FROM geocode_cache`).
		WithArgs("abc").
		WillReturnError(errors.New("connection reset"))

	_, ok, err := s.GetGeocode(context.Background(), "abc")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "postgres: get geocode")
}

func TestPostgresStore_PutGeocode_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(query_hash\)`).
		WithArgs("abc", "Paris", pgxmock.AnyArg(), pgxmock.AnyArg(), true, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.PutGeocode(context.Background(), "abc", "Paris", geocode.Match(48.8566, 2.3522))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutGeocode_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO geocode_cache`).
		WithArgs("abc", "Paris", pgxmock.AnyArg(), pgxmock.AnyArg(), false, pgxmock.AnyArg()).
		WillReturnError(errors.New("read-only transaction"))

	err := s.PutGeocode(context.Background(), "abc", "Paris", geocode.NoMatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: put geocode")
}
