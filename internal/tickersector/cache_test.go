package tickersector

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE ticker_sector (
	symbol     TEXT PRIMARY KEY,
	sector     TEXT NOT NULL,
	source     TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`

type stubSource struct {
	sectorName string
	err        error
	calls      int
}

func (s *stubSource) Lookup(ctx context.Context, symbol string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.sectorName, nil
}

func newTestCache(t *testing.T, primary, secondary SectorLookupSource) (*Cache, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(schema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCache(db, primary, secondary, 90*24*time.Hour, zerolog.Nop()), db
}

func TestCache_MissFetchesFromPrimary(t *testing.T) {
	primary := &stubSource{sectorName: "Information Technology"}
	cache, _ := newTestCache(t, primary, nil)

	sectorName, err := cache.Lookup(context.Background(), "AAPL", true)
	require.NoError(t, err)
	require.Equal(t, "Technology", sectorName)
	require.Equal(t, 1, primary.calls)
}

func TestCache_FreshHitSkipsFetch(t *testing.T) {
	primary := &stubSource{sectorName: "Technology"}
	cache, _ := newTestCache(t, primary, nil)

	_, err := cache.Lookup(context.Background(), "AAPL", true)
	require.NoError(t, err)
	_, err = cache.Lookup(context.Background(), "AAPL", true)
	require.NoError(t, err)
	require.Equal(t, 1, primary.calls)
}

func TestCache_PrimaryFailsFallsBackToSecondary(t *testing.T) {
	primary := &stubSource{err: errors.New("boom")}
	secondary := &stubSource{sectorName: "Healthcare"}
	cache, _ := newTestCache(t, primary, secondary)

	sectorName, err := cache.Lookup(context.Background(), "PFE", true)
	require.NoError(t, err)
	require.Equal(t, "Healthcare", sectorName)
}

func TestCache_AllSourcesFailCachesUnknown(t *testing.T) {
	primary := &stubSource{err: errors.New("boom")}
	cache, db := newTestCache(t, primary, nil)

	sectorName, err := cache.Lookup(context.Background(), "ZZZZ", true)
	require.NoError(t, err)
	require.Equal(t, "Unknown", sectorName)

	var src string
	row := db.QueryRow(`SELECT source FROM ticker_sector WHERE symbol = ?`, "ZZZZ")
	require.NoError(t, row.Scan(&src))
	require.Equal(t, "unknown", src)
}

func TestCache_Override(t *testing.T) {
	cache, _ := newTestCache(t, nil, nil)
	require.NoError(t, cache.Override(context.Background(), "TSLA", "Consumer Discretionary"))

	sectorName, err := cache.Lookup(context.Background(), "TSLA", true)
	require.NoError(t, err)
	require.Equal(t, "Consumer Cyclical", sectorName)
}

func TestCache_Clear(t *testing.T) {
	primary := &stubSource{sectorName: "Technology"}
	cache, _ := newTestCache(t, primary, nil)

	_, err := cache.Lookup(context.Background(), "AAPL", true)
	require.NoError(t, err)
	require.NoError(t, cache.Clear(context.Background(), "AAPL"))

	_, err = cache.Lookup(context.Background(), "AAPL", true)
	require.NoError(t, err)
	require.Equal(t, 2, primary.calls)
}
