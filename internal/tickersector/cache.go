// Package tickersector implements the ticker->sector lookup cache: a fresh-
// hit / stale-fallback / write-through repository in front of a pluggable
// external sector lookup, backed by the ticker_sector SQLite table
// (spec §4.4).
//
// Grounded on the fresh-check/fetch/write-through shape of a persistent
// external-API cache client.
package tickersector

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/cbram/clusterrisk/internal/model"
	"github.com/cbram/clusterrisk/internal/sector"
	"github.com/rs/zerolog"
)

const defaultMaxAge = 90 * 24 * time.Hour

// SectorLookupSource resolves a sector for a ticker symbol against an
// external service. Implementations wrap the primary and secondary sector
// APIs (spec §13 SUPPLEMENTED FEATURES: secondary lookup is pluggable).
type SectorLookupSource interface {
	Lookup(ctx context.Context, symbol string) (string, error)
}

// Cache is the ticker->sector repository: SQLite-backed, single-writer,
// with per-symbol in-flight de-duplication so two concurrent misses for the
// same symbol collapse into one external call.
type Cache struct {
	db        *sql.DB
	primary   SectorLookupSource
	secondary SectorLookupSource
	maxAge    time.Duration
	log       zerolog.Logger

	mu      sync.Mutex
	inFlight map[string]*sync.WaitGroup
}

func NewCache(db *sql.DB, primary, secondary SectorLookupSource, maxAge time.Duration, log zerolog.Logger) *Cache {
	if maxAge <= 0 {
		maxAge = defaultMaxAge
	}
	return &Cache{
		db:        db,
		primary:   primary,
		secondary: secondary,
		maxAge:    maxAge,
		log:       log.With().Str("component", "tickersector").Logger(),
		inFlight:  map[string]*sync.WaitGroup{},
	}
}

// Lookup resolves a symbol's sector. useCache=false forces a live refresh
// even when a fresh entry exists (spec §4.4 contract).
func (c *Cache) Lookup(ctx context.Context, symbol string, useCache bool) (string, error) {
	if useCache {
		if entry, ok, err := c.get(ctx, symbol); err != nil {
			return "", err
		} else if ok && time.Since(entry.UpdatedAt) < c.maxAge {
			return entry.Sector, nil
		}
	}
	return c.lookupSingleFlight(ctx, symbol)
}

// lookupSingleFlight ensures only one in-flight external call per symbol;
// a hand-rolled guard, since the dependency pool carries no
// golang.org/x/sync/singleflight (see DESIGN.md).
func (c *Cache) lookupSingleFlight(ctx context.Context, symbol string) (string, error) {
	c.mu.Lock()
	if wg, ok := c.inFlight[symbol]; ok {
		c.mu.Unlock()
		wg.Wait()
		entry, ok, err := c.get(ctx, symbol)
		if err != nil {
			return "", err
		}
		if ok {
			return entry.Sector, nil
		}
		return sector.Unknown, nil
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	c.inFlight[symbol] = wg
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inFlight, symbol)
		c.mu.Unlock()
		wg.Done()
	}()

	return c.fetchAndStore(ctx, symbol)
}

func (c *Cache) fetchAndStore(ctx context.Context, symbol string) (string, error) {
	raw, src, err := c.fetchFromSources(ctx, symbol)
	if err != nil {
		if entry, ok, getErr := c.get(ctx, symbol); getErr == nil && ok && entry.Source != model.SourceUnknown {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("sector lookup failed, serving stale entry")
			return entry.Sector, nil
		}
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("sector lookup failed, caching unknown")
		if storeErr := c.store(ctx, symbol, sector.Unknown, model.SourceUnknown); storeErr != nil {
			return "", storeErr
		}
		return sector.Unknown, nil
	}

	normalized := sector.Normalize(raw)
	if storeErr := c.store(ctx, symbol, normalized, src); storeErr != nil {
		return "", storeErr
	}
	return normalized, nil
}

func (c *Cache) fetchFromSources(ctx context.Context, symbol string) (string, model.TickerSectorSource, error) {
	if c.primary != nil {
		if s, err := c.primary.Lookup(ctx, symbol); err == nil && s != "" {
			return s, model.SourcePrimaryAPI, nil
		}
	}
	if c.secondary != nil {
		if s, err := c.secondary.Lookup(ctx, symbol); err == nil && s != "" {
			return s, model.SourceSecondaryAPI, nil
		}
	}
	return "", model.SourceUnknown, errors.New("tickersector: no source resolved a sector")
}

// Override manually sets a symbol's sector (spec §13 manual override).
func (c *Cache) Override(ctx context.Context, symbol, sectorName string) error {
	return c.store(ctx, symbol, sector.Normalize(sectorName), model.SourceManual)
}

// Clear removes a cached entry, forcing the next lookup to refetch
// (spec §13 cache-clear endpoint). symbol="" clears every entry.
func (c *Cache) Clear(ctx context.Context, symbol string) error {
	if symbol == "" {
		_, err := c.db.ExecContext(ctx, `DELETE FROM ticker_sector`)
		return err
	}
	_, err := c.db.ExecContext(ctx, `DELETE FROM ticker_sector WHERE symbol = ?`, symbol)
	return err
}

// Stats summarises cache population (spec §13 stats endpoint).
type Stats struct {
	Total   int
	Stale   int
	Unknown int
}

func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	row := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ticker_sector`)
	if err := row.Scan(&stats.Total); err != nil {
		return Stats{}, err
	}
	cutoff := time.Now().Add(-c.maxAge).Unix()
	row = c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ticker_sector WHERE updated_at < ?`, cutoff)
	if err := row.Scan(&stats.Stale); err != nil {
		return Stats{}, err
	}
	row = c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ticker_sector WHERE source = ?`, string(model.SourceUnknown))
	if err := row.Scan(&stats.Unknown); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func (c *Cache) get(ctx context.Context, symbol string) (model.TickerSectorEntry, bool, error) {
	row := c.db.QueryRowContext(ctx, `SELECT symbol, sector, source, updated_at FROM ticker_sector WHERE symbol = ?`, symbol)
	var entry model.TickerSectorEntry
	var updatedAt int64
	var src string
	err := row.Scan(&entry.Symbol, &entry.Sector, &src, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TickerSectorEntry{}, false, nil
	}
	if err != nil {
		return model.TickerSectorEntry{}, false, err
	}
	entry.Source = model.TickerSectorSource(src)
	entry.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return entry, true, nil
}

func (c *Cache) store(ctx context.Context, symbol, sectorName string, src model.TickerSectorSource) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO ticker_sector (symbol, sector, source, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET sector = excluded.sector, source = excluded.source, updated_at = excluded.updated_at`,
		symbol, sectorName, string(src), time.Now().Unix(),
	)
	return err
}
