package scraper

import (
	"context"
	"time"

	"github.com/cbram/clusterrisk/internal/funddetail"
	"github.com/cbram/clusterrisk/internal/model"
)

// DetailStore is the persistence surface the refresher writes fetched
// fund details into (implemented by funddetail.Store).
type DetailStore interface {
	Put(symbol string, detail model.FundDetail) error
	Enumerate() ([]funddetail.Summary, error)
}

// IdentifierIndex resolves a ticker symbol to the ISIN the scraper
// should re-fetch, and records the mapping for a newly-fetched fund.
type IdentifierIndex interface {
	IdentifierForSymbol(symbol string) (string, bool)
	Put(isin, symbol, name string) error
}

// Refresher ties the scraper's Client to the Fund-Detail Store and its
// sibling identifier index: it is the scheduler.FundRefresher
// implementation the batch-refresh job drives.
type Refresher struct {
	client *Client
	store  DetailStore
	index  IdentifierIndex
}

func NewRefresher(client *Client, store DetailStore, index IdentifierIndex) *Refresher {
	return &Refresher{client: client, store: store, index: index}
}

// RefreshOne scrapes identifier's profile and writes the result into the
// Fund-Detail Store, updating the identifier index so future look-throughs
// resolve symbol by ISIN (spec §4.2 / §6 "refresh one fund"). proxyIdentifier
// is the identifier of a physically-replicating fund on the same index to
// scrape holdings/allocations from instead, for funds whose own page is
// judged unusable (e.g. synthetic/swap replication); pass "" when none is
// wanted.
func (r *Refresher) RefreshOne(ctx context.Context, symbol, identifier, proxyIdentifier string) error {
	detail, err := r.client.FetchProfile(ctx, identifier, symbol, proxyIdentifier)
	if err != nil {
		return err
	}
	if err := r.store.Put(symbol, detail); err != nil {
		return err
	}
	return r.index.Put(identifier, symbol, detail.DisplayName)
}

// StaleSymbols returns every stored fund whose FundDetail is older than
// staleAfter (counted in whole days), excluding manually-curated records,
// the candidate set for a batch-refresh run (spec §4.2 Freshness: "manual
// entries are skipped"). A non-positive staleAfter uses the store's own
// Stale flag instead.
func (r *Refresher) StaleSymbols(ctx context.Context, staleAfter time.Duration) ([]string, error) {
	summaries, err := r.store.Enumerate()
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if s.Manual {
			continue
		}
		stale := s.Stale
		if staleAfter > 0 {
			stale = time.Duration(s.DaysOld)*24*time.Hour > staleAfter
		}
		if stale {
			symbols = append(symbols, s.Symbol)
		}
	}
	return symbols, nil
}

// IdentifierForSymbol implements scheduler.FundRefresher by delegating to
// the identifier index.
func (r *Refresher) IdentifierForSymbol(symbol string) (string, bool) {
	return r.index.IdentifierForSymbol(symbol)
}
