package resolver

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/cbram/clusterrisk/internal/model"
)

// HoldingsSource resolves a security identifier to a FundDetail. The
// resolver tries a priority-ordered chain of sources (Fund-Detail Store,
// user-holdings overlay, built-in reference dataset) and stops at the
// first one that finds something (spec §4.5 EXPANSION).
type HoldingsSource interface {
	Resolve(ctx context.Context, identifier string) (*model.FundDetail, error)
}

// StoreSource adapts the Fund-Detail Store's identifier->symbol index plus
// file reads into a HoldingsSource.
type StoreSource struct {
	index IdentifierIndex
	store FundDetailGetter
}

// IdentifierIndex resolves an ISIN to the symbol the Fund-Detail Store files
// are keyed by.
type IdentifierIndex interface {
	SymbolForIdentifier(identifier string) (string, bool)
}

// FundDetailGetter is the subset of funddetail.Store the resolver needs.
type FundDetailGetter interface {
	Get(symbol string) (model.FundDetail, bool, error)
}

func NewStoreSource(index IdentifierIndex, store FundDetailGetter) *StoreSource {
	return &StoreSource{index: index, store: store}
}

func (s *StoreSource) Resolve(ctx context.Context, identifier string) (*model.FundDetail, error) {
	symbol, ok := s.index.SymbolForIdentifier(identifier)
	if !ok {
		return nil, nil
	}
	detail, ok, err := s.store.Get(symbol)
	if err != nil || !ok {
		return nil, err
	}
	return &detail, nil
}

// OverlaySource lets a caller register ad-hoc FundDetails for the current
// run (spec §4.5 step 5: "user-holdings overlay"), useful when the user
// supplies a holdings breakdown the scraper could not fetch.
type OverlaySource struct {
	byIdentifier map[string]model.FundDetail
}

func NewOverlaySource() *OverlaySource {
	return &OverlaySource{byIdentifier: map[string]model.FundDetail{}}
}

func (o *OverlaySource) Put(identifier string, detail model.FundDetail) {
	o.byIdentifier[identifier] = detail
}

func (o *OverlaySource) Resolve(ctx context.Context, identifier string) (*model.FundDetail, error) {
	if detail, ok := o.byIdentifier[identifier]; ok {
		return &detail, nil
	}
	return nil, nil
}

//go:embed reference_funds.json
var referenceFundsJSON []byte

type referenceFund struct {
	DisplayName   string `json:"display_name"`
	FundType      string `json:"fund_type"`
	IndexName     string `json:"index_name"`
	BaseCurrency  string `json:"base_currency"`
	Holdings      []struct {
		Name     string  `json:"name"`
		Weight   float64 `json:"weight"`
		Currency string  `json:"currency"`
		Sector   string  `json:"sector"`
		Country  string  `json:"country"`
	} `json:"holdings"`
	CurrencyAlloc []struct {
		Bucket string  `json:"bucket"`
		Weight float64 `json:"weight"`
	} `json:"currency_alloc"`
}

// ReferenceSource is the built-in, hardcoded dataset of broad-market index
// funds common enough to ship without a live fetch (spec §4.5 step 5).
type ReferenceSource struct {
	funds map[string]referenceFund
}

func NewReferenceSource() (*ReferenceSource, error) {
	var raw map[string]referenceFund
	if err := json.Unmarshal(referenceFundsJSON, &raw); err != nil {
		return nil, err
	}
	return &ReferenceSource{funds: raw}, nil
}

func (r *ReferenceSource) Resolve(ctx context.Context, identifier string) (*model.FundDetail, error) {
	fund, ok := r.funds[identifier]
	if !ok {
		return nil, nil
	}
	detail := model.FundDetail{
		Identifier:   identifier,
		DisplayName:  fund.DisplayName,
		FundType:     fund.FundType,
		IndexName:    fund.IndexName,
		BaseCurrency: fund.BaseCurrency,
		SourceTag:    "built-in-reference",
	}
	for _, h := range fund.Holdings {
		detail.TopHoldings = append(detail.TopHoldings, model.HoldingEntry{
			Name: h.Name, Weight: h.Weight, Currency: h.Currency, Sector: h.Sector, Country: h.Country,
		})
	}
	for _, c := range fund.CurrencyAlloc {
		detail.CurrencyAlloc = append(detail.CurrencyAlloc, model.AllocationEntry{Bucket: c.Bucket, Weight: c.Weight})
	}
	return &detail, nil
}
