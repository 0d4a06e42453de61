// Package resolver implements the Look-through Resolver: it expands each
// raw position into one or more EffectiveHoldings, resolving sectors
// through a priority chain and splitting fund "Other Holdings" residuals
// across currencies (spec §4.5).
package resolver

import (
	"context"

	"github.com/cbram/clusterrisk/internal/diagnostics"
	"github.com/cbram/clusterrisk/internal/model"
	"github.com/cbram/clusterrisk/internal/sector"
)

const otherHoldingsName = "Other Holdings"
const currencyResidualFloor = 1e-3

// IdentifierSectorSource resolves a sector directly from a security
// identifier (spec §4.5 step 2), e.g. a reference-data lookup by ISIN.
type IdentifierSectorSource interface {
	SectorForIdentifier(ctx context.Context, identifier string) (string, bool, error)
}

// TickerSectorLookup is the subset of the Ticker->Sector Cache the
// resolver needs as a fallback for the trade symbol (spec §4.5 step 2).
type TickerSectorLookup interface {
	Lookup(ctx context.Context, symbol string, useCache bool) (string, error)
}

// Resolver expands RawPositions into EffectiveHoldings. A single Resolver
// instance is shared across concurrent analysis runs, so per-run state
// (the diagnostics buffer) is threaded through ResolveAll as a parameter
// rather than held as a struct field.
type Resolver struct {
	fundSources   []HoldingsSource
	identifierSvc IdentifierSectorSource
	tickerCache   TickerSectorLookup
}

// New builds a Resolver. fundSources is tried in order for fund look-through
// (Store, overlay, built-in reference); identifierSvc and tickerCache may be
// nil to disable those resolution steps.
func New(fundSources []HoldingsSource, identifierSvc IdentifierSectorSource, tickerCache TickerSectorLookup) *Resolver {
	return &Resolver{fundSources: fundSources, identifierSvc: identifierSvc, tickerCache: tickerCache}
}

// ResolveAll expands every raw position into its EffectiveHoldings, in
// input order; it does not merge duplicate position names (see
// MergeDuplicates). diag may be nil to discard warnings.
func (r *Resolver) ResolveAll(ctx context.Context, positions []model.RawPosition, diag *diagnostics.Buffer) []model.EffectiveHolding {
	var all []model.EffectiveHolding
	for _, pos := range positions {
		if pos.Type == model.InstrumentFund {
			all = append(all, r.resolveFund(ctx, pos, diag)...)
		} else {
			all = append(all, r.resolveDirect(ctx, pos, diag))
		}
	}
	return all
}

func (r *Resolver) resolveDirect(ctx context.Context, pos model.RawPosition, diag *diagnostics.Buffer) model.EffectiveHolding {
	name := pos.Name
	if pos.Type == model.InstrumentCash {
		name = "Cash"
	}

	holding := model.EffectiveHolding{
		Name:             name,
		Value:            pos.Value,
		Currency:         pos.Currency,
		OriginInstrument: pos.Type,
		Identifier:       pos.Identifier,
		TradeSymbol:      pos.TradeSymbol,
	}

	resolvedSector, provenance := r.resolveSector(ctx, pos, diag)
	holding.Sector = resolvedSector
	holding.SectorProvenance = provenance

	if pos.Type == model.InstrumentStock && pos.Identifier != "" {
		holding.Currency = sector.CurrencyFromIdentifierPrefix(pos.Identifier)
	}
	if len(pos.Identifier) >= 2 {
		if name, ok := sector.CountryNameForCode(pos.Identifier[:2]); ok {
			holding.Country = name
		}
	}

	return holding
}

// resolveSector implements the direct-position priority chain: declared ->
// identifier lookup (falling back to the ticker cache on the trade symbol)
// -> none.
func (r *Resolver) resolveSector(ctx context.Context, pos model.RawPosition, diag *diagnostics.Buffer) (string, model.SectorProvenance) {
	if pos.DeclaredSector != "" {
		return pos.DeclaredSector, model.ProvenanceDeclared
	}

	if pos.Identifier != "" && r.identifierSvc != nil {
		if s, ok, err := r.identifierSvc.SectorForIdentifier(ctx, pos.Identifier); err == nil && ok {
			return sector.Normalize(s), model.ProvenanceIdentifierLookup
		}
	}
	if pos.TradeSymbol != "" && r.tickerCache != nil {
		if s, err := r.tickerCache.Lookup(ctx, pos.TradeSymbol, true); err == nil && s != sector.Unknown {
			return s, model.ProvenanceCache
		}
	}

	if diag != nil {
		diag.Warn("Resolver", "no sector resolved for "+pos.Name)
	}
	return sector.Unknown, model.ProvenanceNone
}

// resolveFund expands one fund position into its flattened top holdings
// plus an Other-Holdings residual (spec §4.5 "Fund position with identifier").
func (r *Resolver) resolveFund(ctx context.Context, pos model.RawPosition, diag *diagnostics.Buffer) []model.EffectiveHolding {
	detail := r.lookupFundDetail(ctx, pos.Identifier)
	if detail == nil {
		if diag != nil {
			diag.Warn("Resolver", "no fund detail found for "+pos.Name+", emitting as opaque ETF")
		}
		return []model.EffectiveHolding{{
			Name:             pos.Name,
			Value:            pos.Value,
			Currency:         pos.Currency,
			Sector:           sector.ETF,
			SectorProvenance: model.ProvenanceNone,
			OriginInstrument: model.InstrumentFund,
			Identifier:       pos.Identifier,
			TradeSymbol:      pos.TradeSymbol,
		}}
	}

	var holdings []model.EffectiveHolding
	var topHoldingsCurrencyWeight = map[string]float64{}
	var otherHolding *model.HoldingEntry

	for i, h := range detail.TopHoldings {
		if h.IsOtherHoldings() {
			other := detail.TopHoldings[i]
			otherHolding = &other
			continue
		}
		holdings = append(holdings, model.EffectiveHolding{
			Name:             h.Name,
			Value:            pos.Value * h.Weight,
			Currency:         h.Currency,
			Country:          h.Country,
			Sector:           sector.Normalize(h.Sector),
			OriginInstrument: fundHoldingInstrument(*detail),
			SourceFundName:   pos.Name,
			SectorProvenance: model.ProvenanceFundDetail,
			FundTypeOverride: detail.FundType,
			Identifier:       h.Identifier,
		})
		topHoldingsCurrencyWeight[h.Currency] += h.Weight
	}

	if otherHolding != nil {
		holdings = append(holdings, r.splitOtherHoldings(pos, *detail, *otherHolding, topHoldingsCurrencyWeight)...)
	}

	return holdings
}

// fundHoldingInstrument reports ETF_Holding for every fund except Money
// Market funds, whose holdings classify as Cash (spec §4.6 #1 via
// EffectiveHolding.DisplayInstrument, driven by FundTypeOverride).
func fundHoldingInstrument(detail model.FundDetail) model.InstrumentType {
	if detail.IsMoneyMarket() {
		return model.InstrumentCash
	}
	return model.InstrumentETFHolding
}

// splitOtherHoldings implements the subtractive currency decomposition of
// spec §4.5 step 3: residual weight per currency c is
// R_c = max(0, W_c - T_c), skipped below the 1e-3 floor.
func (r *Resolver) splitOtherHoldings(pos model.RawPosition, detail model.FundDetail, other model.HoldingEntry, topWeight map[string]float64) []model.EffectiveHolding {
	if len(detail.CurrencyAlloc) == 0 {
		return []model.EffectiveHolding{{
			Name:             otherHoldingsName + " — " + pos.Name,
			Value:            pos.Value * other.Weight,
			Currency:         "Mixed",
			Country:          coalesce(other.Country, "Mixed"),
			Sector:           sector.Normalize(other.Sector),
			OriginInstrument: fundHoldingInstrument(detail),
			SourceFundName:   pos.Name,
			SectorProvenance: model.ProvenanceFundDetail,
			FundTypeOverride: detail.FundType,
		}}
	}

	var holdings []model.EffectiveHolding
	for _, alloc := range detail.CurrencyAlloc {
		residual := alloc.Weight - topWeight[alloc.Bucket]
		if residual < 0 {
			residual = 0
		}
		if residual < currencyResidualFloor {
			continue
		}
		holdings = append(holdings, model.EffectiveHolding{
			Name:             otherHoldingsName + " — " + pos.Name,
			Value:            pos.Value * residual,
			Currency:         alloc.Bucket,
			Country:          coalesce(other.Country, "Mixed"),
			Sector:           sector.Normalize(other.Sector),
			OriginInstrument: fundHoldingInstrument(detail),
			SourceFundName:   pos.Name,
			SectorProvenance: model.ProvenanceFundDetail,
			FundTypeOverride: detail.FundType,
		})
	}
	return holdings
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (r *Resolver) lookupFundDetail(ctx context.Context, identifier string) *model.FundDetail {
	if identifier == "" {
		return nil
	}
	for _, src := range r.fundSources {
		detail, err := src.Resolve(ctx, identifier)
		if err == nil && detail != nil {
			return detail
		}
	}
	return nil
}

// MergeDuplicates folds EffectiveHoldings that share a normalised position
// name into one, keeping the higher-provenance sector (spec §4.5 "Conflict
// resolution"). It is applied by the aggregator's positions dimension, not
// here, since only that dimension groups by name; this helper exists for
// callers that want a pre-merged flat list.
func MergeDuplicates(holdings []model.EffectiveHolding) []model.EffectiveHolding {
	type mergedKey struct {
		name string
	}
	merged := map[mergedKey]*model.EffectiveHolding{}
	var order []mergedKey

	for _, h := range holdings {
		key := mergedKey{name: normalizedMergeName(h)}
		existing, ok := merged[key]
		if !ok {
			copy := h
			merged[key] = &copy
			order = append(order, key)
			continue
		}
		existing.Value += h.Value
		if h.SectorProvenance.Rank() > existing.SectorProvenance.Rank() {
			existing.Sector = h.Sector
			existing.SectorProvenance = h.SectorProvenance
		}
	}

	result := make([]model.EffectiveHolding, 0, len(order))
	for _, key := range order {
		result = append(result, *merged[key])
	}
	return result
}

func normalizedMergeName(h model.EffectiveHolding) string {
	if h.OriginInstrument == model.InstrumentCash {
		return "cash"
	}
	return h.Name
}
