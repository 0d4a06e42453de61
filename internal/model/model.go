// Package model defines the fixed record types that flow through the
// ClusterRisk pipeline: Ingestion -> Resolver -> Aggregator -> History.
//
// Each stage has one record type; column names and serialisation formats
// appear only at the store/wire boundary (funddetail, history, server
// packages), never inside these structs.
package model

import "time"

// InstrumentType classifies a RawPosition / EffectiveHolding by asset kind.
type InstrumentType string

const (
	InstrumentCash       InstrumentType = "Cash"
	InstrumentFund       InstrumentType = "Fund"
	InstrumentStock      InstrumentType = "Stock"
	InstrumentBond       InstrumentType = "Bond"
	InstrumentCommodity  InstrumentType = "Commodity"
	InstrumentETFHolding InstrumentType = "ETF_Holding"
)

// SectorProvenance ranks how authoritative a resolved sector is. Higher wins
// when two EffectiveHoldings referring to the same position are merged.
type SectorProvenance string

const (
	ProvenanceDeclared        SectorProvenance = "declared"
	ProvenanceIdentifierLookup SectorProvenance = "identifier-lookup"
	ProvenanceFundDetail      SectorProvenance = "fund-detail"
	ProvenanceCache           SectorProvenance = "cache"
	ProvenanceNone            SectorProvenance = "none"
)

// Rank returns the numeric precedence used to resolve sector conflicts
// across duplicate position names (spec: declared=2, identifier-lookup/
// fund-detail=1, fund-derived/cache/none=0).
func (p SectorProvenance) Rank() int {
	switch p {
	case ProvenanceDeclared:
		return 2
	case ProvenanceIdentifierLookup, ProvenanceFundDetail:
		return 1
	default:
		return 0
	}
}

// RawPosition is one row of a parsed portfolio snapshot.
type RawPosition struct {
	Name           string
	Identifier     string // 12-char alphanumeric security identifier (ISIN), optional
	TradeSymbol    string
	Type           InstrumentType
	Currency       string
	Quantity       float64
	Value          float64
	DeclaredSector string
	Note           string
}

// AllocationEntry is a single (bucket, weight) pair inside a FundDetail's
// country/sector/currency allocation tables. Weight is a fraction in [0,1].
type AllocationEntry struct {
	Bucket string
	Weight float64
}

// HoldingEntry is one row of a FundDetail's top-holdings list.
type HoldingEntry struct {
	Name       string
	Weight     float64 // fraction in [0,1]
	Currency   string
	Sector     string
	Country    string
	Identifier string
}

// IsOtherHoldings reports whether this entry is the synthetic residual row.
func (h HoldingEntry) IsOtherHoldings() bool {
	return h.Name == "Other Holdings"
}

// FundDetail is a materialised, on-disk record describing a fund's
// composition, as produced by the scraper and consumed by the resolver.
type FundDetail struct {
	Identifier       string // primary ISIN
	DisplayName      string
	FundType         string // Stock | Bond | Money Market | Commodity
	IndexName        string
	BaseCurrency     string
	ExpenseRatio     float64
	LastUpdated      time.Time
	ProxyIdentifier  string
	SourceTag        string
	CountryAlloc     []AllocationEntry
	SectorAlloc      []AllocationEntry
	CurrencyAlloc    []AllocationEntry
	TopHoldings      []HoldingEntry
}

// ManualSourceTag marks a FundDetail as hand-curated rather than
// scraper-written; the batch refresh job skips these records so a manual
// entry is never silently overwritten by the next scheduled run.
const ManualSourceTag = "manual"

// IsManual reports whether this record was entered by hand rather than
// produced by the scraper.
func (f FundDetail) IsManual() bool {
	return f.SourceTag == ManualSourceTag
}

// IsMoneyMarket reports whether this fund's holdings should classify as Cash
// in the asset-class dimension (spec 4.6 #1).
func (f FundDetail) IsMoneyMarket() bool {
	return f.FundType == "Money Market"
}

// EffectiveHolding is one flattened, resolved holding produced by the
// look-through resolver and consumed exactly once by the aggregator.
type EffectiveHolding struct {
	Name              string
	Value             float64
	Currency          string
	Country           string
	Sector            string
	OriginInstrument  InstrumentType
	SourceFundName    string // empty for direct positions
	SectorProvenance  SectorProvenance
	FundTypeOverride  string // e.g. "Money Market"
	Identifier        string
	TradeSymbol       string
}

// DisplayInstrument applies the two asset-class re-mappings from spec 4.6 #1:
// ETF_Holding -> Stock, fund-type-override Money Market -> Cash.
func (e EffectiveHolding) DisplayInstrument() InstrumentType {
	if e.FundTypeOverride == "Money Market" {
		return InstrumentCash
	}
	if e.OriginInstrument == InstrumentETFHolding {
		return InstrumentStock
	}
	return e.OriginInstrument
}

// RiskRow is one (bucket, value, percent) triple of a RiskTable, classified
// against its dimension's risk thresholds.
type RiskRow struct {
	Bucket    string
	Value     float64
	Percent   float64
	RiskLevel string // Low | Moderate | High, per configured thresholds
}

// RiskTable is the ranked output of one aggregation dimension.
type RiskTable struct {
	Dimension            string
	Rows                 []RiskRow
	HighRiskCount        int     // rows whose Percent exceeds the dimension's high threshold
	Top5ConcentrationPct float64 // sum of the five largest rows' Percent
	SharePercentStdDev   float64 // dispersion of row Percent values across the table
}

// AnalysisRecord is one immutable, persisted analysis run.
type AnalysisRecord struct {
	ID             int64
	Timestamp      time.Time
	TotalValue     float64
	TotalPositions int
	ETFCount       int
	StockCount     int
	Tables         map[string]RiskTable
}

// TickerSectorSource tags the origin of a cached sector lookup.
type TickerSectorSource string

const (
	SourcePrimaryAPI   TickerSectorSource = "primary-api"
	SourceSecondaryAPI TickerSectorSource = "secondary-api"
	SourceManual       TickerSectorSource = "manual"
	SourceUnknown      TickerSectorSource = "unknown"
)

// TickerSectorEntry is one cached symbol -> sector mapping.
type TickerSectorEntry struct {
	Symbol    string
	Sector    string
	Source    TickerSectorSource
	UpdatedAt time.Time
}
