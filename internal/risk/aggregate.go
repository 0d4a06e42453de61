// Package risk computes the five (plus positions) ranked risk tables from a
// flat list of EffectiveHoldings (spec §4.6).
package risk

import (
	"sort"
	"strings"

	"github.com/cbram/clusterrisk/internal/model"
	"github.com/cbram/clusterrisk/internal/sector"
	"gonum.org/v1/gonum/stat"
)

const (
	DimensionAssetClass       = "asset_class"
	DimensionSector           = "sector"
	DimensionCurrencyStrict   = "currency_strict"
	DimensionCurrencyLoose    = "currency_permissive"
	DimensionCountry          = "country"
	DimensionPositions        = "positions"
)

var excludedSectorsNonPosition = map[string]bool{
	sector.Diversified: true,
	sector.ETF:         true,
}

var legalSuffixes = []string{
	"class a", "class b", "class c",
	"inc.", "corp.", "ltd.", "co.",
	"inc", "corp", "ltd", "plc", "ag", "se", "sa", "co",
}

// Aggregate computes all six dimensions for one analysis run, classifying
// each row against its dimension's risk thresholds (spec §4.6, mirroring
// the original's per-row "> high% / > medium%" table highlighting).
func Aggregate(holdings []model.EffectiveHolding, thresholds Thresholds) map[string]model.RiskTable {
	tables := map[string]model.RiskTable{
		DimensionAssetClass:     assetClassTable(holdings),
		DimensionSector:         sectorTable(holdings),
		DimensionCurrencyStrict: currencyTable(holdings, true),
		DimensionCurrencyLoose:  currencyTable(holdings, false),
		DimensionCountry:        countryTable(holdings),
		DimensionPositions:      positionsTable(holdings),
	}
	for dim, table := range tables {
		tables[dim] = classifyTable(dim, table, thresholds)
	}
	return tables
}

// classifyTable labels each row with its risk level and derives the
// table-level summary stats the original displayed alongside the table:
// the count of rows over the high threshold and the top-5 concentration.
func classifyTable(dimension string, table model.RiskTable, thresholds Thresholds) model.RiskTable {
	high := thresholds.High(dimension)
	percents := make([]float64, len(table.Rows))
	for i, row := range table.Rows {
		row.RiskLevel = thresholds.Level(dimension, row.Percent)
		table.Rows[i] = row
		percents[i] = row.Percent
		if row.Percent > high {
			table.HighRiskCount++
		}
	}
	top := table.Rows
	if len(top) > 5 {
		top = top[:5]
	}
	for _, row := range top {
		table.Top5ConcentrationPct += row.Percent
	}
	table.SharePercentStdDev = sharePercentStdDev(percents)
	return table
}

func assetClassTable(holdings []model.EffectiveHolding) model.RiskTable {
	buckets := map[string]float64{}
	for _, h := range holdings {
		buckets[string(h.DisplayInstrument())] += h.Value
	}
	return buildTable(DimensionAssetClass, buckets, total(holdings))
}

func sectorTable(holdings []model.EffectiveHolding) model.RiskTable {
	buckets := map[string]float64{}
	var included float64
	for _, h := range holdings {
		s := sector.Normalize(h.Sector)
		if excludedSectorsNonPosition[s] {
			continue
		}
		buckets[s] += h.Value
		included += h.Value
	}
	return buildTable(DimensionSector, buckets, included)
}

func currencyTable(holdings []model.EffectiveHolding, strict bool) model.RiskTable {
	buckets := map[string]float64{}
	var denom float64
	dim := DimensionCurrencyLoose
	if strict {
		dim = DimensionCurrencyStrict
	}
	for _, h := range holdings {
		if h.OriginInstrument == model.InstrumentCommodity {
			if strict {
				continue
			}
			buckets["Commodity (no currency risk)"] += h.Value
			denom += h.Value
			continue
		}
		buckets[h.Currency] += h.Value
		denom += h.Value
	}
	return buildTable(dim, buckets, denom)
}

func countryTable(holdings []model.EffectiveHolding) model.RiskTable {
	buckets := map[string]float64{}
	var included float64
	for _, h := range holdings {
		s := sector.Normalize(h.Sector)
		if excludedSectorsNonPosition[s] {
			continue
		}
		country := resolveCountry(h)
		buckets[country] += h.Value
		included += h.Value
	}
	return buildTable(DimensionCountry, buckets, included)
}

// resolveCountry implements the priority chain of spec §4.6 #5.
func resolveCountry(h model.EffectiveHolding) string {
	if h.Country != "" {
		return h.Country
	}
	if h.OriginInstrument == model.InstrumentCash {
		if name, ok := sector.CountryForCurrency(h.Currency); ok {
			return name
		}
	}
	if len(h.Identifier) >= 2 {
		if name, ok := sector.CountryNameForCode(h.Identifier[:2]); ok {
			return name
		}
	}
	if name, ok := sector.CountryForCurrency(h.Currency); ok {
		return name
	}
	return "Unknown"
}

type positionAgg struct {
	displayName string
	tradeSymbol string
	value       float64
	sector      string
	sectorRank  int
	instType    model.InstrumentType
	sourceFunds map[string]bool
}

func positionsTable(holdings []model.EffectiveHolding) model.RiskTable {
	agg := map[string]*positionAgg{}
	var order []string
	for _, h := range holdings {
		key := normalizePositionName(h.Name)
		if h.OriginInstrument == model.InstrumentCash {
			key = "cash"
		}
		entry, ok := agg[key]
		if !ok {
			name := h.Name
			if key == "cash" {
				name = "Cash"
			}
			entry = &positionAgg{
				displayName: name,
				tradeSymbol: h.TradeSymbol,
				instType:    h.DisplayInstrument(),
				sourceFunds: map[string]bool{},
			}
			agg[key] = entry
			order = append(order, key)
		}
		entry.value += h.Value
		if entry.tradeSymbol == "" {
			entry.tradeSymbol = h.TradeSymbol
		}
		if h.SourceFundName != "" {
			entry.sourceFunds[h.SourceFundName] = true
		}
		if h.SectorProvenance.Rank() >= entry.sectorRank {
			entry.sector = sector.Normalize(h.Sector)
			entry.sectorRank = h.SectorProvenance.Rank()
		}
	}

	buckets := map[string]float64{}
	names := map[string]string{}
	for _, key := range order {
		entry := agg[key]
		buckets[key] = entry.value
		names[key] = entry.displayName
	}
	table := buildTable(DimensionPositions, buckets, total(holdings))

	for i, row := range table.Rows {
		if display, ok := names[row.Bucket]; ok {
			table.Rows[i].Bucket = display
		}
	}
	return table
}

// normalizePositionName folds case/whitespace/legal-suffix variation so the
// same entity held directly and via a fund collapses into one bucket.
func normalizePositionName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.Join(strings.Fields(n), " ")
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(n, " "+suffix) {
			n = strings.TrimSuffix(n, " "+suffix)
			n = strings.TrimSpace(n)
			break
		}
	}
	return n
}

func total(holdings []model.EffectiveHolding) float64 {
	var t float64
	for _, h := range holdings {
		t += h.Value
	}
	return t
}

// buildTable ranks buckets by value descending (bucket-name ascending
// tiebreak) and computes percent-of-denom (0 when denom is 0). Risk
// classification is filled in afterward by classifyTable, which needs the
// full row set to derive table-level stats.
func buildTable(dimension string, buckets map[string]float64, denom float64) model.RiskTable {
	rows := make([]model.RiskRow, 0, len(buckets))
	for bucket, value := range buckets {
		var pct float64
		if denom != 0 {
			pct = value / denom * 100
		}
		rows = append(rows, model.RiskRow{Bucket: bucket, Value: value, Percent: pct})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Bucket < rows[j].Bucket
	})

	return model.RiskTable{Dimension: dimension, Rows: rows}
}

// sharePercentStdDev measures how unevenly concentrated a dimension's
// buckets are: a single dominant bucket drives a high standard deviation,
// an evenly-spread table a low one. stat.StdDev needs at least two samples
// to be defined.
func sharePercentStdDev(percents []float64) float64 {
	if len(percents) < 2 {
		return 0
	}
	return stat.StdDev(percents, nil)
}
