package risk

import (
	"testing"

	"github.com/cbram/clusterrisk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleHoldings() []model.EffectiveHolding {
	return []model.EffectiveHolding{
		{Name: "Cash", Value: 1000, Currency: "EUR", OriginInstrument: model.InstrumentCash, Sector: "Cash"},
		{Name: "Apple Inc", Value: 2000, Currency: "USD", Country: "United States", Identifier: "US0378331005", OriginInstrument: model.InstrumentStock, Sector: "Technology", SectorProvenance: model.ProvenanceDeclared},
		{Name: "Gold ETC", Value: 500, Currency: "USD", OriginInstrument: model.InstrumentCommodity, Sector: "Commodity"},
	}
}

func TestAggregate_AssetClassAndSector(t *testing.T) {
	tables := Aggregate(sampleHoldings(), DefaultThresholds())

	assetClass := tables[DimensionAssetClass]
	require.Len(t, assetClass.Rows, 3)
	assert.Equal(t, "Stock", assetClass.Rows[0].Bucket)
	assert.InDelta(t, 2000.0/3500.0*100, assetClass.Rows[0].Percent, 0.001)

	sectorTable := tables[DimensionSector]
	for _, r := range sectorTable.Rows {
		assert.NotEqual(t, "Diversified", r.Bucket)
		assert.NotEqual(t, "ETF", r.Bucket)
	}
}

func TestAggregate_CurrencyStrictExcludesCommodity(t *testing.T) {
	tables := Aggregate(sampleHoldings(), DefaultThresholds())
	strict := tables[DimensionCurrencyStrict]
	var sum float64
	for _, r := range strict.Rows {
		assert.NotEqual(t, "Commodity (no currency risk)", r.Bucket)
		sum += r.Percent
	}
	assert.InDelta(t, 100, sum, 0.01)

	loose := tables[DimensionCurrencyLoose]
	found := false
	for _, r := range loose.Rows {
		if r.Bucket == "Commodity (no currency risk)" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAggregate_DivisionByZeroYieldsZeroPercent(t *testing.T) {
	holdings := []model.EffectiveHolding{
		{Name: "Gold", Value: 100, OriginInstrument: model.InstrumentCommodity, Sector: "Commodity"},
	}
	tables := Aggregate(holdings, DefaultThresholds())
	strict := tables[DimensionCurrencyStrict]
	require.Len(t, strict.Rows, 0)
}

func TestAggregate_ZeroTotalValueYieldsZeroPercentNotPanic(t *testing.T) {
	holdings := []model.EffectiveHolding{
		{Name: "Worthless Corp", Value: 0, Currency: "USD", OriginInstrument: model.InstrumentStock, Sector: "Technology"},
	}
	tables := Aggregate(holdings, DefaultThresholds())
	assetClass := tables[DimensionAssetClass]
	require.Len(t, assetClass.Rows, 1)
	assert.Equal(t, 0.0, assetClass.Rows[0].Percent)
}

func TestNormalizePositionName_StripsLegalSuffix(t *testing.T) {
	assert.Equal(t, "apple", normalizePositionName("Apple Inc."))
	assert.Equal(t, "apple", normalizePositionName("  Apple   Inc  "))
}

func TestPositionsTable_ConsolidatesCash(t *testing.T) {
	tables := Aggregate(sampleHoldings(), DefaultThresholds())
	positions := tables[DimensionPositions]
	var cashRows int
	for _, r := range positions.Rows {
		if r.Bucket == "Cash" {
			cashRows++
		}
	}
	assert.Equal(t, 1, cashRows)
}

func TestAggregate_ClassifiesRowsAgainstDimensionThresholds(t *testing.T) {
	holdings := []model.EffectiveHolding{
		{Name: "Apple Inc", Value: 9500, Currency: "USD", Country: "United States", OriginInstrument: model.InstrumentStock, Sector: "Technology"},
		{Name: "Small Co", Value: 500, Currency: "USD", Country: "United States", OriginInstrument: model.InstrumentStock, Sector: "Industrials"},
	}
	tables := Aggregate(holdings, DefaultThresholds())

	country := tables[DimensionCountry]
	require.Len(t, country.Rows, 1)
	assert.Equal(t, "High", country.Rows[0].RiskLevel)
	assert.Equal(t, 1, country.HighRiskCount)

	positions := tables[DimensionPositions]
	var high, low int
	for _, r := range positions.Rows {
		switch r.RiskLevel {
		case "High":
			high++
		case "Low":
			low++
		}
	}
	assert.Equal(t, 1, high)
	assert.Equal(t, 1, low)
}

func TestAggregate_Top5ConcentrationSumsLargestRows(t *testing.T) {
	holdings := []model.EffectiveHolding{
		{Name: "A", Value: 10, Sector: "Tech", OriginInstrument: model.InstrumentStock},
		{Name: "B", Value: 20, Sector: "Tech", OriginInstrument: model.InstrumentStock},
		{Name: "C", Value: 30, Sector: "Tech", OriginInstrument: model.InstrumentStock},
	}
	tables := Aggregate(holdings, DefaultThresholds())
	positions := tables[DimensionPositions]
	assert.InDelta(t, 100, positions.Top5ConcentrationPct, 0.01)
}
