package ingestion

import (
	"strings"
	"testing"

	"github.com/cbram/clusterrisk/internal/diagnostics"
	"github.com/cbram/clusterrisk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSnapshot = "" +
	"Name;Symbol;ISIN;Bestand;Kurs;Marktwert;Notiz;Branche\n" +
	"Verrechnungskonto EUR;;;;;1.234,56;CASH;\n" +
	"iShares Core MSCI World UCITS ETF;EUNL;IE00B4L5Y983;120;USD 89,50;9.650,00;;\n" +
	"Apple Inc;AAPL;US0378331005;10;USD 192,30;1.923,00;;Informationstechnologie\n" +
	"Summe;;;;;12.807,56;;\n"

func TestParse_ClassifiesAndAggregates(t *testing.T) {
	diag := diagnostics.New()
	result, err := Parse(strings.NewReader(sampleSnapshot), diag)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalPositions)
	assert.Equal(t, 1, result.FundCount)
	assert.Equal(t, 1, result.StockCount)
	assert.InDelta(t, 1234.56+9650.00+1923.00, result.TotalValue, 0.001)

	var cash, fund, stock model.RawPosition
	for _, p := range result.Positions {
		switch p.Type {
		case model.InstrumentCash:
			cash = p
		case model.InstrumentFund:
			fund = p
		case model.InstrumentStock:
			stock = p
		}
	}

	assert.Equal(t, "EUR", cash.Currency)
	assert.Equal(t, "USD", fund.Currency)
	assert.Equal(t, "USD", stock.Currency)
	assert.Equal(t, "Technology", stock.DeclaredSector)
}

func TestParse_EmptySnapshotReturnsErrIngestionEmpty(t *testing.T) {
	diag := diagnostics.New()
	snapshot := "Name;Symbol;ISIN;Bestand;Kurs;Marktwert;Notiz;Branche\n" +
		"Summe;;;;;0,00;;\n"
	_, err := Parse(strings.NewReader(snapshot), diag)
	assert.ErrorIs(t, err, ErrIngestionEmpty)
}

func TestParse_MalformedRowIsSkippedNotFatal(t *testing.T) {
	diag := diagnostics.New()
	snapshot := "Name;Symbol;ISIN;Bestand;Kurs;Marktwert;Notiz;Branche\n" +
		"Broken Row;;;10;USD 1,00;not-a-number;;\n" +
		"Apple Inc;AAPL;US0378331005;10;USD 192,30;1.923,00;;Informationstechnologie\n"
	result, err := Parse(strings.NewReader(snapshot), diag)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalPositions)

	entries := diag.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, diagnostics.Warning, entries[0].Level)
	assert.Equal(t, 1, entries[0].Row)
}

func TestExtractCurrency(t *testing.T) {
	assert.Equal(t, "USD", extractCurrency("USD 192,30"))
	assert.Equal(t, "EUR", extractCurrency("192,30"))
	assert.Equal(t, "EUR", extractCurrency(""))
}

func TestParseEuropeanDecimal(t *testing.T) {
	v, err := parseEuropeanDecimal("2.279,86")
	require.NoError(t, err)
	assert.InDelta(t, 2279.86, v, 0.001)

	_, err = parseEuropeanDecimal("")
	assert.Error(t, err)
}
