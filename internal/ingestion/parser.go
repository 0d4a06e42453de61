// Package ingestion parses a brokerage-portfolio snapshot export into a list
// of RawPositions (spec §4.1).
package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cbram/clusterrisk/internal/diagnostics"
	"github.com/cbram/clusterrisk/internal/model"
	"github.com/cbram/clusterrisk/internal/sector"
)

// sectorColumns lists, in priority order, the header names that carry a
// declared sector for a row (spec §6).
var sectorColumns = []string{
	"Branchen (GICS, Sektoren) (Ebene 1)",
	"Branchen (GICS, Sektoren)",
	"Branche",
	"Sektor",
	"Sector",
}

// Result is the output of a successful ingestion run.
type Result struct {
	Positions      []model.RawPosition
	TotalValue     float64
	TotalPositions int
	FundCount      int
	StockCount     int
}

// Parse reads a semicolon-delimited portfolio snapshot and returns the
// parsed positions plus aggregate counts. Diagnostics collects per-row
// parse failures; the run only fails with ErrIngestionEmpty when zero rows
// parsed successfully.
func Parse(r io.Reader, diag *diagnostics.Buffer) (Result, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("ingestion: failed to read header: %w", err)
	}
	col := columnIndex(header)

	var positions []model.RawPosition
	rowIdx := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowIdx++
		if err != nil {
			diag.WarnRow("Ingestion", fmt.Sprintf("malformed row: %v", err), rowIdx)
			continue
		}

		pos, skip, reason := parseRow(record, col)
		if skip {
			if reason != "" {
				diag.WarnRow("Ingestion", reason, rowIdx)
			}
			continue
		}
		positions = append(positions, pos)
	}

	if len(positions) == 0 {
		return Result{}, ErrIngestionEmpty
	}

	result := Result{Positions: positions, TotalPositions: len(positions)}
	for _, p := range positions {
		result.TotalValue += p.Value
		switch p.Type {
		case model.InstrumentFund:
			result.FundCount++
		case model.InstrumentStock:
			result.StockCount++
		}
	}
	return result, nil
}

type columns struct {
	quantity int
	name     int
	symbol   int
	price    int
	value    int
	isin     int
	note     int
	sector   map[string]int
}

func columnIndex(header []string) columns {
	c := columns{quantity: -1, name: -1, symbol: -1, price: -1, value: -1, isin: -1, note: -1, sector: map[string]int{}}
	for i, h := range header {
		switch h {
		case "Bestand":
			c.quantity = i
		case "Name":
			c.name = i
		case "Symbol":
			c.symbol = i
		case "Kurs":
			c.price = i
		case "Marktwert":
			c.value = i
		case "ISIN":
			c.isin = i
		case "Notiz":
			c.note = i
		}
		for _, sc := range sectorColumns {
			if h == sc {
				c.sector[sc] = i
			}
		}
	}
	return c
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseRow converts one CSV record into a RawPosition. skip is true when the
// row is a totals/summary row or fails to parse a required numeric field;
// reason carries a diagnostic message in that case (empty for silent skips
// such as a blank "Summe" row).
func parseRow(record []string, col columns) (pos model.RawPosition, skip bool, reason string) {
	name := field(record, col.name)
	if name == "" || strings.Contains(name, "Summe") {
		return model.RawPosition{}, true, ""
	}

	quantityRaw := field(record, col.quantity)
	note := field(record, col.note)
	symbol := field(record, col.symbol)

	instType := classifyRow(name, symbol, quantityRaw, note)

	valueRaw := field(record, col.value)
	value, err := parseEuropeanDecimal(valueRaw)
	if err != nil {
		return model.RawPosition{}, true, fmt.Sprintf("unparsable value %q for %q: %v", valueRaw, name, err)
	}

	if instType == model.InstrumentCash {
		return model.RawPosition{
			Name:     name,
			Type:     model.InstrumentCash,
			Currency: "EUR",
			Value:    value,
			Note:     note,
		}, false, ""
	}

	quantity, err := parseEuropeanDecimal(quantityRaw)
	if err != nil {
		return model.RawPosition{}, true, fmt.Sprintf("unparsable quantity %q for %q: %v", quantityRaw, name, err)
	}

	priceRaw := field(record, col.price)
	currency := extractCurrency(priceRaw)

	declaredSector := ""
	for _, sc := range sectorColumns {
		idx, ok := col.sector[sc]
		if !ok {
			continue
		}
		v := field(record, idx)
		if v != "" {
			declaredSector = sector.Normalize(v)
			break
		}
	}

	return model.RawPosition{
		Name:           name,
		Identifier:     field(record, col.isin),
		TradeSymbol:    symbol,
		Type:           instType,
		Currency:       currency,
		Quantity:       quantity,
		Value:          value,
		DeclaredSector: declaredSector,
		Note:           note,
	}, false, ""
}

// extractCurrency pulls a three-letter ISO-4217 prefix off a price field
// such as "USD 269,48"; absence implies the base currency, EUR (spec §4.1).
func extractCurrency(price string) string {
	parts := strings.SplitN(price, " ", 2)
	if len(parts) == 2 {
		code := strings.TrimSpace(parts[0])
		if len(code) == 3 && code == strings.ToUpper(code) {
			return code
		}
	}
	return "EUR"
}

// parseEuropeanDecimal converts "2.279,86" (dot thousands, comma decimal)
// into 2279.86, tolerating quoted/unquoted empty fields.
func parseEuropeanDecimal(s string) (float64, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if s == "" {
		return 0, fmt.Errorf("empty numeric field")
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
