package ingestion

import (
	"strings"

	"github.com/cbram/clusterrisk/internal/model"
)

// cashNoteMarkers: a note field containing any of these (case-insensitive)
// forces Cash classification regardless of the quantity/name fields
// (spec §4.1 rule 1).
var cashNoteMarkers = []string{"CASH", "GELDMARKT", "TAGESGELD"}

// cashNameMarkers: a position name containing either of these (case
// insensitive) is treated as a cash account whatever the quantity field
// holds; an empty quantity alone also means Cash (spec §4.1 rule 2).
var cashNameMarkers = []string{"konto", "cash"}

// moneyMarketKeywords classify a security as Cash even though it has a
// quantity, because it is a money-market / overnight-liquidity vehicle
// (spec §4.1 rule 3).
var moneyMarketKeywords = []string{
	"MONEY MARKET", "GELDMARKT", "OVERNIGHT", "LIQUIDITY",
	"LIQUIDITÄT", "TAGESGELD", "CASH FUND", "XEON",
}

// fundKeywords and fundIndexNames together identify a Fund position.
var fundKeywords = []string{
	"ETF", "UCITS", "INDEX FUND", "TRACKER",
	"ISHARES", "ISHSIII", "ISHS", "EUNL",
	"VANGUARD", "XTRACKERS", "LYXOR", "AMUNDI",
	"SPDR", "INVESCO", "WISDOMTREE", "FRANKLIN",
}
var fundIndexNames = []string{
	"MSCI WORLD", "MSCI EM", "MSCI EUROPE",
	"S&P 500", "NASDAQ", "DAX", "STOXX",
}

var commodityKeywords = []string{"GOLD", "SILVER", "COMMODITY"}
var bondKeywords = []string{"BOND", "ANLEIHE"}

// classifyRow implements the ordered classification described in spec §4.1.
func classifyRow(name, symbol, quantityRaw, note string) model.InstrumentType {
	noteUpper := strings.ToUpper(strings.TrimSpace(note))
	for _, marker := range cashNoteMarkers {
		if strings.Contains(noteUpper, marker) {
			return model.InstrumentCash
		}
	}

	nameLower := strings.ToLower(name)
	if strings.TrimSpace(quantityRaw) == "" {
		return model.InstrumentCash
	}
	for _, marker := range cashNameMarkers {
		if strings.Contains(nameLower, marker) {
			return model.InstrumentCash
		}
	}

	nameUpper := strings.ToUpper(name)
	symbolUpper := strings.ToUpper(symbol)

	for _, kw := range moneyMarketKeywords {
		if strings.Contains(nameUpper, kw) {
			return model.InstrumentCash
		}
	}
	for _, kw := range fundKeywords {
		if strings.Contains(nameUpper, kw) || strings.Contains(symbolUpper, kw) {
			return model.InstrumentFund
		}
	}
	for _, idx := range fundIndexNames {
		if strings.Contains(nameUpper, idx) {
			return model.InstrumentFund
		}
	}
	for _, kw := range commodityKeywords {
		if strings.Contains(nameUpper, kw) {
			return model.InstrumentCommodity
		}
	}
	for _, kw := range bondKeywords {
		if strings.Contains(nameUpper, kw) {
			return model.InstrumentBond
		}
	}
	return model.InstrumentStock
}
