package scraper

import (
	"sort"

	"github.com/cbram/clusterrisk/internal/model"
	"github.com/cbram/clusterrisk/internal/sector"
)

// otherCurrencyThreshold folds any single currency bucket (EUR included)
// below this weight into a synthetic "Other" bucket (spec §4.2 step 6).
const otherCurrencyThreshold = 0.001

// DeriveCurrencyAllocation converts a country allocation into a currency
// allocation: Eurozone countries fold into one EUR bucket, every other
// country maps to its currency via the fixed table, and currencies below
// the 0.1% threshold are folded into "Other".
func DeriveCurrencyAllocation(countryAlloc []model.AllocationEntry) []model.AllocationEntry {
	buckets := map[string]float64{}
	for _, c := range countryAlloc {
		code := countryNameToCode(c.Bucket)
		if code == "" {
			buckets["Other"] += c.Weight
			continue
		}
		currency, ok := sector.CurrencyForCountry(code)
		if !ok {
			buckets["Other"] += c.Weight
			continue
		}
		buckets[currency] += c.Weight
	}

	entries := make([]model.AllocationEntry, 0, len(buckets))
	var otherWeight float64
	for bucket, weight := range buckets {
		if bucket != "Other" && weight < otherCurrencyThreshold {
			otherWeight += weight
			continue
		}
		if bucket == "Other" {
			otherWeight += weight
			continue
		}
		entries = append(entries, model.AllocationEntry{Bucket: bucket, Weight: weight})
	}
	if otherWeight > 0 {
		entries = append(entries, model.AllocationEntry{Bucket: "Other", Weight: otherWeight})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Weight > entries[j].Weight })
	return entries
}

// countryNameToCode is the reverse lookup the scraper needs to go from a
// display name (what the country-allocation fragment carries) back to an
// ISO-3166-alpha-2 code for the currency table.
var nameToCode map[string]string

func init() {
	nameToCode = map[string]string{}
	for _, code := range []string{
		"US", "GB", "JP", "CH", "CA", "AU", "CN", "HK", "SG", "SE", "NO", "DK",
		"KR", "IN", "BR", "MX", "ZA", "TW", "IL", "PL", "NZ", "TH", "ID", "MY",
		"PH", "DE", "FR", "IT", "ES", "NL", "BE", "AT", "IE", "FI", "PT", "GR", "LU",
	} {
		if name, ok := sector.CountryNameForCode(code); ok {
			nameToCode[name] = code
		}
	}
}

func countryNameToCode(name string) string {
	return nameToCode[name]
}
