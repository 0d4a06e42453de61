package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cbram/clusterrisk/internal/model"
	"github.com/cbram/clusterrisk/internal/sector"
)

// otherHoldingsEpsilon absorbs floating-point noise so a fund whose
// holdings sum to 100% never gets a synthetic residual row: the "Other
// Holdings" row is added only when the residual exceeds 10⁻³ (spec §8
// round-trip/idempotence law).
const otherHoldingsEpsilon = 1e-3

// holdingLinkISIN extracts the 12-character security identifier from a
// top-holdings row's link, e.g. href="/stock-profiles/US0378331005".
var holdingLinkISIN = regexp.MustCompile(`/stock-profiles/([A-Z0-9]{12})`)

// parseProfileHTML extracts a fund's metadata from its profile page,
// preferring data-testid selectors and falling back to a generic
// definition-table scan for markup variance between fund families.
func parseProfileHTML(html string) (model.FundDetail, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.FundDetail{}, err
	}

	detail := model.FundDetail{}
	detail.DisplayName = firstNonEmpty(
		doc.Find(`[data-testid="fund-name"]`).First().Text(),
		doc.Find("h1").First().Text(),
	)
	detail.FundType = firstNonEmpty(
		doc.Find(`[data-testid="fund-type"]`).First().Text(),
		lookupDefinitionTable(doc, "Asset Class", "Fund Type"),
	)
	detail.IndexName = firstNonEmpty(
		doc.Find(`[data-testid="index-name"]`).First().Text(),
		lookupDefinitionTable(doc, "Index", "Benchmark Index"),
	)
	detail.BaseCurrency = firstNonEmpty(
		doc.Find(`[data-testid="fund-currency"]`).First().Text(),
		lookupDefinitionTable(doc, "Fund Currency", "Currency"),
	)
	if ter := firstNonEmpty(
		doc.Find(`[data-testid="ter"]`).First().Text(),
		lookupDefinitionTable(doc, "Total Expense Ratio (p.a.)", "TER"),
	); ter != "" {
		detail.ExpenseRatio, _ = strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(ter), "%"), 64)
	}

	detail.TopHoldings = parseHoldingsTable(doc)

	return detail, nil
}

func lookupDefinitionTable(doc *goquery.Document, labels ...string) string {
	var found string
	doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label := strings.TrimSpace(row.Find("th, td:first-child").First().Text())
		for _, want := range labels {
			if strings.EqualFold(label, want) {
				found = strings.TrimSpace(row.Find("td").Last().Text())
				return false
			}
		}
		return true
	})
	return found
}

// parseHoldingsTable reads the generic "Top 10 holdings" table, falling
// back to empty when the page carries none (money-market/cash funds often
// don't). The identifier, when the holding's name cell links to a
// stock-profile page, feeds enrichHoldings' country/currency lookup (spec
// §4.2 step 8).
func parseHoldingsTable(doc *goquery.Document) []model.HoldingEntry {
	var holdings []model.HoldingEntry
	doc.Find(`[data-testid="top-holdings"] tbody tr, table.top-holdings tbody tr`).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		weightText := strings.TrimSuffix(strings.TrimSpace(cells.Eq(1).Text()), "%")
		weight, err := strconv.ParseFloat(weightText, 64)
		if err != nil || name == "" {
			return
		}
		var identifier string
		if href, ok := cells.Eq(0).Find("a").Attr("href"); ok {
			if m := holdingLinkISIN.FindStringSubmatch(href); m != nil {
				identifier = m[1]
			}
		}
		holdings = append(holdings, model.HoldingEntry{Name: name, Weight: weight / 100, Identifier: identifier})
	})
	return holdings
}

// enrichHoldings fills in a holding's country and currency from its
// security identifier when the page itself doesn't carry them, defaulting
// currency to USD and sector to "Unknown" (spec §4.2 step 8).
func enrichHoldings(holdings []model.HoldingEntry) []model.HoldingEntry {
	enriched := make([]model.HoldingEntry, len(holdings))
	for i, h := range holdings {
		if h.Country == "" && len(h.Identifier) >= 2 {
			if name, ok := sector.CountryNameForCode(strings.ToUpper(h.Identifier[:2])); ok {
				h.Country = name
			}
		}
		if h.Currency == "" {
			if h.Identifier != "" {
				h.Currency = sector.CurrencyFromIdentifierPrefix(h.Identifier)
			} else {
				h.Currency = "USD"
			}
		}
		if h.Sector == "" {
			h.Sector = "Unknown"
		}
		enriched[i] = h
	}
	return enriched
}

// appendOtherHoldings appends a synthetic "Other Holdings" row for the
// untracked remainder when the top-holdings weights sum to less than
// 100%; a fund whose holdings already sum to 100% is left unchanged
// (spec §4.2 step 7, §8).
func appendOtherHoldings(holdings []model.HoldingEntry) []model.HoldingEntry {
	var total float64
	for _, h := range holdings {
		total += h.Weight
	}
	residual := 1 - total
	if residual <= otherHoldingsEpsilon {
		return holdings
	}
	return append(holdings, model.HoldingEntry{
		Name:     "Other Holdings",
		Weight:   residual,
		Currency: "Mixed",
		Sector:   "Diversified",
		Country:  "Mixed",
	})
}

// parseAllocationFragment reads a generic "<bucket>,<weight%>" breakdown
// table from an allocation-load fragment.
func parseAllocationFragment(html string) []model.AllocationEntry {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var entries []model.AllocationEntry
	doc.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		bucket := strings.TrimSpace(cells.Eq(0).Text())
		weightText := strings.TrimSuffix(strings.TrimSpace(cells.Eq(1).Text()), "%")
		weight, err := strconv.ParseFloat(weightText, 64)
		if err != nil || bucket == "" {
			return
		}
		entries = append(entries, model.AllocationEntry{Bucket: bucket, Weight: weight / 100})
	})
	return entries
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
