package scraper

import (
	"fmt"
	"strings"

	"github.com/cbram/clusterrisk/internal/model"
)

// fundNameKeywords flags holdings whose name indicates they are
// themselves funds rather than individual securities — the signature of
// a swap-replicating ETF whose page shows synthetic index constituents
// instead of real holdings (spec §4.2 step 5).
var fundNameKeywords = []string{
	"etf", "ucits", "ishares", "vanguard", "xtrackers", "amundi",
	"spdr", "invesco", "lyxor", "dws", "fund", "fonds",
}

// qualityVerdict is the outcome of checkDataQuality.
type qualityVerdict struct {
	unusable bool
	reason   string
	warnings []string
}

// checkDataQuality implements spec §4.2 step 5's quality verdict over one
// candidate set of holdings/country/sector allocations.
func checkDataQuality(holdings []model.HoldingEntry, countries, sectors []model.AllocationEntry, displayName, identifier string) qualityVerdict {
	if len(holdings) > 0 {
		fundLike := 0
		for _, h := range holdings {
			name := strings.ToLower(h.Name)
			for _, kw := range fundNameKeywords {
				if strings.Contains(name, kw) {
					fundLike++
					break
				}
			}
		}
		if float64(fundLike)/float64(len(holdings)) > 0.5 {
			return qualityVerdict{
				unusable: true,
				reason: fmt.Sprintf(
					"%d of %d holdings for %s (%s) are themselves funds: synthetic/swap replication detected",
					fundLike, len(holdings), displayName, identifier,
				),
			}
		}
	}

	if len(holdings) == 0 && len(countries) == 0 && len(sectors) == 0 {
		return qualityVerdict{
			unusable: true,
			reason:   fmt.Sprintf("no data for %s (%s)", displayName, identifier),
		}
	}

	var warnings []string
	if len(countries) == 0 {
		warnings = append(warnings, fmt.Sprintf("no country allocation for %s (%s)", displayName, identifier))
	}
	if len(sectors) == 0 {
		warnings = append(warnings, fmt.Sprintf("no sector allocation for %s (%s)", displayName, identifier))
	}
	if len(holdings) == 0 {
		warnings = append(warnings, fmt.Sprintf("no holdings for %s (%s), possibly a synthetic fund", displayName, identifier))
	}
	return qualityVerdict{warnings: warnings}
}
