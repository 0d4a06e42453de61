// Package sector provides the normalisation tables shared by ingestion, the
// ticker->sector cache, and the risk aggregator: sector-name normalisation,
// and the country<->currency mappings used across §4.2, §4.5 and §4.6.
//
// Grounded on original_source/src/csv_parser.py's _normalize_sector_name and
// original_source/src/ticker_sector_mapper.py's sector_mapping table.
package sector

import "strings"

// canonical is the fixed set every sector label folds into.
const (
	Technology            = "Technology"
	FinancialServices      = "Financial Services"
	Healthcare            = "Healthcare"
	ConsumerCyclical      = "Consumer Cyclical"
	ConsumerStaples       = "Consumer Staples"
	Industrials           = "Industrials"
	Energy                = "Energy"
	CommunicationServices = "Communication Services"
	Materials             = "Materials"
	RealEstate            = "Real Estate"
	Utilities             = "Utilities"
	Diversified           = "Diversified"
	ETF                   = "ETF"
	Commodity             = "Commodity"
	Cash                  = "Cash"
	Unknown               = "Unknown"
)

// substringMap lists, lowercased, every alternate spelling (German GICS
// labels from Portfolio Performance exports and alternate English labels
// from external sector APIs) that should fold into a canonical bucket.
// Lookup is case-insensitive substring-on-lowercased-value per spec §4.6.
var substringMap = []struct {
	needle  string
	bucket  string
}{
	{"informationstechnologie", Technology},
	{"technologie", Technology},
	{"information technology", Technology},
	{"technology", Technology},

	{"finanzwesen", FinancialServices},
	{"finanzen", FinancialServices},
	{"financials", FinancialServices},
	{"financial services", FinancialServices},

	{"gesundheitswesen", Healthcare},
	{"gesundheit", Healthcare},
	{"health care", Healthcare},
	{"healthcare", Healthcare},

	{"nicht-basiskonsumgüter", ConsumerCyclical},
	{"zyklische konsumgüter", ConsumerCyclical},
	{"consumer discretionary", ConsumerCyclical},
	{"consumer cyclical", ConsumerCyclical},

	{"basiskonsumgüter", ConsumerStaples},
	{"verbrauchsgüter", ConsumerStaples},
	{"consumer staples", ConsumerStaples},
	{"consumer defensive", ConsumerStaples},

	{"energie", Energy},
	{"energy", Energy},

	{"kommunikationsdienste", CommunicationServices},
	{"kommunikation", CommunicationServices},
	{"telekommunikation", CommunicationServices},
	{"communication services", CommunicationServices},
	{"communications", CommunicationServices},

	{"industrie", Industrials},
	{"industrials", Industrials},

	{"roh-, hilfs- & betriebsstoffe", Materials},
	{"rohstoffe", Materials},
	{"werkstoffe", Materials},
	{"materialien", Materials},
	{"basic materials", Materials},
	{"materials", Materials},

	{"versorgungsbetriebe", Utilities},
	{"versorger", Utilities},
	{"utilities", Utilities},

	{"immobilien", RealEstate},
	{"real estate", RealEstate},

	{"diversified", Diversified},
	{"etf", ETF},
	{"commodity", Commodity},
	{"cash", Cash},
}

// Normalize folds a raw sector label (German GICS name, alternate English
// name, or already-canonical) into the canonical set. Unrecognised input is
// returned title-cased, matching the original's fallback behaviour.
func Normalize(raw string) string {
	if raw == "" {
		return Unknown
	}
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, m := range substringMap {
		if strings.Contains(lower, m.needle) {
			return m.bucket
		}
	}
	return strings.Title(lower) //nolint:staticcheck // matches original's title-case fallback
}
