package sector

import "strings"

// eurozone lists the ISO-3166-alpha-2 codes that fold into a single EUR
// currency bucket during currency-allocation derivation (spec §4.2 step 6).
var eurozone = map[string]bool{
	"AT": true, "BE": true, "CY": true, "DE": true, "EE": true, "ES": true,
	"FI": true, "FR": true, "GR": true, "IE": true, "IT": true, "LT": true,
	"LU": true, "LV": true, "MT": true, "NL": true, "PT": true, "SI": true,
	"SK": true, "HR": true,
}

// IsEurozone reports whether the ISO-3166-alpha-2 country code is a Eurozone
// member.
func IsEurozone(countryCode string) bool {
	return eurozone[strings.ToUpper(countryCode)]
}

// countryCurrency maps an ISO-3166-alpha-2 country code to its ISO-4217
// currency. Eurozone members are handled separately via IsEurozone.
var countryCurrency = map[string]string{
	"US": "USD", "GB": "GBP", "JP": "JPY", "CH": "CHF", "CA": "CAD",
	"AU": "AUD", "CN": "CNY", "HK": "HKD", "SG": "SGD", "SE": "SEK",
	"NO": "NOK", "DK": "DKK", "KR": "KRW", "IN": "INR", "BR": "BRL",
	"MX": "MXN", "ZA": "ZAR", "TW": "TWD", "IL": "ILS", "PL": "PLN",
	"NZ": "NZD", "TH": "THB", "ID": "IDR", "MY": "MYR", "PH": "PHP",
}

// countryName maps an ISO-3166-alpha-2 country code to its display name,
// used to derive the country dimension's bucket from an identifier prefix
// (spec §4.6 #5(c)).
var countryName = map[string]string{
	"US": "United States", "GB": "United Kingdom", "JP": "Japan",
	"CH": "Switzerland", "CA": "Canada", "AU": "Australia", "CN": "China",
	"HK": "Hong Kong", "SG": "Singapore", "SE": "Sweden", "NO": "Norway",
	"DK": "Denmark", "KR": "South Korea", "IN": "India", "BR": "Brazil",
	"MX": "Mexico", "ZA": "South Africa", "TW": "Taiwan", "IL": "Israel",
	"PL": "Poland", "NZ": "New Zealand", "TH": "Thailand", "ID": "Indonesia",
	"MY": "Malaysia", "PH": "Philippines",
	"DE": "Germany", "FR": "France", "IT": "Italy", "ES": "Spain",
	"NL": "Netherlands", "BE": "Belgium", "AT": "Austria", "IE": "Ireland",
	"FI": "Finland", "PT": "Portugal", "GR": "Greece", "LU": "Luxembourg",
}

// currencyCountry maps a currency back to a representative country, used
// to derive the country dimension for Cash positions and as a last-resort
// fallback (spec §4.6 #5(b)/(d)).
var currencyCountry = map[string]string{
	"USD": "United States", "GBP": "United Kingdom", "JPY": "Japan",
	"CHF": "Switzerland", "CAD": "Canada", "AUD": "Australia",
	"CNY": "China", "HKD": "Hong Kong", "SGD": "Singapore",
	"SEK": "Sweden", "NOK": "Norway", "DKK": "Denmark", "KRW": "South Korea",
	"INR": "India", "BRL": "Brazil", "MXN": "Mexico", "ZAR": "South Africa",
	"EUR": "Eurozone",
}

// CurrencyForCountry resolves an ISO-3166-alpha-2 country code to its
// ISO-4217 currency. Eurozone members always resolve to EUR. ok is false for
// an unmapped country (spec: CurrencyLookupMissing, caller falls back to
// "Other" above the 0.1% threshold).
func CurrencyForCountry(countryCode string) (currency string, ok bool) {
	code := strings.ToUpper(countryCode)
	if IsEurozone(code) {
		return "EUR", true
	}
	c, ok := countryCurrency[code]
	return c, ok
}

// CountryNameForCode resolves an ISO-3166-alpha-2 code to a display name.
func CountryNameForCode(countryCode string) (string, bool) {
	name, ok := countryName[strings.ToUpper(countryCode)]
	return name, ok
}

// CountryForCurrency resolves a currency back to a representative country
// name, used for Cash positions and as the final fallback in the country
// dimension (spec §4.6 #5).
func CountryForCurrency(currency string) (string, bool) {
	name, ok := currencyCountry[strings.ToUpper(currency)]
	return name, ok
}

// CurrencyFromIdentifierPrefix maps the first two characters of a 12-char
// security identifier (an ISO-3166-alpha-2 country code) to its currency,
// defaulting to USD when unmapped (spec §4.2 step 8, §4.5 Stock override).
func CurrencyFromIdentifierPrefix(identifier string) string {
	if len(identifier) < 2 {
		return "USD"
	}
	if c, ok := CurrencyForCountry(identifier[:2]); ok {
		return c
	}
	return "USD"
}
