package sector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Informationstechnologie": Technology,
		"Financials":              FinancialServices,
		"Health Care":             Healthcare,
		"Consumer Discretionary":  ConsumerCyclical,
		"Consumer Defensive":      ConsumerStaples,
		"Versorgungsbetriebe":     Utilities,
		"":                        Unknown,
	}
	for input, want := range cases {
		assert.Equal(t, want, Normalize(input), "input=%q", input)
	}
}

func TestCurrencyForCountry(t *testing.T) {
	cur, ok := CurrencyForCountry("DE")
	assert.True(t, ok)
	assert.Equal(t, "EUR", cur)

	cur, ok = CurrencyForCountry("US")
	assert.True(t, ok)
	assert.Equal(t, "USD", cur)

	_, ok = CurrencyForCountry("ZZ")
	assert.False(t, ok)
}

func TestCurrencyFromIdentifierPrefix(t *testing.T) {
	assert.Equal(t, "USD", CurrencyFromIdentifierPrefix("US0378331005"))
	assert.Equal(t, "EUR", CurrencyFromIdentifierPrefix("DE0007236101"))
	assert.Equal(t, "USD", CurrencyFromIdentifierPrefix("Z"))
}
