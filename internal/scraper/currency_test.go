package scraper

import (
	"testing"

	"github.com/cbram/clusterrisk/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestDeriveCurrencyAllocation_FoldsEurozoneAndSmallBuckets(t *testing.T) {
	countries := []model.AllocationEntry{
		{Bucket: "United States", Weight: 0.60},
		{Bucket: "Germany", Weight: 0.10},
		{Bucket: "France", Weight: 0.05},
		{Bucket: "Japan", Weight: 0.20},
		{Bucket: "Narnia", Weight: 0.0005},
	}
	currencies := DeriveCurrencyAllocation(countries)

	buckets := map[string]float64{}
	for _, c := range currencies {
		buckets[c.Bucket] = c.Weight
	}

	assert.InDelta(t, 0.60, buckets["USD"], 0.001)
	assert.InDelta(t, 0.15, buckets["EUR"], 0.001)
	assert.InDelta(t, 0.20, buckets["JPY"], 0.001)
	assert.InDelta(t, 0.0005, buckets["Other"], 0.0001)
}

func TestUnwrapCDATAEnvelope_PlainHTMLPassesThrough(t *testing.T) {
	html := "<table><tbody><tr><td>US</td><td>60%</td></tr></tbody></table>"
	out, err := unwrapCDATAEnvelope(html)
	assert.NoError(t, err)
	assert.Equal(t, html, out)
}

func TestUnwrapCDATAEnvelope_XMLWrapped(t *testing.T) {
	body := `<?xml version="1.0"?><response><content><![CDATA[<table><tbody><tr><td>US</td><td>60%</td></tr></tbody></table>]]></content></response>`
	out, err := unwrapCDATAEnvelope(body)
	assert.NoError(t, err)
	assert.Contains(t, out, "<table>")
}
