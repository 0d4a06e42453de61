package scraper

import (
	"testing"

	"github.com/cbram/clusterrisk/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestCheckDataQuality_MajorityFundLikeHoldingsIsUnusable(t *testing.T) {
	holdings := []model.HoldingEntry{
		{Name: "iShares Core S&P 500 UCITS ETF"},
		{Name: "Vanguard FTSE All-World ETF"},
		{Name: "Apple Inc"},
	}
	countries := []model.AllocationEntry{{Bucket: "United States", Weight: 1}}

	verdict := checkDataQuality(holdings, countries, nil, "Swap Fund", "IE000000001")

	assert.True(t, verdict.unusable)
	assert.Contains(t, verdict.reason, "synthetic/swap replication")
}

func TestCheckDataQuality_NoDataAtAllIsUnusable(t *testing.T) {
	verdict := checkDataQuality(nil, nil, nil, "Empty Fund", "IE000000002")

	assert.True(t, verdict.unusable)
	assert.Contains(t, verdict.reason, "no data")
}

func TestCheckDataQuality_PartialDataWarnsButIsUsable(t *testing.T) {
	holdings := []model.HoldingEntry{{Name: "Apple Inc"}}

	verdict := checkDataQuality(holdings, nil, nil, "Partial Fund", "IE000000003")

	assert.False(t, verdict.unusable)
	assert.NotEmpty(t, verdict.warnings)
}

func TestCheckDataQuality_FullDataHasNoWarnings(t *testing.T) {
	holdings := []model.HoldingEntry{{Name: "Apple Inc"}}
	countries := []model.AllocationEntry{{Bucket: "United States", Weight: 1}}
	sectors := []model.AllocationEntry{{Bucket: "Technology", Weight: 1}}

	verdict := checkDataQuality(holdings, countries, sectors, "Full Fund", "IE000000004")

	assert.False(t, verdict.unusable)
	assert.Empty(t, verdict.warnings)
}
