package risk

// riskThreshold is the (high, medium) percent-of-portfolio boundary pair a
// single dimension is judged against, mirroring config.py's RISK_THRESHOLDS:
// a row's Percent above High is flagged "High", above Medium "Moderate",
// otherwise "Low".
type riskThreshold struct {
	High   float64
	Medium float64
}

// Thresholds holds the per-dimension risk boundaries rows are classified
// against. Unlike a whole-table concentration index, each row is judged on
// its own share of the portfolio, the way the original per-row table
// highlighting worked.
type Thresholds struct {
	byDimension map[string]riskThreshold
	fallback    riskThreshold
}

// DefaultThresholds carries the boundaries config.py's RISK_THRESHOLDS
// assigned per category: asset_class 75/50, sector 25/15, currency 80/60,
// country 50/30, positions 10/5. Both the strict and permissive currency
// tables share the single "currency" boundary.
func DefaultThresholds() Thresholds {
	return Thresholds{
		byDimension: map[string]riskThreshold{
			DimensionAssetClass:     {High: 75, Medium: 50},
			DimensionSector:         {High: 25, Medium: 15},
			DimensionCurrencyStrict: {High: 80, Medium: 60},
			DimensionCurrencyLoose:  {High: 80, Medium: 60},
			DimensionCountry:        {High: 50, Medium: 30},
			DimensionPositions:      {High: 10, Medium: 5},
		},
		fallback: riskThreshold{High: 10, Medium: 5},
	}
}

// Level classifies one row's percent-of-portfolio share against the
// dimension's configured boundaries.
func (t Thresholds) Level(dimension string, percent float64) string {
	th, ok := t.byDimension[dimension]
	if !ok {
		th = t.fallback
	}
	switch {
	case percent > th.High:
		return "High"
	case percent > th.Medium:
		return "Moderate"
	default:
		return "Low"
	}
}

// High returns the dimension's high-risk boundary, used to count rows that
// exceed it (mirrors _display_table's "Positionen > X%" metric).
func (t Thresholds) High(dimension string) float64 {
	th, ok := t.byDimension[dimension]
	if !ok {
		th = t.fallback
	}
	return th.High
}
