package engine

import "math"

// SelectOptimal returns the frontier point with the best risk-adjusted
// return (maximum Sharpe ratio). The first occurrence wins ties so the
// selection is stable. Returns nil for an empty frontier.
func SelectOptimal(frontier []FrontierPoint) *FrontierPoint {
	if len(frontier) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(frontier); i++ {
		if frontier[i].SharpeRatio > frontier[best].SharpeRatio {
			best = i
		}
	}
	return &frontier[best]
}

// SelectByRiskTolerance maps a user risk tolerance in [0,1] linearly onto
// the frontier's risk range (first/last points bound the range, since the
// frontier is ordered by ascending target return) and returns the point
// whose risk is closest to that target. Fewer than 2 points: the first
// point is returned unconditionally. Returns nil for an empty frontier.
func SelectByRiskTolerance(frontier []FrontierPoint, riskTolerance float64) *FrontierPoint {
	if len(frontier) == 0 {
		return nil
	}
	if len(frontier) < 2 {
		return &frontier[0]
	}

	minRisk := frontier[0].Risk
	maxRisk := frontier[len(frontier)-1].Risk
	targetRisk := minRisk + riskTolerance*(maxRisk-minRisk)

	best := 0
	bestDiff := math.Abs(frontier[0].Risk - targetRisk)
	for i := 1; i < len(frontier); i++ {
		if d := math.Abs(frontier[i].Risk - targetRisk); d < bestDiff {
			best = i
			bestDiff = d
		}
	}
	return &frontier[best]
}

// DiversificationScore is the complement of the Herfindahl-Hirschman
// concentration index, 1 - Σw². 0 means fully concentrated in one
// direction; a perfectly even six-way split scores 1 - 1/6 ≈ 0.833.
func DiversificationScore(weights []float64) float64 {
	var hhi float64
	for _, w := range weights {
		hhi += w * w
	}
	return 1 - hhi
}

// NewSelectedPortfolio attaches the diversification diagnostic to a chosen
// frontier point.
func NewSelectedPortfolio(p FrontierPoint) SelectedPortfolio {
	return SelectedPortfolio{
		FrontierPoint:        p,
		DiversificationScore: DiversificationScore(p.Weights),
	}
}
