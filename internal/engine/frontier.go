package engine

import "math"

const (
	// DefaultFrontierPoints is how many target returns the frontier sweep
	// samples when the caller does not override it.
	DefaultFrontierPoints = 50

	// The sweep range is pulled inward from the raw single-direction
	// extremes: under diversification bounds a portfolio can neither sink
	// to the worst direction's return nor reach the best one's.
	minReturnFactor = 0.7
	maxReturnFactor = 0.95

	// riskEpsilon guards the Sharpe ratio against division blow-up when
	// portfolio risk is effectively zero.
	riskEpsilon = 1e-8
)

// ComputeEfficientFrontier sweeps numPoints target returns across the
// achievable range and optimizes a portfolio for each, producing the
// efficient frontier ordered by increasing target return. Risk is not
// guaranteed monotonic since the optimizer is a heuristic, not a global
// solver.
//
// numPoints < 1 falls back to DefaultFrontierPoints. numPoints == 1 yields
// a single point computed at the low end of the sweep range.
func ComputeEfficientFrontier(expectedReturns []float64, cov [][]float64, bounds []Bound, numPoints int) []FrontierPoint {
	if len(expectedReturns) == 0 {
		return nil
	}
	if numPoints < 1 {
		numPoints = DefaultFrontierPoints
	}

	minRet, maxRet := expectedReturns[0], expectedReturns[0]
	for _, r := range expectedReturns[1:] {
		if r < minRet {
			minRet = r
		}
		if r > maxRet {
			maxRet = r
		}
	}
	lo := minRet * minReturnFactor
	hi := maxRet * maxReturnFactor

	frontier := make([]FrontierPoint, 0, numPoints)
	for i := 0; i < numPoints; i++ {
		target := lo
		if numPoints > 1 {
			target = lo + float64(i)/float64(numPoints-1)*(hi-lo)
		}

		w := OptimizePortfolio(expectedReturns, cov, target, bounds)
		ret := dot(w, expectedReturns)
		variance := portfolioVariance(w, cov)
		if variance < 0 {
			variance = 0
		}
		risk := math.Sqrt(variance)

		sharpe := 0.0
		if risk > riskEpsilon {
			sharpe = ret / risk
		}

		rounded := make([]float64, len(w))
		for j, v := range w {
			rounded[j] = roundTo(v, 4)
		}
		frontier = append(frontier, FrontierPoint{
			Risk:        roundTo(risk, 6),
			Return:      roundTo(ret, 6),
			Weights:     rounded,
			SharpeRatio: roundTo(sharpe, 4),
		})
	}
	return frontier
}

func portfolioVariance(w []float64, cov [][]float64) float64 {
	var v float64
	for i := range w {
		for j := range w {
			v += w[i] * w[j] * cov[i][j]
		}
	}
	return v
}

// roundTo rounds x to the given number of decimal places. Output values are
// rounded for presentation stability and reproducible snapshots, not for
// numerical correctness.
func roundTo(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
