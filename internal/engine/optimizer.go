package engine

const (
	// Fixed hyperparameters of the projected-gradient heuristic. Changing
	// any of these changes every downstream numeric output, so they are
	// deliberately not configurable.
	optimizerIterations = 2000
	learningRate        = 0.01
	returnNudge         = 0.01
)

// OptimizePortfolio finds a weight vector (summing to 1, each weight inside
// its bounds) that approximately minimizes portfolio variance while meeting
// targetReturn. Projected gradient descent with a soft return-constraint
// nudge, not a convex QP solver. The consumer only needs a representative
// low-variance point near the requested return, not a certified optimum,
// and the heuristic is deterministic and dependency-free.
//
// Never fails: degenerate covariance inputs are guarded by the aggregator's
// diagonal regularization, and an infeasible targetReturn still yields a
// valid normalized vector.
func OptimizePortfolio(expectedReturns []float64, cov [][]float64, targetReturn float64, bounds []Bound) []float64 {
	n := len(expectedReturns)
	if n == 0 {
		return nil
	}

	// Highest-expected-return direction, first index winning ties, so the
	// return nudge is stable when all returns are equal.
	maxIdx := 0
	for i := 1; i < n; i++ {
		if expectedReturns[i] > expectedReturns[maxIdx] {
			maxIdx = i
		}
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}

	grad := make([]float64, n)
	for iter := 0; iter < optimizerIterations; iter++ {
		// Gradient of w'Σw is 2·Σ·w.
		for i := 0; i < n; i++ {
			var g float64
			for j := 0; j < n; j++ {
				g += cov[i][j] * w[j]
			}
			grad[i] = 2 * g
		}
		for i := range w {
			w[i] -= learningRate * grad[i]
		}

		clipToBounds(w, bounds)
		normalize(w)

		// Soft return constraint: if the portfolio falls short of the
		// target, push weight toward the best-returning direction.
		if dot(w, expectedReturns) < targetReturn {
			w[maxIdx] += returnNudge
			normalize(w)
		}
	}
	return w
}

// clipToBounds projects each weight into [bounds[i].Min, bounds[i].Max].
func clipToBounds(w []float64, bounds []Bound) {
	for i := range w {
		if i >= len(bounds) {
			break
		}
		if w[i] < bounds[i].Min {
			w[i] = bounds[i].Min
		}
		if w[i] > bounds[i].Max {
			w[i] = bounds[i].Max
		}
	}
}

// normalize rescales w to sum to 1. A non-positive sum (impossible with
// positive lower bounds) leaves w untouched.
func normalize(w []float64) {
	var sum float64
	for _, v := range w {
		sum += v
	}
	if sum <= 0 {
		return
	}
	for i := range w {
		w[i] /= sum
	}
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
