package engine

const (
	// rarityPremium is the multiplier applied to paper coverage of RARE
	// topics: covering scarce/novel literature earns a bonus over covering
	// well-trodden ground.
	rarityPremium = 2.0
	// breadthThreshold is the minimum affinity for a topic to count toward
	// a direction's breadth (how many distinct topics touch the direction).
	breadthThreshold = 0.3
	// Blend weights for the expected-return components: raw coverage
	// matters most, rarity is a bonus, breadth is a tiebreaker.
	coverageWeight = 0.5
	rarityWeight   = 0.3
	breadthWeight  = 0.2
	// diagonalRegularization is added to every covariance diagonal entry so
	// downstream optimization stays numerically stable when directions are
	// perfectly correlated or the topic sample is too small.
	diagonalRegularization = 0.001
)

// activeTopics filters out the noise sentinel (topic -1). Slice order is
// preserved so covariance columns line up deterministically.
func activeTopics(topics []Topic) []Topic {
	active := make([]Topic, 0, len(topics))
	for _, t := range topics {
		if t.TopicNumber == NoiseTopicNumber {
			continue
		}
		active = append(active, t)
	}
	return active
}

// affinityScore returns the affinity of a topic toward direction d,
// defaulting to 0 for topics without a matrix entry or short rows.
func affinityScore(affinity AffinityMatrix, topicNumber, d int) float64 {
	row, ok := affinity[topicNumber]
	if !ok || d >= len(row) {
		return 0
	}
	return row[d]
}

// ComputeExpectedReturns derives one expected-return scalar per training
// direction from the topic corpus and its affinity matrix. numDirections is
// the catalog cardinality (six in the product). Empty input degrades to a
// zero vector; the function never fails.
//
// Per direction: 0.5·coverage + 0.3·rarityBonus + 0.2·breadth, where
// coverage is paper-weighted affinity, rarityBonus the same sum restricted
// to RARE topics at a 2.0 premium, and breadth the fraction of topics whose
// affinity exceeds 0.3.
func ComputeExpectedReturns(topics []Topic, affinity AffinityMatrix, numDirections int) []float64 {
	returns := make([]float64, numDirections)
	active := activeTopics(topics)

	totalPapers := 0
	for _, t := range active {
		totalPapers += t.Count
	}
	// Floored denominators: an empty or zero-count corpus yields zeros
	// instead of dividing by zero.
	paperDenom := float64(max(totalPapers, 1))
	topicDenom := float64(max(len(active), 1))

	for d := 0; d < numDirections; d++ {
		var coverage, rarityBonus, breadthHits float64
		for _, t := range active {
			a := affinityScore(affinity, t.TopicNumber, d)
			weighted := float64(t.Count) * a
			coverage += weighted
			if t.Rarity == RarityRare {
				rarityBonus += weighted * rarityPremium
			}
			if a > breadthThreshold {
				breadthHits++
			}
		}
		coverage /= paperDenom
		rarityBonus /= paperDenom
		breadth := breadthHits / topicDenom

		returns[d] = coverageWeight*coverage + rarityWeight*rarityBonus + breadthWeight*breadth
	}
	return returns
}

// ComputeCovarianceMatrix builds the sample covariance between direction
// affinity profiles across the active topics, with Bessel's correction
// (floored at 1) and a fixed 0.001 diagonal regularization. Symmetric by
// construction; empty input yields the regularized zero matrix.
func ComputeCovarianceMatrix(topics []Topic, affinity AffinityMatrix, numDirections int) [][]float64 {
	active := activeTopics(topics)
	T := len(active)

	// Per-direction affinity vectors in corpus order, and their means.
	profiles := make([][]float64, numDirections)
	means := make([]float64, numDirections)
	for d := 0; d < numDirections; d++ {
		profiles[d] = make([]float64, T)
		for i, t := range active {
			profiles[d][i] = affinityScore(affinity, t.TopicNumber, d)
			means[d] += profiles[d][i]
		}
		if T > 0 {
			means[d] /= float64(T)
		}
	}

	besselDenom := float64(max(T-1, 1))
	cov := make([][]float64, numDirections)
	for i := range cov {
		cov[i] = make([]float64, numDirections)
	}
	for i := 0; i < numDirections; i++ {
		for j := 0; j <= i; j++ {
			var sum float64
			for t := 0; t < T; t++ {
				sum += (profiles[i][t] - means[i]) * (profiles[j][t] - means[j])
			}
			c := sum / besselDenom
			cov[i][j] = c
			cov[j][i] = c
		}
	}
	for i := 0; i < numDirections; i++ {
		cov[i][i] += diagonalRegularization
	}
	return cov
}
