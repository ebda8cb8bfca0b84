package engine

// RarityLabel classifies how scarce a literature topic is within the corpus.
type RarityLabel string

const (
	RarityCommon  RarityLabel = "COMMON"
	RarityRare    RarityLabel = "RARE"
	RarityNoTopic RarityLabel = "NO_TOPIC"
)

// NoiseTopicNumber is the sentinel topic id assigned by topic modeling to
// unclassified/noise papers. Topics with this id are excluded from every
// aggregate computation.
const NoiseTopicNumber = -1

// Topic is one extracted subject cluster from a literature corpus.
// Produced by the corpus parser; read-only to the engine.
type Topic struct {
	TopicNumber int         `json:"topic_number"`
	Count       int         `json:"count"` // papers in this cluster
	Rarity      RarityLabel `json:"rarity_label"`
	Name        string      `json:"name"`
	Keywords    []string    `json:"keywords,omitempty"`
}

// AffinityMatrix maps a topic number to its affinity scores, one score in
// [0,1] per training direction, in direction-id order. Topics without an
// entry default to all-zero affinities.
type AffinityMatrix map[int][]float64

// Bound is a per-direction (min, max) weight constraint.
type Bound struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// UniformBounds returns n identical bounds. The product currently always
// uses [0.05, 0.50] across all six directions, but the engine treats bounds
// as a per-index array so per-direction customization stays possible.
func UniformBounds(n int, min, max float64) []Bound {
	b := make([]Bound, n)
	for i := range b {
		b[i] = Bound{Min: min, Max: max}
	}
	return b
}

// FrontierPoint is one point on the efficient frontier: the realized
// risk/return of the weight vector the optimizer found for one target
// return. Values are rounded for presentation stability (risk/return to 6
// decimals, weights/sharpe to 4).
type FrontierPoint struct {
	Risk        float64   `json:"risk"`
	Return      float64   `json:"return"`
	Weights     []float64 `json:"weights"`
	SharpeRatio float64   `json:"sharpe_ratio"`
}

// SelectedPortfolio is the frontier point recommended to the user plus its
// diversification score (1 - Herfindahl index of the weights).
type SelectedPortfolio struct {
	FrontierPoint
	DiversificationScore float64 `json:"diversification_score"`
}
