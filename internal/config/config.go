package config

// Config holds application settings (in-memory representation).
// Persistence is handled by the internal/db package.
type Config struct {
	// Portfolio optimization settings.
	BoundMin       float64 `json:"bound_min"`       // per-direction minimum weight
	BoundMax       float64 `json:"bound_max"`       // per-direction maximum weight
	FrontierPoints int     `json:"frontier_points"` // target returns sampled per sweep
	RiskTolerance  float64 `json:"risk_tolerance"`  // default user risk tolerance in [0,1]

	// Corpus settings.
	RareThreshold int `json:"rare_threshold"` // paper count at or below which a topic is RARE

	// SkipWeightThreshold is the downstream course-generation policy:
	// directions weighted below it are flagged as skipped in API responses.
	SkipWeightThreshold float64 `json:"skip_weight_threshold"`

	// CatalogPath overrides the built-in direction catalog (YAML file).
	CatalogPath string `json:"catalog_path"`

	// AI provider settings (OpenAI-compatible endpoint).
	LLMBaseURL        string `json:"llm_base_url"`
	LLMModel          string `json:"llm_model"`
	ModelCacheMinutes int    `json:"model_cache_minutes"` // TTL for the model-list cache
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		BoundMin:            0.05,
		BoundMax:            0.50,
		FrontierPoints:      50,
		RiskTolerance:       0.5,
		RareThreshold:       10,
		SkipWeightThreshold: 0.03,
		LLMBaseURL:          "https://api.openai.com/v1",
		LLMModel:            "gpt-4o-mini",
		ModelCacheMinutes:   10,
	}
}
