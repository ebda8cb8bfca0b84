package api

import (
	"encoding/json"
	"net/http"

	"skillfolio/internal/catalog"
	"skillfolio/internal/config"
	"skillfolio/internal/db"
	"skillfolio/internal/llm"
)

// Server is the HTTP API server that connects the catalog, optimization
// engine, LLM client, and database.
type Server struct {
	cfg *config.Config
	cat *catalog.Catalog
	llm *llm.Client
	db  *db.DB

	version string
}

// NewServer creates a Server with the given config, catalog, LLM client, and database.
func NewServer(cfg *config.Config, cat *catalog.Catalog, llmClient *llm.Client, database *db.DB, version string) *Server {
	return &Server{
		cfg:     cfg,
		cat:     cat,
		llm:     llmClient,
		db:      database,
		version: version,
	}
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)
	mux.HandleFunc("GET /api/directions", s.handleDirections)
	mux.HandleFunc("POST /api/topics/parse", s.handleTopicsParse)
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/optimize", s.handleOptimize)
	mux.HandleFunc("GET /api/history", s.handleGetHistory)
	mux.HandleFunc("GET /api/history/{id}", s.handleGetHistoryByID)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleDeleteHistory)
	mux.HandleFunc("POST /api/history/clear", s.handleClearHistory)
	mux.HandleFunc("GET /api/models", s.handleModels)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":     "ok",
		"version":    s.version,
		"directions": s.cat.Size(),
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cfg)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	// Patch a copy first: a rejected request must leave the live config
	// untouched.
	updated := *s.cfg
	if v, ok := patch["bound_min"]; ok {
		json.Unmarshal(v, &updated.BoundMin)
	}
	if v, ok := patch["bound_max"]; ok {
		json.Unmarshal(v, &updated.BoundMax)
	}
	if v, ok := patch["frontier_points"]; ok {
		json.Unmarshal(v, &updated.FrontierPoints)
	}
	if v, ok := patch["risk_tolerance"]; ok {
		json.Unmarshal(v, &updated.RiskTolerance)
	}
	if v, ok := patch["rare_threshold"]; ok {
		json.Unmarshal(v, &updated.RareThreshold)
	}
	if v, ok := patch["skip_weight_threshold"]; ok {
		json.Unmarshal(v, &updated.SkipWeightThreshold)
	}
	if v, ok := patch["catalog_path"]; ok {
		json.Unmarshal(v, &updated.CatalogPath)
	}
	if v, ok := patch["llm_base_url"]; ok {
		json.Unmarshal(v, &updated.LLMBaseURL)
	}
	if v, ok := patch["llm_model"]; ok {
		json.Unmarshal(v, &updated.LLMModel)
	}
	if v, ok := patch["model_cache_minutes"]; ok {
		json.Unmarshal(v, &updated.ModelCacheMinutes)
	}

	if msg, ok := validateConfig(&updated, s.cat.Size()); !ok {
		writeError(w, 400, msg)
		return
	}

	if s.db != nil {
		if err := s.db.SaveConfig(&updated); err != nil {
			writeError(w, 500, "save config: "+err.Error())
			return
		}
	}
	*s.cfg = updated
	writeJSON(w, s.cfg)
}

// validateConfig checks the settings that would make every optimization
// request fail before they are persisted.
func validateConfig(cfg *config.Config, numDirections int) (string, bool) {
	if cfg.BoundMin < 0 || cfg.BoundMax > 1 || cfg.BoundMin > cfg.BoundMax {
		return "bounds must satisfy 0 <= min <= max <= 1", false
	}
	if float64(numDirections)*cfg.BoundMin > 1 {
		return "min bound too high: weights cannot sum to 1", false
	}
	if float64(numDirections)*cfg.BoundMax < 1 {
		return "max bound too low: weights cannot sum to 1", false
	}
	if cfg.RiskTolerance < 0 || cfg.RiskTolerance > 1 {
		return "risk_tolerance must be in [0,1]", false
	}
	if cfg.FrontierPoints < 1 {
		return "frontier_points must be at least 1", false
	}
	if cfg.RareThreshold < 0 {
		return "rare_threshold must not be negative", false
	}
	return "", true
}

func (s *Server) handleDirections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cat)
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if s.llm == nil {
		writeError(w, 503, "llm client not configured")
		return
	}
	models, err := s.llm.ListModels()
	if err != nil {
		writeError(w, 502, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"models":  models,
		"default": s.cfg.LLMModel,
	})
}
