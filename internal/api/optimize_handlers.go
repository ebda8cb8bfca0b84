package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"skillfolio/internal/corpus"
	"skillfolio/internal/engine"
)

// handleTopicsParse accepts a topic-model export as CSV, either as a
// multipart "file" field or as the raw request body, and returns the
// parsed topics with rarity labels applied.
func (s *Server) handleTopicsParse(w http.ResponseWriter, r *http.Request) {
	var reader io.Reader = r.Body

	if err := r.ParseMultipartForm(16 << 20); err == nil {
		file, _, ferr := r.FormFile("file")
		if ferr == nil {
			defer file.Close()
			reader = file
		}
	}

	topics, err := corpus.ParseTopicsCSV(reader, s.cfg.RareThreshold)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	if len(topics) == 0 {
		writeError(w, 400, "no topics found in upload")
		return
	}

	writeJSON(w, map[string]interface{}{
		"topics": topics,
		"count":  len(topics),
	})
}

type analyzeRequest struct {
	Topics   []engine.Topic        `json:"topics"`
	Affinity engine.AffinityMatrix `json:"affinity"`
	Model    string                `json:"model"`
}

// handleAnalyze turns topics plus an affinity matrix into expected returns
// and a covariance matrix. When no affinity matrix is supplied the LLM
// scores the topics against the direction catalog first.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}
	if len(req.Topics) == 0 {
		writeError(w, 400, "topics must not be empty")
		return
	}

	affinity := req.Affinity
	if len(affinity) == 0 {
		if s.llm == nil {
			writeError(w, 400, "affinity matrix required (llm client not configured)")
			return
		}
		matrix, err := s.llm.AnalyzeAffinity(req.Model, req.Topics, s.cat)
		if err != nil {
			writeError(w, 502, err.Error())
			return
		}
		affinity = matrix
	}

	n := s.cat.Size()
	writeJSON(w, map[string]interface{}{
		"expected_returns":  engine.ComputeExpectedReturns(req.Topics, affinity, n),
		"covariance_matrix": engine.ComputeCovarianceMatrix(req.Topics, affinity, n),
		"affinity":          affinity,
	})
}

type optimizeRequest struct {
	ExpectedReturns  []float64      `json:"expected_returns"`
	CovarianceMatrix [][]float64    `json:"covariance_matrix"`
	Bounds           []engine.Bound `json:"bounds"`
	RiskTolerance    *float64       `json:"risk_tolerance"`
	NumPoints        int            `json:"num_points"`
	TopicCount       int            `json:"topic_count"`
	Source           string         `json:"source"`
}

type optimizeResponse struct {
	Frontier          []engine.FrontierPoint   `json:"frontier"`
	OptimalPortfolio  engine.SelectedPortfolio `json:"optimal_portfolio"`
	SelectedPortfolio engine.SelectedPortfolio `json:"selected_portfolio"`
	RiskTolerance     float64                  `json:"risk_tolerance"`
	SkippedDirections []string                 `json:"skipped_directions"`
	RunID             int64                    `json:"run_id,omitempty"`
}

// handleOptimize sweeps the efficient frontier for the given market inputs
// and returns the max-Sharpe portfolio plus the one matching the requested
// risk tolerance. The run is persisted to history.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	n := len(req.ExpectedReturns)
	if n == 0 {
		writeError(w, 400, "expected_returns must not be empty")
		return
	}
	if len(req.CovarianceMatrix) != n {
		writeError(w, 400, "covariance_matrix must be square and match expected_returns")
		return
	}
	for _, row := range req.CovarianceMatrix {
		if len(row) != n {
			writeError(w, 400, "covariance_matrix must be square and match expected_returns")
			return
		}
	}

	bounds := req.Bounds
	if len(bounds) == 0 {
		bounds = engine.UniformBounds(n, s.cfg.BoundMin, s.cfg.BoundMax)
	} else if len(bounds) != n {
		writeError(w, 400, "bounds must match expected_returns length")
		return
	}

	numPoints := req.NumPoints
	if numPoints <= 0 {
		numPoints = s.cfg.FrontierPoints
	}

	riskTolerance := s.cfg.RiskTolerance
	if req.RiskTolerance != nil {
		riskTolerance = *req.RiskTolerance
	}
	if riskTolerance < 0 || riskTolerance > 1 {
		writeError(w, 400, "risk_tolerance must be in [0,1]")
		return
	}

	frontier := engine.ComputeEfficientFrontier(req.ExpectedReturns, req.CovarianceMatrix, bounds, numPoints)
	if len(frontier) == 0 {
		writeError(w, 422, "could not compute a frontier for these inputs")
		return
	}

	optimalPoint := engine.SelectOptimal(frontier)
	selectedPoint := engine.SelectByRiskTolerance(frontier, riskTolerance)

	optimal := engine.NewSelectedPortfolio(*optimalPoint)
	selected := engine.NewSelectedPortfolio(*selectedPoint)

	resp := optimizeResponse{
		Frontier:          frontier,
		OptimalPortfolio:  optimal,
		SelectedPortfolio: selected,
		RiskTolerance:     riskTolerance,
		SkippedDirections: s.skippedDirections(selected),
	}

	if s.db != nil {
		source := req.Source
		if source == "" {
			source = "api"
		}
		resp.RunID = s.db.InsertRun(source, req.TopicCount, riskTolerance, &optimal, &selected, frontier)
	}

	writeJSON(w, resp)
}

// skippedDirections lists catalog keys whose selected weight falls below
// the configured threshold. Curriculum generation downstream leaves those
// directions out.
func (s *Server) skippedDirections(p engine.SelectedPortfolio) []string {
	skipped := []string{}
	for i, w := range p.Weights {
		if w < s.cfg.SkipWeightThreshold && i < len(s.cat.Directions) {
			skipped = append(skipped, s.cat.Directions[i].Key)
		}
	}
	return skipped
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, 503, "database unavailable")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	writeJSON(w, s.db.GetRuns(limit))
}

func (s *Server) handleGetHistoryByID(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, 503, "database unavailable")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, 400, "invalid id")
		return
	}
	run := s.db.GetRun(id)
	if run == nil {
		writeError(w, 404, "run not found")
		return
	}
	writeJSON(w, map[string]interface{}{
		"run":      run,
		"frontier": s.db.GetFrontier(id),
	})
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, 503, "database unavailable")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, 400, "invalid id")
		return
	}
	if err := s.db.DeleteRun(id); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, map[string]bool{"deleted": true})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeError(w, 503, "database unavailable")
		return
	}
	var req struct {
		OlderThanDays int `json:"older_than_days"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	n, err := s.db.ClearRuns(req.OlderThanDays)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, map[string]int64{"deleted": n})
}
