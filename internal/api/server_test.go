package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"skillfolio/internal/catalog"
	"skillfolio/internal/config"
	"skillfolio/internal/db"
	"skillfolio/internal/engine"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.OpenPath(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewServer(config.Default(), catalog.Default(), nil, database, "test")
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out struct {
		Status     string `json:"status"`
		Directions int    `json:"directions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "ok" || out.Directions != 6 {
		t.Errorf("status = %+v", out)
	}
}

func TestHandleGetConfig_ReturnsDefaults(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out config.Config
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if out.BoundMin != 0.05 || out.BoundMax != 0.50 || out.FrontierPoints != 50 {
		t.Errorf("config = %+v", out)
	}
}

func TestHandleSetConfig_PatchAndPersist(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/config", map[string]interface{}{
		"risk_tolerance":  0.8,
		"frontier_points": 25,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if srv.cfg.RiskTolerance != 0.8 || srv.cfg.FrontierPoints != 25 {
		t.Errorf("config not patched: %+v", srv.cfg)
	}

	// Persisted values survive a reload from the same DB.
	reloaded := srv.db.LoadConfig()
	if reloaded.RiskTolerance != 0.8 || reloaded.FrontierPoints != 25 {
		t.Errorf("config not persisted: %+v", reloaded)
	}
}

func TestHandleSetConfig_RejectsInfeasibleBounds(t *testing.T) {
	srv := newTestServer(t)
	// Six directions at min 0.3 cannot sum to 1.
	rec := doJSON(t, srv, http.MethodPost, "/api/config", map[string]interface{}{
		"bound_min": 0.3,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	// A rejected patch must not leak into the live config.
	if srv.cfg.BoundMin != 0.05 {
		t.Errorf("BoundMin after rejected patch = %v, want 0.05", srv.cfg.BoundMin)
	}
	if reloaded := srv.db.LoadConfig(); reloaded.BoundMin != 0.05 {
		t.Errorf("BoundMin persisted despite rejection: %v", reloaded.BoundMin)
	}
}

func TestHandleHistory_NoDatabase(t *testing.T) {
	srv := NewServer(config.Default(), catalog.Default(), nil, nil, "test")
	for _, route := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/history"},
		{http.MethodGet, "/api/history/1"},
		{http.MethodDelete, "/api/history/1"},
		{http.MethodPost, "/api/history/clear"},
	} {
		rec := doJSON(t, srv, route.method, route.path, nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: status = %d, want 503 without database", route.method, route.path, rec.Code)
		}
	}
}

func TestHandleDirections(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/directions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out catalog.Catalog
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(out.Directions) != 6 || out.Directions[0].Key != "digital" {
		t.Errorf("catalog = %+v", out)
	}
}

func TestHandleTopicsParse_RawCSV(t *testing.T) {
	srv := newTestServer(t)
	csv := "Topic,Count,Name,Representation\n-1,120,noise,\"['the', 'a']\"\n0,30,remote work,\"['remote', 'hybrid']\"\n1,5,green skills,\"['esg']\"\n"
	req := httptest.NewRequest(http.MethodPost, "/api/topics/parse", strings.NewReader(csv))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Topics []engine.Topic `json:"topics"`
		Count  int            `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 3 {
		t.Fatalf("count = %d, want 3", out.Count)
	}
	if out.Topics[0].Rarity != engine.RarityNoTopic {
		t.Errorf("noise topic rarity = %s, want NO_TOPIC", out.Topics[0].Rarity)
	}
	if out.Topics[2].Rarity != engine.RarityRare {
		t.Errorf("low-count topic rarity = %s, want RARE", out.Topics[2].Rarity)
	}
}

func TestHandleTopicsParse_EmptyUpload(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/topics/parse", strings.NewReader("Topic,Count,Name\n"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAnalyze_WithProvidedAffinity(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]interface{}{
		"topics": []engine.Topic{
			{TopicNumber: 0, Count: 30, Rarity: engine.RarityCommon},
		},
		"affinity": map[string][]float64{
			"0": {0.8, 0.2, 0.0, 0.0, 0.0, 0.0},
		},
	}
	rec := doJSON(t, srv, http.MethodPost, "/api/analyze", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		ExpectedReturns  []float64   `json:"expected_returns"`
		CovarianceMatrix [][]float64 `json:"covariance_matrix"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.ExpectedReturns) != 6 || len(out.CovarianceMatrix) != 6 {
		t.Fatalf("dimensions = %d/%d, want 6/6", len(out.ExpectedReturns), len(out.CovarianceMatrix))
	}
	if out.ExpectedReturns[0] <= out.ExpectedReturns[1] {
		t.Errorf("direction 0 should outscore direction 1: %v", out.ExpectedReturns)
	}
}

func TestHandleAnalyze_EmptyTopics(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/analyze", map[string]interface{}{
		"topics": []engine.Topic{},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAnalyze_NoAffinityNoLLM(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/analyze", map[string]interface{}{
		"topics": []engine.Topic{{TopicNumber: 0, Count: 30}},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 when no affinity and no llm", rec.Code)
	}
}

func optimizeBody() map[string]interface{} {
	return map[string]interface{}{
		"expected_returns": []float64{0.40, 0.55, 0.30, 0.45, 0.35, 0.50},
		"covariance_matrix": [][]float64{
			{0.10, 0.01, 0.01, 0.01, 0.01, 0.01},
			{0.01, 0.15, 0.01, 0.01, 0.01, 0.01},
			{0.01, 0.01, 0.08, 0.01, 0.01, 0.01},
			{0.01, 0.01, 0.01, 0.12, 0.01, 0.01},
			{0.01, 0.01, 0.01, 0.01, 0.09, 0.01},
			{0.01, 0.01, 0.01, 0.01, 0.01, 0.11},
		},
		"topic_count": 12,
		"source":      "test",
	}
}

func TestHandleOptimize_FullResponse(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/optimize", optimizeBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var out optimizeResponse
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Frontier) != 50 {
		t.Errorf("frontier has %d points, want 50", len(out.Frontier))
	}
	if out.RiskTolerance != 0.5 {
		t.Errorf("risk_tolerance = %v, want default 0.5", out.RiskTolerance)
	}
	if len(out.OptimalPortfolio.Weights) != 6 {
		t.Errorf("optimal weights = %v", out.OptimalPortfolio.Weights)
	}
	if out.OptimalPortfolio.DiversificationScore <= 0 || out.OptimalPortfolio.DiversificationScore >= 1 {
		t.Errorf("diversification = %v, want in (0,1)", out.OptimalPortfolio.DiversificationScore)
	}
	if out.RunID <= 0 {
		t.Error("run not persisted")
	}

	// The persisted run is retrievable with its frontier.
	rec = doJSON(t, srv, http.MethodGet, "/api/history/"+strconv.FormatInt(out.RunID, 10), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d, want 200", rec.Code)
	}
	var hist struct {
		Run      db.RunRecord           `json:"run"`
		Frontier []engine.FrontierPoint `json:"frontier"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&hist); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if hist.Run.Source != "test" || hist.Run.TopicCount != 12 {
		t.Errorf("run = %+v", hist.Run)
	}
	if len(hist.Frontier) != 50 {
		t.Errorf("stored frontier has %d points, want 50", len(hist.Frontier))
	}
}

func TestHandleOptimize_CustomRiskToleranceAndPoints(t *testing.T) {
	srv := newTestServer(t)
	body := optimizeBody()
	body["risk_tolerance"] = 0.0
	body["num_points"] = 5
	rec := doJSON(t, srv, http.MethodPost, "/api/optimize", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var out optimizeResponse
	json.NewDecoder(rec.Body).Decode(&out)
	if len(out.Frontier) != 5 {
		t.Errorf("frontier has %d points, want 5", len(out.Frontier))
	}
	if out.RiskTolerance != 0.0 {
		t.Errorf("risk_tolerance = %v, want explicit 0.0", out.RiskTolerance)
	}
	// Zero tolerance targets the low-return end of the frontier.
	if out.SelectedPortfolio.Risk != out.Frontier[0].Risk {
		t.Errorf("selected risk = %v, want first point's %v", out.SelectedPortfolio.Risk, out.Frontier[0].Risk)
	}
}

func TestHandleOptimize_Validation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		mut  func(map[string]interface{})
	}{
		{"empty returns", func(b map[string]interface{}) { b["expected_returns"] = []float64{} }},
		{"ragged covariance", func(b map[string]interface{}) {
			b["covariance_matrix"] = [][]float64{{0.1, 0.01}, {0.01}}
		}},
		{"bounds length mismatch", func(b map[string]interface{}) {
			b["bounds"] = []engine.Bound{{Min: 0, Max: 1}}
		}},
		{"risk tolerance out of range", func(b map[string]interface{}) {
			b["risk_tolerance"] = 1.5
		}},
	}
	for _, tc := range cases {
		body := optimizeBody()
		tc.mut(body)
		rec := doJSON(t, srv, http.MethodPost, "/api/optimize", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
	}
}

func TestHandleHistory_ListDeleteClear(t *testing.T) {
	srv := newTestServer(t)
	doJSON(t, srv, http.MethodPost, "/api/optimize", optimizeBody())
	doJSON(t, srv, http.MethodPost, "/api/optimize", optimizeBody())

	rec := doJSON(t, srv, http.MethodGet, "/api/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var runs []db.RunRecord
	if err := json.NewDecoder(rec.Body).Decode(&runs); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/history/"+strconv.FormatInt(runs[0].ID, 10), nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/history/clear", map[string]int{"older_than_days": 0})
	if rec.Code != http.StatusOK {
		t.Errorf("clear status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/history", nil)
	runs = nil
	json.NewDecoder(rec.Body).Decode(&runs)
	if len(runs) != 0 {
		t.Errorf("got %d runs after clear, want 0", len(runs))
	}
}

func TestHandleHistory_MissingRun(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/history/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleModels_NoClient(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/models", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 without llm client", rec.Code)
	}
}

func TestSkippedDirections(t *testing.T) {
	srv := newTestServer(t)
	p := engine.NewSelectedPortfolio(engine.FrontierPoint{
		Weights: []float64{0.01, 0.29, 0.02, 0.30, 0.08, 0.30},
	})
	got := srv.skippedDirections(p)
	if len(got) != 2 {
		t.Fatalf("skipped = %v, want 2 entries", got)
	}
	if got[0] != "digital" || got[1] != "leadership" {
		t.Errorf("skipped = %v, want [digital leadership]", got)
	}
}
