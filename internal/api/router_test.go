package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/timmy/cinevibe/internal/catalog"
	"github.com/timmy/cinevibe/internal/config"
	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/logger"
	"github.com/timmy/cinevibe/internal/ranking"
	"github.com/timmy/cinevibe/internal/service"
	"github.com/timmy/cinevibe/internal/source/static"
	"github.com/timmy/cinevibe/internal/vector"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return newCatalogRouter(t, static.Movies())
}

func newCatalogRouter(t *testing.T, movies []domain.Movie) *gin.Engine {
	t.Helper()
	cat, err := catalog.New(movies)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	recs, err := service.NewRecommendationService(cat, service.RankerDeps{}, logger.GetDefault(), &service.RecommendationConfig{
		Strategy:  ranking.StrategyKNN,
		DefaultK:  5,
		MaxK:      20,
		Metric:    vector.MetricEuclidean,
		Heuristic: ranking.DefaultHeuristicWeights(),
	})
	if err != nil {
		t.Fatalf("NewRecommendationService: %v", err)
	}
	return SetupRouter(recs, service.NewMovieService(cat), logger.GetDefault(), &config.ServerConfig{Mode: "test"})
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, out
}

func TestHealth(t *testing.T) {
	w, body := do(t, newTestRouter(t), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body["status"] != "healthy" || body["movies_loaded"] != float64(5) {
		t.Fatalf("body = %v", body)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestMoodRecommendationsDefaults(t *testing.T) {
	w, body := do(t, newTestRouter(t), http.MethodPost, "/recommendations/mood", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", w.Code, body)
	}
	if body["success"] != true || body["k"] != float64(5) || body["distance_metric"] != "euclidean" {
		t.Fatalf("body = %v", body)
	}
	recs := body["recommendations"].([]interface{})
	first := recs[0].(map[string]interface{})
	for _, key := range []string{"id", "title", "distance", "similarity", "score"} {
		if _, ok := first[key]; !ok {
			t.Errorf("recommendation missing %q: %v", key, first)
		}
	}
}

func TestMoodRecommendationsValidation(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		name string
		body string
	}{
		{"hue out of range", `{"colorHue": 1.5}`},
		{"negative intensity", `{"intensity": -0.1}`},
		{"short descriptors", `{"descriptors": [1, 0, 1]}`},
		{"unknown metric", `{"distance_metric": "manhattan"}`},
		{"empty metric", `{"distance_metric": ""}`},
		{"descriptor out of range", `{"descriptors": [2, 0, 0, 0, 0, 0, 0, 0]}`},
		{"malformed", `{"colorHue": "red"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, r, http.MethodPost, "/recommendations/mood", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%v)", w.Code, body)
			}
			if body["success"] != false || body["error"] == "" {
				t.Fatalf("body = %v", body)
			}
		})
	}
}

func TestMoodRecommendationsCosineK(t *testing.T) {
	w, body := do(t, newTestRouter(t), http.MethodPost, "/recommendations/mood",
		`{"colorHue": 0.6, "intensity": 0.75, "pacing": 0.35, "descriptors": [0,0,0,1,1,1,0,0], "k": 2, "distance_metric": "cosine"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", w.Code, body)
	}
	recs := body["recommendations"].([]interface{})
	if len(recs) != 2 || body["k"] != float64(2) {
		t.Fatalf("body = %v", body)
	}
	if id := recs[0].(map[string]interface{})["id"]; id != "blade-runner-2049" {
		t.Errorf("top = %v, want blade-runner-2049", id)
	}
}

func TestBatchMoodRecommendations(t *testing.T) {
	w, body := do(t, newTestRouter(t), http.MethodPost, "/recommendations/mood/batch",
		`{"moods": [{}, {"intensity": 0.9}], "k": 1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", w.Code, body)
	}
	results := body["results"].([]interface{})
	if len(results) != 2 || len(results[0].([]interface{})) != 1 {
		t.Fatalf("results = %v", results)
	}

	w, _ = do(t, newTestRouter(t), http.MethodPost, "/recommendations/mood/batch", `{"moods": []}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d", w.Code)
	}
}

func TestRecommendEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w, body := do(t, r, http.MethodPost, "/api/v1/recommendations",
		`{"colors": ["#4169E1"], "descriptors": ["mysterious", "gritty"], "k": 3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %v", w.Code, body)
	}
	if body["strategy"] != "knn" || body["count"] != float64(3) {
		t.Fatalf("body = %v", body)
	}
	first := body["recommendations"].([]interface{})[0].(map[string]interface{})
	if _, ok := first["_distance"]; !ok {
		t.Errorf("result missing _distance: %v", first)
	}

	w, body = do(t, r, http.MethodPost, "/api/v1/recommendations", `{"strategy": "heuristic"}`)
	if w.Code != http.StatusOK || body["count"] != float64(5) {
		t.Fatalf("heuristic: status %d body %v", w.Code, body)
	}

	for _, bad := range []string{`{"k": -2}`, `{"metric": "hamming"}`, `{"strategy": "index"}`, `{"pacing": 4}`} {
		w, body = do(t, r, http.MethodPost, "/api/v1/recommendations", bad)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400 (%v)", bad, w.Code, body)
		}
	}
}

func TestRecommendBrokenCatalogIsServerError(t *testing.T) {
	movies := append(static.Movies(), domain.Movie{ID: "broken", Title: "Broken", Hue: domain.Float(400)})
	r := newCatalogRouter(t, movies)

	w, body := do(t, r, http.MethodPost, "/api/v1/recommendations", `{"k": 3}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("/api/v1/recommendations status = %d, want 500 (%v)", w.Code, body)
	}
	w, body = do(t, r, http.MethodPost, "/recommendations/mood", `{}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("/recommendations/mood status = %d, want 500 (%v)", w.Code, body)
	}

	// the heuristic does not encode items, so it still answers
	w, body = do(t, r, http.MethodPost, "/api/v1/recommendations", `{"strategy": "heuristic"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("heuristic status = %d (%v)", w.Code, body)
	}
}

func TestMovieEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w, body := do(t, r, http.MethodGet, "/api/v1/movies", "")
	if w.Code != http.StatusOK || body["count"] != float64(5) {
		t.Fatalf("list: %d %v", w.Code, body)
	}

	w, body = do(t, r, http.MethodGet, "/movies?q=baby", "")
	if w.Code != http.StatusOK || body["count"] != float64(1) || body["total"] != float64(5) {
		t.Fatalf("search: %d %v", w.Code, body)
	}

	w, body = do(t, r, http.MethodGet, "/api/v1/movies/la-la-land", "")
	if w.Code != http.StatusOK || body["title"] != "La La Land" {
		t.Fatalf("get: %d %v", w.Code, body)
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/movies/unknown", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing movie status = %d", w.Code)
	}

	w, body = do(t, r, http.MethodGet, "/api/v1/stats", "")
	if w.Code != http.StatusOK || body["movies"] != float64(5) {
		t.Fatalf("stats: %d %v", w.Code, body)
	}
	if cats := body["mood_categories"].([]interface{}); len(cats) != 8 {
		t.Errorf("mood_categories = %v", cats)
	}

	w, body = do(t, r, http.MethodGet, "/api/v1/descriptors", "")
	if w.Code != http.StatusOK {
		t.Fatalf("descriptors: %d", w.Code)
	}
	if syn := body["synonyms"].(map[string]interface{}); len(syn) == 0 {
		t.Error("synonyms empty")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	do(t, r, http.MethodGet, "/health", "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "cinevibe_api_requests_total") {
		t.Fatalf("metrics status %d", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommendations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
