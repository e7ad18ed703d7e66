package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/cinevibe/internal/api/middleware"
	"github.com/timmy/cinevibe/internal/ranking"
	"github.com/timmy/cinevibe/internal/remote"
	"github.com/timmy/cinevibe/internal/service"
	"github.com/timmy/cinevibe/internal/vector"
)

const defaultMoodK = 5

// RecommendHandler handles ranking endpoints.
type RecommendHandler struct {
	recommendationService *service.RecommendationService
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(recommendationService *service.RecommendationService) *RecommendHandler {
	return &RecommendHandler{recommendationService: recommendationService}
}

// Recommend handles POST /api/v1/recommendations.
func (h *RecommendHandler) Recommend(c *gin.Context) {
	var req service.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request: " + err.Error(),
		})
		return
	}

	resp, err := h.recommendationService.Recommend(c.Request.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if service.IsRequestError(err) {
			status = http.StatusBadRequest
		}
		middleware.GetLogger(c).WithError(err).Warn("Recommendation failed")
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// moodRequest is the body of POST /recommendations/mood. Absent fields take
// the protocol defaults.
type moodRequest struct {
	ColorHue       *float64  `json:"colorHue"`
	Intensity      *float64  `json:"intensity"`
	Pacing         *float64  `json:"pacing"`
	Descriptors    []float64 `json:"descriptors"`
	K              *int      `json:"k"`
	DistanceMetric *string   `json:"distance_metric"`
}

func (r *moodRequest) payload() *remote.Payload {
	p := &remote.Payload{
		ColorHue:       valueOr(r.ColorHue, 0.5),
		Intensity:      valueOr(r.Intensity, 0.5),
		Pacing:         valueOr(r.Pacing, 0.5),
		Descriptors:    r.Descriptors,
		K:              defaultMoodK,
		DistanceMetric: string(vector.MetricEuclidean),
	}
	if p.Descriptors == nil {
		p.Descriptors = make([]float64, vector.Dimensions-3)
	}
	if r.K != nil && *r.K > 0 {
		p.K = *r.K
	}
	if r.DistanceMetric != nil {
		p.DistanceMetric = *r.DistanceMetric
	}
	return p
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// MoodRecommendations handles POST /recommendations/mood, the vector
// protocol other CineVibe instances call. It always ranks locally.
func (h *RecommendHandler) MoodRecommendations(c *gin.Context) {
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, remote.Response{Error: "Invalid request: " + err.Error()})
		return
	}
	payload := req.payload()
	if payload.DistanceMetric == "" {
		c.JSON(http.StatusBadRequest, remote.Response{Error: `distance_metric must be "euclidean" or "cosine"`})
		return
	}
	if err := payload.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, remote.Response{Error: err.Error()})
		return
	}

	metric, _ := vector.ParseMetric(payload.DistanceMetric)
	results, err := h.recommendationService.RankVector(c.Request.Context(), payload.Vector(), payload.K, metric)
	if err != nil {
		status := http.StatusInternalServerError
		if ranking.IsCallerError(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, remote.Response{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, remote.Response{
		Success:         true,
		Recommendations: toWire(results),
		K:               len(results),
		DistanceMetric:  string(metric),
	})
}

// batchRequest is the body of POST /recommendations/mood/batch.
type batchRequest struct {
	Moods          []moodRequest `json:"moods" binding:"required,min=1"`
	K              int           `json:"k"`
	DistanceMetric string        `json:"distance_metric"`
}

// BatchMoodRecommendations handles POST /recommendations/mood/batch and
// ranks several mood vectors with one k and metric.
func (h *RecommendHandler) BatchMoodRecommendations(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request: " + err.Error()})
		return
	}
	if req.K <= 0 {
		req.K = defaultMoodK
	}
	metric, err := vector.ParseMetric(req.DistanceMetric)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	users := make([]vector.Vector, len(req.Moods))
	for i := range req.Moods {
		p := req.Moods[i].payload()
		p.K = req.K
		p.DistanceMetric = string(metric)
		if err := p.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "index": i})
			return
		}
		users[i] = p.Vector()
	}

	batches, err := h.recommendationService.RankBatch(c.Request.Context(), users, req.K, metric)
	if err != nil {
		status := http.StatusInternalServerError
		if ranking.IsCallerError(err) || errors.Is(err, remote.ErrInvalidPayload) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"success": false, "error": err.Error()})
		return
	}

	out := make([][]remote.Recommendation, len(batches))
	for i, results := range batches {
		out[i] = toWire(results)
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"results":         out,
		"k":               req.K,
		"distance_metric": string(metric),
	})
}

func toWire(results []ranking.Result) []remote.Recommendation {
	out := make([]remote.Recommendation, len(results))
	for i, r := range results {
		out[i] = remote.Recommendation{
			Movie:      r.Movie,
			Distance:   r.Distance,
			Similarity: r.Similarity,
			Score:      r.Score,
		}
	}
	return out
}
