package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/cinevibe/internal/catalog"
	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/logger"
	"github.com/timmy/cinevibe/internal/metrics"
	"github.com/timmy/cinevibe/internal/ranking"
	"github.com/timmy/cinevibe/internal/vector"
)

// ErrUnknownStrategy is returned when a request names a strategy that is not
// configured.
var ErrUnknownStrategy = errors.New("unknown ranking strategy")

// RecommendationConfig holds the ranking defaults.
type RecommendationConfig struct {
	Strategy  string
	DefaultK  int
	MaxK      int
	Metric    vector.Metric
	Heuristic ranking.HeuristicWeights
}

// RankerDeps are the optional backends of the remote and index strategies.
// A nil field disables the strategy that needs it.
type RankerDeps struct {
	Remote        ranking.RemoteClient
	RemoteOptions ranking.RemoteOptions
	Index         ranking.VectorIndex
}

// RecommendationService ranks the catalog for mood requests.
type RecommendationService struct {
	catalog         *catalog.Catalog
	knn             *ranking.KNN
	rankers         map[string]ranking.Ranker
	defaultStrategy string
	defaultK        int
	maxK            int
	metric          vector.Metric
	logger          *logger.Logger
}

// NewRecommendationService wires the configured rankers around cat.
// Parameters:
//   - cat: loaded catalog, shared read-only.
//   - deps: optional remote client and vector index.
//   - log: logger instance.
//   - cfg: ranking defaults.
//
// Returns:
//   - *RecommendationService: initialized service.
//   - error: non-nil if the default strategy cannot be served.
func NewRecommendationService(cat *catalog.Catalog, deps RankerDeps, log *logger.Logger, cfg *RecommendationConfig) (*RecommendationService, error) {
	knn := ranking.NewKNN()

	rankers := map[string]ranking.Ranker{
		ranking.StrategyKNN:       knn,
		ranking.StrategyHeuristic: ranking.NewHeuristic(cfg.Heuristic),
	}
	if deps.Remote != nil {
		rankers[ranking.StrategyKNN] = ranking.NewFallback(ranking.NewRemote(deps.Remote, deps.RemoteOptions), knn)
	}
	if deps.Index != nil {
		rankers[ranking.StrategyIndex] = ranking.NewFallback(ranking.NewIndex(deps.Index), knn)
	}

	strategy := cfg.Strategy
	if strategy == "" {
		strategy = ranking.StrategyKNN
	}
	if _, ok := rankers[strategy]; !ok {
		return nil, fmt.Errorf("%w: %s is not available", ErrUnknownStrategy, strategy)
	}

	metric := cfg.Metric
	if metric == "" {
		metric = vector.DefaultMetric
	}
	defaultK := cfg.DefaultK
	if defaultK <= 0 {
		defaultK = 5
	}
	maxK := cfg.MaxK
	if maxK < defaultK {
		maxK = defaultK
	}

	return &RecommendationService{
		catalog:         cat,
		knn:             knn,
		rankers:         rankers,
		defaultStrategy: strategy,
		defaultK:        defaultK,
		maxK:            maxK,
		metric:          metric,
		logger:          log,
	}, nil
}

func (s *RecommendationService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// RecommendRequest describes a mood to rank the catalog against. Unset sliders are
// neutral; zero k and empty metric or strategy take the configured defaults.
type RecommendRequest struct {
	Colors      []string `json:"colors"`
	Descriptors []string `json:"descriptors"`
	Intensity   *float64 `json:"intensity,omitempty"`
	Pacing      *float64 `json:"pacing,omitempty"`
	K           int      `json:"k"`
	Metric      string   `json:"metric,omitempty"`
	Strategy    string   `json:"strategy,omitempty"`
}

// Mood converts the request into a domain mood.
func (r *RecommendRequest) Mood() domain.Mood {
	mood := domain.DefaultMood()
	mood.Colors = domain.NewSet(r.Colors...)
	mood.Descriptors = domain.NewSet(r.Descriptors...)
	if r.Intensity != nil {
		mood.Intensity = *r.Intensity
	}
	if r.Pacing != nil {
		mood.Pacing = *r.Pacing
	}
	return mood
}

// RecommendResponse is the ranked answer to a RecommendRequest. Strategy
// names the ranker that produced the results, which differs from the
// requested one after a fallback.
type RecommendResponse struct {
	Success         bool             `json:"success"`
	Strategy        string           `json:"strategy"`
	K               int              `json:"k"`
	Metric          string           `json:"distance_metric"`
	Count           int              `json:"count"`
	Recommendations []ranking.Result `json:"recommendations"`
}

// Recommend ranks the catalog for req.
func (s *RecommendationService) Recommend(ctx context.Context, req *RecommendRequest) (*RecommendResponse, error) {
	strategy := req.Strategy
	if strategy == "" {
		strategy = s.defaultStrategy
	}
	ranker, ok := s.rankers[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategy)
	}

	k := req.K
	switch {
	case k == 0:
		k = s.defaultK
	case k > s.maxK:
		k = s.maxK
	}

	metric := s.metric
	if req.Metric != "" {
		parsed, err := vector.ParseMetric(req.Metric)
		if err != nil {
			return nil, err
		}
		metric = parsed
	}

	mood := req.Mood()
	if err := mood.Validate(); err != nil {
		return nil, err
	}

	ctx = logger.WithRanking(ctx, strategy, string(metric))

	start := time.Now()
	results, err := ranker.Rank(ctx, ranking.Query{Mood: mood, K: k, Metric: metric}, s.catalog.Movies())
	elapsed := time.Since(start)
	metrics.RecordRanking(strategy, elapsed, err)
	if err != nil {
		s.log(ctx).WithError(err).Warn("Ranking failed")
		return nil, err
	}

	produced := ranker.Name()
	if len(results) > 0 && results[0].Strategy != "" {
		produced = results[0].Strategy
	}

	logger.With(logger.Fields{logger.FieldK: k}).
		WithCount(len(results)).
		WithDuration(elapsed).
		Info(ctx, "Ranked catalog with %s", produced)

	return &RecommendResponse{
		Success:         true,
		Strategy:        produced,
		K:               k,
		Metric:          string(metric),
		Count:           len(results),
		Recommendations: results,
	}, nil
}

// RankVector runs local k-NN for an already encoded user vector. It never
// consults the remote ranker, so a peer calling this endpoint cannot loop.
func (s *RecommendationService) RankVector(ctx context.Context, user vector.Vector, k int, metric vector.Metric) ([]ranking.Result, error) {
	if k > s.maxK {
		k = s.maxK
	}
	start := time.Now()
	results, err := s.knn.RankVector(user, s.catalog.Movies(), k, metric)
	metrics.RecordRanking(ranking.StrategyKNN, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	logger.With(logger.Fields{logger.FieldK: k, logger.FieldMetric: string(metric)}).
		WithCount(len(results)).
		WithDuration(time.Since(start)).
		Debug(ctx, "Ranked vector")
	return results, nil
}

// RankBatch runs local k-NN for several user vectors.
func (s *RecommendationService) RankBatch(ctx context.Context, users []vector.Vector, k int, metric vector.Metric) ([][]ranking.Result, error) {
	if k > s.maxK {
		k = s.maxK
	}
	start := time.Now()
	results, err := s.knn.RankBatch(users, s.catalog.Movies(), k, metric)
	metrics.RecordRanking(ranking.StrategyKNN, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	logger.With(logger.Fields{logger.FieldK: k}).
		WithCount(len(users)).
		WithDuration(time.Since(start)).
		Debug(ctx, "Ranked vector batch")
	return results, nil
}

// Strategies returns the configured strategy names and the default one.
func (s *RecommendationService) Strategies() (names []string, def string) {
	for _, name := range []string{ranking.StrategyKNN, ranking.StrategyHeuristic, ranking.StrategyIndex} {
		if _, ok := s.rankers[name]; ok {
			names = append(names, name)
		}
	}
	return names, s.defaultStrategy
}

// IsRequestError reports whether err was caused by the request.
func IsRequestError(err error) bool {
	return ranking.IsCallerError(err) || errors.Is(err, ErrUnknownStrategy)
}
