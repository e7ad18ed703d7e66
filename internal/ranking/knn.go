package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/vector"
)

// KNN ranks movies by distance between their item vector and the user vector.
type KNN struct{}

// NewKNN returns the in-process k-nearest-neighbour ranker.
func NewKNN() *KNN {
	return &KNN{}
}

// Name returns "knn".
func (*KNN) Name() string {
	return StrategyKNN
}

// Rank encodes q.Mood and returns the q.K nearest movies.
func (r *KNN) Rank(_ context.Context, q Query, catalog []domain.Movie) ([]Result, error) {
	return r.RankVector(vector.EncodeUserVector(q.Mood), catalog, q.K, q.Metric)
}

// RankVector returns the min(k, len(catalog)) movies nearest to user, sorted by
// ascending distance. Ties keep catalog order.
func (r *KNN) RankVector(user vector.Vector, catalog []domain.Movie, k int, metric vector.Metric) ([]Result, error) {
	if err := vector.CheckVector(user); err != nil {
		return nil, fmt.Errorf("user vector: %w", err)
	}
	if err := checkK(k); err != nil {
		return nil, err
	}
	m, err := vector.ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(catalog))
	for _, movie := range catalog {
		item := vector.EncodeItemVector(movie)
		if err := vector.CheckVector(item); err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidItem, movie.ID, err)
		}
		distance, similarity, err := m.Measure(user, item)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidItem, movie.ID, err)
		}
		results = append(results, Result{
			Movie:      movie.Clone(),
			Distance:   distance,
			Similarity: similarity,
			Score:      similarity * 100,
			Strategy:   StrategyKNN,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// RankBatch ranks several user vectors against the same catalog. The first
// failure aborts the batch.
func (r *KNN) RankBatch(users []vector.Vector, catalog []domain.Movie, k int, metric vector.Metric) ([][]Result, error) {
	out := make([][]Result, 0, len(users))
	for i, u := range users {
		results, err := r.RankVector(u, catalog, k, metric)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		out = append(out, results)
	}
	return out, nil
}
