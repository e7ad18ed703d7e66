package ranking

import (
	"context"
	"fmt"
	"sort"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/vector"
)

// VectorIndex searches stored item vectors. For MetricEuclidean the hit score
// is a distance; for MetricCosine it is a similarity.
type VectorIndex interface {
	Search(ctx context.Context, v vector.Vector, limit int, metric vector.Metric) ([]domain.VectorHit, error)
}

// Index is a k-NN ranker backed by a vector index instead of a linear scan.
type Index struct {
	index VectorIndex
}

// NewIndex wraps idx as a Ranker.
func NewIndex(idx VectorIndex) *Index {
	return &Index{index: idx}
}

// Name returns "index".
func (*Index) Name() string {
	return StrategyIndex
}

// Rank searches the index and keeps the q.K nearest hits for movies present
// in catalog, sorted by ascending distance with catalog order breaking ties.
func (r *Index) Rank(ctx context.Context, q Query, catalog []domain.Movie) ([]Result, error) {
	user := vector.EncodeUserVector(q.Mood)
	if err := vector.CheckVector(user); err != nil {
		return nil, fmt.Errorf("user vector: %w", err)
	}
	if err := checkK(q.K); err != nil {
		return nil, err
	}
	metric, err := vector.ParseMetric(string(q.Metric))
	if err != nil {
		return nil, err
	}

	// Points for movies no longer in the catalog are skipped below, so ask
	// for enough hits to fill k from live movies.
	limit := q.K
	if len(catalog) > limit {
		limit = len(catalog)
	}
	hits, err := r.index.Search(ctx, user, limit, metric)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	pos := make(map[string]int, len(catalog))
	for i, m := range catalog {
		pos[m.ID] = i
	}

	type ranked struct {
		Result
		pos int
	}
	matched := make([]ranked, 0, len(hits))
	for _, hit := range hits {
		i, ok := pos[hit.MovieID]
		if !ok {
			continue
		}
		var distance, similarity float64
		if metric == vector.MetricCosine {
			similarity = hit.Score
			distance = vector.SimilarityToDistance(similarity)
		} else {
			distance = hit.Score
			similarity = vector.EuclideanSimilarity(distance)
		}
		matched = append(matched, ranked{
			Result: Result{
				Movie:      catalog[i].Clone(),
				Distance:   distance,
				Similarity: similarity,
				Score:      similarity * 100,
				Strategy:   StrategyIndex,
			},
			pos: i,
		})
	}
	if len(matched) == 0 {
		return nil, ErrEmptyResult
	}

	sort.SliceStable(matched, func(a, b int) bool {
		if matched[a].Distance != matched[b].Distance {
			return matched[a].Distance < matched[b].Distance
		}
		return matched[a].pos < matched[b].pos
	})

	if len(matched) > q.K {
		matched = matched[:q.K]
	}
	results := make([]Result, len(matched))
	for i, m := range matched {
		results[i] = m.Result
	}
	return results, nil
}
