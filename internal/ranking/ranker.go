// Package ranking orders a movie catalog against a mood.
//
// Every strategy implements Ranker. KNN and Heuristic are pure and run
// in-process; Remote delegates to another ranking service; Index searches a
// Qdrant collection; Fallback composes two rankers so a failing primary is
// always backed by a local one.
package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/vector"
)

// Strategy names.
const (
	StrategyKNN       = "knn"
	StrategyHeuristic = "heuristic"
	StrategyRemote    = "remote"
	StrategyIndex     = "index"
)

var (
	// ErrInvalidK is returned for a non-positive neighbour count.
	ErrInvalidK = errors.New("k must be a positive integer")
	// ErrEmptyResult is returned by rankers that produced nothing to show.
	ErrEmptyResult = errors.New("ranking returned no results")
	// ErrInvalidItem is returned when a catalog movie cannot be encoded. It
	// wraps the underlying vector error.
	ErrInvalidItem = errors.New("invalid catalog item")
)

// Query is one ranking request.
type Query struct {
	Mood   domain.Mood
	K      int
	Metric vector.Metric
}

// Result is a catalog movie annotated for one ranking call. The embedded
// Movie is a copy; the catalog is never modified.
//
// Score scales differ by strategy: similarity x 100 for vector rankers, an
// unbounded additive total for the heuristic. Compare scores only within one
// Strategy.
type Result struct {
	domain.Movie
	Distance   float64 `json:"_distance"`
	Similarity float64 `json:"_similarity"`
	Score      float64 `json:"_score"`
	Strategy   string  `json:"-"`
}

// Ranker orders catalog for q.
type Ranker interface {
	Name() string
	Rank(ctx context.Context, q Query, catalog []domain.Movie) ([]Result, error)
}

func checkK(k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	return nil
}

// IsCallerError reports whether err was caused by the request itself rather
// than by a ranker, its dependencies or the catalog.
func IsCallerError(err error) bool {
	if errors.Is(err, ErrInvalidItem) {
		return false
	}
	return errors.Is(err, ErrInvalidK) ||
		errors.Is(err, vector.ErrInvalidVector) ||
		errors.Is(err, vector.ErrUnknownMetric) ||
		errors.Is(err, domain.ErrInvalidMood)
}
