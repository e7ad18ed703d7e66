package ranking

import (
	"context"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/logger"
	"github.com/timmy/cinevibe/internal/metrics"
)

// Fallback tries Primary and, when it fails or returns nothing, answers the
// same query with Secondary. Secondary's error is returned as is.
type Fallback struct {
	Primary   Ranker
	Secondary Ranker
}

// NewFallback composes primary and secondary.
func NewFallback(primary, secondary Ranker) *Fallback {
	return &Fallback{Primary: primary, Secondary: secondary}
}

// Name returns the primary's name.
func (f *Fallback) Name() string {
	return f.Primary.Name()
}

// Rank implements Ranker.
func (f *Fallback) Rank(ctx context.Context, q Query, catalog []domain.Movie) ([]Result, error) {
	results, err := f.Primary.Rank(ctx, q, catalog)
	if err == nil && len(results) > 0 {
		return results, nil
	}

	log := logger.FromContext(ctx).WithFields(logger.Fields{
		"primary":   f.Primary.Name(),
		"secondary": f.Secondary.Name(),
	})
	if err != nil {
		log = log.WithError(err)
	}
	log.Warn("Primary ranker unavailable, falling back")
	metrics.RecordFallback(f.Primary.Name(), f.Secondary.Name())

	return f.Secondary.Rank(ctx, q, catalog)
}
