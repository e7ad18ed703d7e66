// Package database reads the catalog back out of the movies table filled by
// the ingester.
package database

import (
	"context"
	"fmt"
	"strconv"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/source"
)

// MovieLister pages stored movies in a stable order.
type MovieLister interface {
	List(ctx context.Context, offset, limit int) ([]domain.Movie, error)
}

// Adapter implements source.Source over a MovieLister.
type Adapter struct {
	movies MovieLister
}

// NewAdapter creates a database-backed source.
func NewAdapter(movies MovieLister) *Adapter {
	return &Adapter{movies: movies}
}

// GetSourceID returns "database".
func (a *Adapter) GetSourceID() string {
	return "database"
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return "Catalog database"
}

// FetchBatch reads one page of stored movies. The cursor is a row offset; a
// short page ends the scan.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]domain.Movie, string, error) {
	offset, err := source.ParseOffset(cursor)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		return nil, "", fmt.Errorf("limit must be positive, got %d", limit)
	}

	movies, err := a.movies.List(ctx, offset, limit)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list movies: %w", err)
	}
	if len(movies) < limit {
		return movies, "", nil
	}
	return movies, strconv.Itoa(offset + len(movies)), nil
}
