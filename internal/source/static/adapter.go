// Package static serves the built-in five-movie catalog.
package static

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/source"
)

//go:embed movies.json
var moviesJSON []byte

// Adapter implements source.Source over the embedded catalog.
type Adapter struct {
	movies []domain.Movie
}

// NewAdapter decodes the embedded catalog.
func NewAdapter() (*Adapter, error) {
	var movies []domain.Movie
	if err := json.Unmarshal(moviesJSON, &movies); err != nil {
		return nil, fmt.Errorf("failed to decode embedded catalog: %w", err)
	}
	return &Adapter{movies: movies}, nil
}

// Movies returns a copy of the embedded catalog.
func Movies() []domain.Movie {
	a, err := NewAdapter()
	if err != nil {
		panic(err)
	}
	out := make([]domain.Movie, len(a.movies))
	for i, m := range a.movies {
		out[i] = m.Clone()
	}
	return out
}

// GetSourceID returns "static".
func (a *Adapter) GetSourceID() string {
	return "static"
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return "Built-in catalog"
}

// FetchBatch pages the embedded catalog.
func (a *Adapter) FetchBatch(_ context.Context, cursor string, limit int) ([]domain.Movie, string, error) {
	return source.SliceBatch(a.movies, cursor, limit)
}
