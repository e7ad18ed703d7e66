// Package source defines pluggable catalog sources. Each adapter pages movies
// out of one backing store; catalog.Load and the ingester consume them.
package source

import (
	"context"
	"fmt"
	"strconv"

	"github.com/timmy/cinevibe/internal/domain"
)

// Source defines the interface for movie catalog sources.
type Source interface {
	// GetSourceID returns a stable identifier such as "static" or "file:movies.json".
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	GetDisplayName() string

	// FetchBatch fetches up to limit movies starting at cursor ("" for the
	// first page). nextCursor is "" once the source is exhausted.
	FetchBatch(ctx context.Context, cursor string, limit int) (items []domain.Movie, nextCursor string, err error)
}

// SliceBatch pages an in-memory slice with a numeric offset cursor.
func SliceBatch(items []domain.Movie, cursor string, limit int) ([]domain.Movie, string, error) {
	start, err := ParseOffset(cursor)
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 {
		return nil, "", fmt.Errorf("limit must be positive, got %d", limit)
	}
	if start >= len(items) {
		return []domain.Movie{}, "", nil
	}

	end := start + limit
	if end > len(items) {
		end = len(items)
	}

	batch := make([]domain.Movie, 0, end-start)
	for _, m := range items[start:end] {
		batch = append(batch, m.Clone())
	}

	next := ""
	if end < len(items) {
		next = strconv.Itoa(end)
	}
	return batch, next, nil
}

// ParseOffset decodes a numeric offset cursor. "" is offset 0.
func ParseOffset(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid cursor %q", cursor)
	}
	return n, nil
}
