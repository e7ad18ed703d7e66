// Package file reads a catalog from a JSON array or JSON Lines manifest.
package file

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/source"
)

// Adapter implements source.Source for a manifest on disk. Files ending in
// .jsonl are read line by line; anything else must hold a JSON array.
type Adapter struct {
	path   string
	movies []domain.Movie
	loaded bool
}

// NewAdapter creates an adapter for path. Nothing is read until the first
// FetchBatch.
func NewAdapter(path string) *Adapter {
	return &Adapter{path: path}
}

// GetSourceID returns "file:" plus the manifest's base name.
func (a *Adapter) GetSourceID() string {
	return "file:" + filepath.Base(a.path)
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Manifest (%s)", a.path)
}

// FetchBatch loads the manifest on first use and pages it.
func (a *Adapter) FetchBatch(_ context.Context, cursor string, limit int) ([]domain.Movie, string, error) {
	if !a.loaded {
		if err := a.load(); err != nil {
			return nil, "", fmt.Errorf("failed to load manifest: %w", err)
		}
		a.loaded = true
	}
	return source.SliceBatch(a.movies, cursor, limit)
}

func (a *Adapter) load() error {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return err
	}

	if strings.HasSuffix(strings.ToLower(a.path), ".jsonl") {
		a.movies, err = decodeLines(data)
	} else {
		err = json.Unmarshal(data, &a.movies)
	}
	if err != nil {
		return err
	}

	for i, m := range a.movies {
		if strings.TrimSpace(m.ID) == "" {
			return fmt.Errorf("entry %d has no id", i)
		}
	}
	return nil
}

// decodeLines parses JSON Lines, skipping blank lines. A malformed line is an
// error naming its line number.
func decodeLines(data []byte) ([]domain.Movie, error) {
	var movies []domain.Movie
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var m domain.Movie
		if err := json.Unmarshal(text, &m); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		movies = append(movies, m)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	return movies, nil
}
