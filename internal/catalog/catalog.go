// Package catalog holds the loaded movie catalog. A Catalog is immutable once
// built and is shared read-only by every request.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/source"
	"github.com/timmy/cinevibe/internal/vector"
)

var (
	// ErrNotFound is returned when no movie has the requested id.
	ErrNotFound = errors.New("movie not found")
	// ErrDuplicateID is returned when two movies share an id.
	ErrDuplicateID = errors.New("duplicate movie id")
	// ErrMissingID is returned for a movie with an empty id.
	ErrMissingID = errors.New("movie id is required")
)

// Catalog is an ordered, id-indexed set of movies.
type Catalog struct {
	movies []domain.Movie
	byID   map[string]int
}

// New builds a catalog from movies, keeping their order. The input is copied.
func New(movies []domain.Movie) (*Catalog, error) {
	c := &Catalog{
		movies: make([]domain.Movie, 0, len(movies)),
		byID:   make(map[string]int, len(movies)),
	}
	for _, m := range movies {
		if m.ID == "" {
			return nil, fmt.Errorf("%w (title %q)", ErrMissingID, m.Title)
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, m.ID)
		}
		c.byID[m.ID] = len(c.movies)
		c.movies = append(c.movies, m.Clone())
	}
	return c, nil
}

// Load reads every batch of src into a new catalog.
func Load(ctx context.Context, src source.Source, batchSize int) (*Catalog, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	var (
		movies []domain.Movie
		cursor string
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, next, err := src.FetchBatch(ctx, cursor, batchSize)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", src.GetSourceID(), err)
		}
		movies = append(movies, batch...)
		if next == "" {
			break
		}
		cursor = next
	}
	return New(movies)
}

// Len returns the number of movies.
func (c *Catalog) Len() int {
	return len(c.movies)
}

// Movies returns a copy of the catalog in load order.
func (c *Catalog) Movies() []domain.Movie {
	out := make([]domain.Movie, len(c.movies))
	for i, m := range c.movies {
		out[i] = m.Clone()
	}
	return out
}

// Get returns the movie with id.
func (c *Catalog) Get(id string) (domain.Movie, error) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Movie{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.movies[i].Clone(), nil
}

// Search returns the movies whose title contains q, ignoring case, in
// catalog order. An empty query matches everything.
func (c *Catalog) Search(q string) []domain.Movie {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return c.Movies()
	}
	var out []domain.Movie
	for _, m := range c.movies {
		if strings.Contains(strings.ToLower(m.Title), q) {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Stats summarizes the catalog for the browse page.
type Stats struct {
	Movies         int            `json:"movies"`
	MoodCategories []string       `json:"mood_categories"`
	Features       []string       `json:"features"`
	Descriptors    map[string]int `json:"descriptors"`
	Tags           []TagCount     `json:"tags"`
	Sources        map[string]int `json:"sources,omitempty"`
}

// TagCount is the number of movies carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats counts movies per canonical descriptor, raw tag and source.
// Tags are ordered by count, then name.
func (c *Catalog) Stats() Stats {
	st := Stats{
		Movies:         len(c.movies),
		MoodCategories: vector.Descriptors(),
		Features:       vector.FeatureNames(),
		Descriptors:    make(map[string]int),
		Sources:        make(map[string]int),
	}
	for _, d := range st.MoodCategories {
		st.Descriptors[d] = 0
	}

	tags := make(map[string]int)
	for _, m := range c.movies {
		seen := make(map[string]bool, len(m.Tags))
		moods := make(map[int]bool, len(m.Tags))
		for _, tag := range m.Tags {
			if seen[tag] {
				continue
			}
			seen[tag] = true
			tags[tag]++
			if idx := vector.DescriptorIndex(tag); idx >= 0 && !moods[idx] {
				moods[idx] = true
				st.Descriptors[st.MoodCategories[idx]]++
			}
		}
		if m.SourceType != "" {
			st.Sources[m.SourceType]++
		}
	}

	st.Tags = make([]TagCount, 0, len(tags))
	for tag, n := range tags {
		st.Tags = append(st.Tags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(st.Tags, func(i, j int) bool {
		if st.Tags[i].Count != st.Tags[j].Count {
			return st.Tags[i].Count > st.Tags[j].Count
		}
		return st.Tags[i].Tag < st.Tags[j].Tag
	})
	return st
}
