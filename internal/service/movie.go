package service

import (
	"github.com/timmy/cinevibe/internal/catalog"
	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/ranking"
	"github.com/timmy/cinevibe/internal/vector"
)

// MovieService serves read-only catalog browsing.
type MovieService struct {
	catalog *catalog.Catalog
}

// NewMovieService creates a new MovieService.
func NewMovieService(cat *catalog.Catalog) *MovieService {
	return &MovieService{catalog: cat}
}

// MovieListResponse is a page of catalog movies.
type MovieListResponse struct {
	Movies []domain.Movie `json:"movies"`
	Count  int            `json:"count"`
	Total  int            `json:"total"`
}

// ListMovies returns the movies whose title contains query, or every movie
// when query is empty.
func (s *MovieService) ListMovies(query string) *MovieListResponse {
	movies := s.catalog.Search(query)
	if movies == nil {
		movies = []domain.Movie{}
	}
	return &MovieListResponse{
		Movies: movies,
		Count:  len(movies),
		Total:  s.catalog.Len(),
	}
}

// GetMovie returns one movie; the error wraps catalog.ErrNotFound.
func (s *MovieService) GetMovie(id string) (domain.Movie, error) {
	return s.catalog.Get(id)
}

// Count returns the catalog size.
func (s *MovieService) Count() int {
	return s.catalog.Len()
}

// Stats returns catalog statistics.
func (s *MovieService) Stats() catalog.Stats {
	return s.catalog.Stats()
}

// Vocabulary lists the words a mood request understands.
type Vocabulary struct {
	Descriptors []string            `json:"descriptors"`
	Features    []string            `json:"features"`
	Synonyms    map[string][]string `json:"synonyms"`
	Metrics     []string            `json:"metrics"`
}

// Vocabulary returns the descriptor vocabulary and synonym table.
func (s *MovieService) Vocabulary() Vocabulary {
	return Vocabulary{
		Descriptors: vector.Descriptors(),
		Features:    vector.FeatureNames(),
		Synonyms:    ranking.Synonyms(),
		Metrics:     []string{string(vector.MetricEuclidean), string(vector.MetricCosine)},
	}
}
