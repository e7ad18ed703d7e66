// Package tmdb pages popular movies out of The Movie Database's discover API.
// Genres become descriptor tags; hue, tempo and edge are left unset.
package tmdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/cinevibe/internal/domain"
)

const discoverPath = "/discover/movie"

// genreTags maps TMDB genre ids to catalog tags.
var genreTags = map[int][]string{
	12:    {"upbeat"},                 // Adventure
	14:    {"surreal", "dreamlike"},   // Fantasy
	16:    {"cozy"},                   // Animation
	18:    {"drama", "melancholic"},   // Drama
	27:    {"gritty"},                 // Horror
	28:    {"gritty"},                 // Action
	35:    {"upbeat", "feel-good"},    // Comedy
	53:    {"mysterious", "thriller"}, // Thriller
	80:    {"gritty", "crime"},        // Crime
	878:   {"mysterious"},             // Science Fiction
	9648:  {"mysterious", "noir"},     // Mystery
	10402: {"upbeat", "music"},        // Music
	10749: {"romantic"},               // Romance
	10751: {"cozy", "light"},          // Family
}

// Config configures the adapter.
type Config struct {
	APIKey    string
	BaseURL   string
	ImageBase string
	Language  string
	MaxPages  int
	Timeout   time.Duration
}

type discoverResponse struct {
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Results    []movieResult `json:"results"`
}

type movieResult struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
	ReleaseDate string `json:"release_date"`
	GenreIDs    []int  `json:"genre_ids"`
}

type errorResponse struct {
	StatusMessage string `json:"status_message"`
}

// Adapter implements source.Source over the discover endpoint. The cursor is
// the next page number.
type Adapter struct {
	client    *resty.Client
	baseURL   string
	imageBase string
	language  string
	maxPages  int
}

// NewAdapter creates a TMDB adapter.
func NewAdapter(cfg Config) *Adapter {
	client := resty.New()
	client.SetHeader("Accept", "application/json")
	client.SetQueryParam("api_key", cfg.APIKey)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	return &Adapter{
		client:    client,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		imageBase: strings.TrimRight(cfg.ImageBase, "/"),
		language:  cfg.Language,
		maxPages:  maxPages,
	}
}

// GetSourceID returns "tmdb".
func (a *Adapter) GetSourceID() string {
	return "tmdb"
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return "The Movie Database"
}

// FetchBatch fetches one discover page. limit caps the items kept from it.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]domain.Movie, string, error) {
	page := 1
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 1 {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
		page = n
	}

	var resp discoverResponse
	var apiErr errorResponse
	httpResp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":          strconv.Itoa(page),
			"language":      a.language,
			"sort_by":       "popularity.desc",
			"include_adult": "false",
		}).
		SetResult(&resp).
		SetError(&apiErr).
		Get(a.baseURL + discoverPath)

	if err != nil {
		return nil, "", fmt.Errorf("failed to call TMDB: %w", err)
	}
	if httpResp.IsError() {
		if apiErr.StatusMessage != "" {
			return nil, "", fmt.Errorf("TMDB error: %s", apiErr.StatusMessage)
		}
		return nil, "", fmt.Errorf("TMDB error: status %d", httpResp.StatusCode())
	}

	movies := make([]domain.Movie, 0, len(resp.Results))
	for _, r := range resp.Results {
		if limit > 0 && len(movies) >= limit {
			break
		}
		movies = append(movies, a.toMovie(r))
	}

	next := ""
	if page < resp.TotalPages && page < a.maxPages {
		next = strconv.Itoa(page + 1)
	}
	return movies, next, nil
}

func (a *Adapter) toMovie(r movieResult) domain.Movie {
	m := domain.Movie{
		ID:         "tmdb-" + strconv.Itoa(r.ID),
		Title:      r.Title,
		Overview:   r.Overview,
		Tags:       tagsForGenres(r.GenreIDs),
		SourceType: "tmdb",
	}
	if r.PosterPath != "" {
		m.Poster = a.imageBase + r.PosterPath
	}
	if len(r.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(r.ReleaseDate[:4]); err == nil {
			m.Year = year
		}
	}
	return m
}

// tagsForGenres maps genre ids to tags, keeping first-seen order.
func tagsForGenres(ids []int) domain.StringArray {
	tags := domain.StringArray{}
	seen := map[string]bool{}
	for _, id := range ids {
		for _, tag := range genreTags[id] {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
