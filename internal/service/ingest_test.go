package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/logger"
	"github.com/timmy/cinevibe/internal/source"
	"github.com/timmy/cinevibe/internal/storage"
	"github.com/timmy/cinevibe/internal/vector"
)

type memoryMovies struct {
	mu      sync.Mutex
	movies  map[string]domain.Movie
	failIDs map[string]bool
}

func newMemoryMovies() *memoryMovies {
	return &memoryMovies{movies: make(map[string]domain.Movie), failIDs: make(map[string]bool)}
}

func (m *memoryMovies) ExistsByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.movies[id]
	return ok, nil
}

func (m *memoryMovies) Upsert(_ context.Context, movie *domain.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[movie.ID] {
		return errors.New("write failed")
	}
	m.movies[movie.ID] = movie.Clone()
	return nil
}

type memoryJobs struct {
	created, updated []domain.IngestJob
}

func (j *memoryJobs) Create(_ context.Context, job *domain.IngestJob) error {
	j.created = append(j.created, *job)
	return nil
}

func (j *memoryJobs) Update(_ context.Context, job *domain.IngestJob) error {
	j.updated = append(j.updated, *job)
	return nil
}

type memoryIndex struct {
	mu      sync.Mutex
	vectors map[string]vector.Vector
	deleted []string
}

func (i *memoryIndex) UpsertMovie(_ context.Context, movie domain.Movie, v vector.Vector) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.vectors[movie.ID] = v
	return nil
}

func (i *memoryIndex) Delete(_ context.Context, movieID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.vectors, movieID)
	i.deleted = append(i.deleted, movieID)
	return nil
}

type memoryPosters struct {
	mu      sync.Mutex
	objects map[string]storage.Poster
}

func (s *memoryPosters) PutPoster(_ context.Context, p storage.Poster) (string, string, error) {
	key := storage.PosterKey(p.Data, p.Format)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = p
	return key, "https://cdn.test/" + key, nil
}

type sliceSource struct {
	movies []domain.Movie
}

func (s sliceSource) GetSourceID() string    { return "test" }
func (s sliceSource) GetDisplayName() string { return "Test" }
func (s sliceSource) FetchBatch(_ context.Context, cursor string, limit int) ([]domain.Movie, string, error) {
	return source.SliceBatch(s.movies, cursor, limit)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestIngestFromSource(t *testing.T) {
	poster := pngBytes(t, 4, 6)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(poster)
	}))
	defer srv.Close()

	movies := newMemoryMovies()
	movies.movies["existing"] = domain.Movie{ID: "existing", Title: "Old"}
	movies.failIDs["broken-db"] = true
	jobs := &memoryJobs{}
	index := &memoryIndex{vectors: make(map[string]vector.Vector)}
	store := &memoryPosters{objects: make(map[string]storage.Poster)}

	src := sliceSource{movies: []domain.Movie{
		{ID: "a", Title: "A", Poster: srv.URL + "/a.png", Tags: domain.StringArray{"cozy"}, Hue: domain.Float(40)},
		{ID: "b", Title: "B", Poster: srv.URL + "/missing.png"},
		{ID: "existing", Title: "Existing"},
		{ID: "bad-vector", Title: "Bad", Tempo: domain.Float(3)},
		{ID: "broken-db", Title: "Broken"},
	}}

	svc := NewIngestService(movies, jobs, index, store, logger.GetDefault(), &IngestConfig{Workers: 2, BatchSize: 2})
	stats, err := svc.IngestFromSource(context.Background(), src, 0, nil)
	if err != nil {
		t.Fatalf("IngestFromSource: %v", err)
	}

	if stats.TotalItems != 5 || stats.ProcessedItems != 5 {
		t.Errorf("total/processed = %d/%d", stats.TotalItems, stats.ProcessedItems)
	}
	if stats.SkippedItems != 1 || stats.FailedItems != 2 {
		t.Errorf("skipped/failed = %d/%d, want 1/2", stats.SkippedItems, stats.FailedItems)
	}
	if stats.IndexedItems != 2 || stats.MirroredItems != 1 {
		t.Errorf("indexed/mirrored = %d/%d, want 2/1", stats.IndexedItems, stats.MirroredItems)
	}

	a := movies.movies["a"]
	if a.PosterWidth != 4 || a.PosterHeight != 6 || !strings.HasPrefix(a.PosterKey, "posters/") {
		t.Errorf("poster not mirrored: %+v", a)
	}
	if a.Poster != "https://cdn.test/"+a.PosterKey {
		t.Errorf("Poster = %q", a.Poster)
	}
	if p := store.objects[a.PosterKey]; p.MovieID != "a" || p.Format != "png" || !strings.HasSuffix(a.PosterKey, ".png") {
		t.Errorf("stored poster = %s %q under %q", p.MovieID, p.Format, a.PosterKey)
	}
	if b := movies.movies["b"]; b.Poster != srv.URL+"/missing.png" || b.PosterKey != "" {
		t.Errorf("failed mirror changed movie: %+v", b)
	}
	if movies.movies["existing"].Title != "Old" {
		t.Error("existing movie overwritten without force")
	}
	if _, ok := index.vectors["broken-db"]; ok {
		t.Error("vector for unsaved movie not rolled back")
	}
	if _, ok := index.vectors["a"]; !ok {
		t.Error("movie a not indexed")
	}

	if len(jobs.created) != 1 || len(jobs.updated) != 1 {
		t.Fatalf("jobs created/updated = %d/%d", len(jobs.created), len(jobs.updated))
	}
	job := jobs.updated[0]
	if job.ID != stats.JobID || job.Status != domain.JobStatusCompleted || job.Failed != 2 || job.CompletedAt == nil {
		t.Errorf("job = %+v", job)
	}
}

func TestIngestForceAndLimit(t *testing.T) {
	movies := newMemoryMovies()
	movies.movies["a"] = domain.Movie{ID: "a", Title: "Old"}
	src := sliceSource{movies: []domain.Movie{{ID: "a", Title: "New"}, {ID: "b"}, {ID: "c"}}}

	svc := NewIngestService(movies, nil, nil, nil, logger.GetDefault(), &IngestConfig{Workers: 1, BatchSize: 10})
	stats, err := svc.IngestFromSource(context.Background(), src, 2, &IngestOptions{Force: true})
	if err != nil {
		t.Fatalf("IngestFromSource: %v", err)
	}
	if stats.TotalItems != 2 || stats.SkippedItems != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if movies.movies["a"].Title != "New" {
		t.Error("force did not overwrite")
	}
	if _, ok := movies.movies["c"]; ok {
		t.Error("limit exceeded")
	}
}

func TestIngestFetchErrorFailsJob(t *testing.T) {
	jobs := &memoryJobs{}
	svc := NewIngestService(newMemoryMovies(), jobs, nil, nil, logger.GetDefault(), &IngestConfig{})
	_, err := svc.IngestFromSource(context.Background(), brokenSource{}, 0, nil)
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if len(jobs.updated) != 1 || jobs.updated[0].Status != domain.JobStatusFailed {
		t.Fatalf("jobs = %+v", jobs.updated)
	}
}

type brokenSource struct{}

func (brokenSource) GetSourceID() string    { return "broken" }
func (brokenSource) GetDisplayName() string { return "Broken" }
func (brokenSource) FetchBatch(context.Context, string, int) ([]domain.Movie, string, error) {
	return nil, "", errors.New("unreachable")
}
