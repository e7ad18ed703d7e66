package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/logger"
	"github.com/timmy/cinevibe/internal/metrics"
	"github.com/timmy/cinevibe/internal/source"
	"github.com/timmy/cinevibe/internal/storage"
	"github.com/timmy/cinevibe/internal/vector"
	_ "golang.org/x/image/webp"
)

// MovieStore is where ingested movies are written.
type MovieStore interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
	Upsert(ctx context.Context, movie *domain.Movie) error
}

// JobStore records ingest runs.
type JobStore interface {
	Create(ctx context.Context, job *domain.IngestJob) error
	Update(ctx context.Context, job *domain.IngestJob) error
}

// VectorStore indexes item vectors for the index ranking strategy.
type VectorStore interface {
	UpsertMovie(ctx context.Context, movie domain.Movie, v vector.Vector) error
	Delete(ctx context.Context, movieID string) error
}

// IngestService copies a catalog source into the movie database, optionally
// mirroring posters into object storage and indexing vectors in Qdrant.
type IngestService struct {
	movies    MovieStore
	jobs      JobStore
	index     VectorStore
	posters   storage.PosterStore
	http      *resty.Client
	logger    *logger.Logger
	workers   int
	batchSize int
}

// IngestConfig holds configuration for the ingest service
type IngestConfig struct {
	Workers         int
	BatchSize       int
	RetryCount      int
	DownloadTimeout time.Duration
}

// NewIngestService creates a new ingest service. jobs, index and posters may
// be nil to skip job records, vector indexing and poster mirroring.
func NewIngestService(
	movies MovieStore,
	jobs JobStore,
	index VectorStore,
	posters storage.PosterStore,
	log *logger.Logger,
	cfg *IngestConfig,
) *IngestService {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	client := resty.New().
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond)
	if cfg.DownloadTimeout > 0 {
		client.SetTimeout(cfg.DownloadTimeout)
	}

	return &IngestService{
		movies:    movies,
		jobs:      jobs,
		index:     index,
		posters:   posters,
		http:      client,
		logger:    log,
		workers:   workers,
		batchSize: batchSize,
	}
}

func (s *IngestService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// IngestStats holds statistics for an ingestion run
type IngestStats struct {
	JobID          string
	TotalItems     int
	ProcessedItems int
	SkippedItems   int
	FailedItems    int
	IndexedItems   int
	MirroredItems  int
	StartTime      time.Time
	EndTime        time.Time
}

// IngestOptions holds options for ingestion
type IngestOptions struct {
	Force bool // re-process movies that are already stored
}

type processResult struct {
	movieID  string
	skipped  bool
	indexed  bool
	mirrored bool
	err      error
}

// IngestFromSource ingests up to limit movies from src. limit <= 0 reads the
// whole source.
func (s *IngestService) IngestFromSource(ctx context.Context, src source.Source, limit int, opts *IngestOptions) (*IngestStats, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}

	stats := &IngestStats{
		JobID:     uuid.New().String(),
		StartTime: time.Now(),
	}
	ctx = logger.WithIngestJob(ctx, stats.JobID, src.GetSourceID())

	job := &domain.IngestJob{
		ID:        stats.JobID,
		SourceID:  src.GetSourceID(),
		Status:    domain.JobStatusRunning,
		StartedAt: stats.StartTime,
	}
	if s.jobs != nil {
		if err := s.jobs.Create(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to create ingest job: %w", err)
		}
	}

	s.log(ctx).WithFields(logger.Fields{
		"limit":  limit,
		"force":  opts.Force,
		"index":  s.index != nil,
		"mirror": s.posters != nil,
	}).Info("Starting ingestion")

	itemsChan := make(chan domain.Movie, s.workers*2)
	resultsChan := make(chan processResult, s.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, itemsChan, resultsChan, opts)
		}()
	}

	done := make(chan struct{})
	go func() {
		for result := range resultsChan {
			stats.ProcessedItems++
			switch {
			case result.skipped:
				stats.SkippedItems++
				metrics.RecordIngestItem("skipped")
			case result.err != nil:
				stats.FailedItems++
				metrics.RecordIngestItem("failed")
				s.log(ctx).WithField(logger.FieldMovieID, result.movieID).
					WithError(result.err).Error("Failed to process movie")
			default:
				metrics.RecordIngestItem("stored")
			}
			if result.indexed {
				stats.IndexedItems++
			}
			if result.mirrored {
				stats.MirroredItems++
			}
		}
		close(done)
	}()

	fetchErr := s.feed(ctx, src, limit, itemsChan, &stats.TotalItems)

	close(itemsChan)
	wg.Wait()
	close(resultsChan)
	<-done

	stats.EndTime = time.Now()

	runErr := fetchErr
	if runErr == nil {
		runErr = ctx.Err()
	}
	if s.jobs != nil {
		job.Processed = stats.ProcessedItems
		job.Skipped = stats.SkippedItems
		job.Failed = stats.FailedItems
		job.Indexed = stats.IndexedItems
		job.Mirrored = stats.MirroredItems
		job.Finish(stats.EndTime, runErr)
		// The run context may be cancelled; the job record is still written.
		if err := s.jobs.Update(context.WithoutCancel(ctx), job); err != nil {
			s.log(ctx).WithError(err).Error("Failed to update ingest job")
		}
	}

	s.log(ctx).WithFields(logger.Fields{
		"total":     stats.TotalItems,
		"processed": stats.ProcessedItems,
		"skipped":   stats.SkippedItems,
		"failed":    stats.FailedItems,
		"indexed":   stats.IndexedItems,
		"mirrored":  stats.MirroredItems,
		"duration":  stats.EndTime.Sub(stats.StartTime).String(),
	}).Info("Ingestion completed")

	return stats, runErr
}

// feed pages src into items until the source, the limit or ctx runs out.
func (s *IngestService) feed(ctx context.Context, src source.Source, limit int, items chan<- domain.Movie, total *int) error {
	cursor := ""
	fetched := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		batchLimit := s.batchSize
		if limit > 0 {
			remaining := limit - fetched
			if remaining <= 0 {
				return nil
			}
			if batchLimit > remaining {
				batchLimit = remaining
			}
		}

		batch, next, err := src.FetchBatch(ctx, cursor, batchLimit)
		if err != nil {
			return fmt.Errorf("failed to fetch batch: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		*total += len(batch)
		fetched += len(batch)

		for _, item := range batch {
			select {
			case items <- item:
			case <-ctx.Done():
				return nil
			}
		}

		if next == "" {
			return nil
		}
		cursor = next
	}
}

func (s *IngestService) worker(ctx context.Context, items <-chan domain.Movie, results chan<- processResult, opts *IngestOptions) {
	for item := range items {
		if ctx.Err() != nil {
			continue
		}
		results <- s.processItem(ctx, item, opts)
	}
}

func (s *IngestService) processItem(ctx context.Context, movie domain.Movie, opts *IngestOptions) processResult {
	result := processResult{movieID: movie.ID}
	if movie.ID == "" {
		result.err = errors.New("movie id is required")
		return result
	}

	if !opts.Force {
		exists, err := s.movies.ExistsByID(ctx, movie.ID)
		if err != nil {
			result.err = fmt.Errorf("failed to check existence: %w", err)
			return result
		}
		if exists {
			result.skipped = true
			return result
		}
	}

	v := vector.EncodeItemVector(movie)
	if err := vector.CheckVector(v); err != nil {
		if s.index != nil {
			if delErr := s.index.Delete(ctx, movie.ID); delErr != nil {
				s.log(ctx).WithField(logger.FieldMovieID, movie.ID).WithError(delErr).Warn("Failed to drop stale vector")
			}
		}
		result.err = fmt.Errorf("movie %s: %w", movie.ID, err)
		return result
	}

	if s.posters != nil && movie.Poster != "" {
		if err := s.mirrorPoster(ctx, &movie); err != nil {
			s.log(ctx).WithField(logger.FieldMovieID, movie.ID).WithError(err).Warn("Failed to mirror poster")
		} else {
			result.mirrored = true
		}
	}

	if s.index != nil {
		if err := s.index.UpsertMovie(ctx, movie, v); err != nil {
			result.err = fmt.Errorf("failed to index vector: %w", err)
			return result
		}
		result.indexed = true
	}

	if err := s.movies.Upsert(ctx, &movie); err != nil {
		if result.indexed {
			if delErr := s.index.Delete(ctx, movie.ID); delErr != nil {
				s.log(ctx).WithField(logger.FieldMovieID, movie.ID).WithError(delErr).Error("Failed to rollback vector upsert")
			}
			result.indexed = false
		}
		result.err = fmt.Errorf("failed to save movie: %w", err)
	}
	return result
}

// mirrorPoster copies the poster into the poster store and points
// movie.Poster at the mirrored copy.
func (s *IngestService) mirrorPoster(ctx context.Context, movie *domain.Movie) error {
	resp, err := s.http.R().SetContext(ctx).Get(movie.Poster)
	if err != nil {
		return fmt.Errorf("failed to download poster: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to download poster: status %d", resp.StatusCode())
	}
	data := resp.Body()

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode poster: %w", err)
	}

	key, url, err := s.posters.PutPoster(ctx, storage.Poster{
		MovieID: movie.ID,
		Data:    data,
		Format:  format,
	})
	if err != nil {
		return err
	}

	movie.PosterKey = key
	movie.PosterWidth = cfg.Width
	movie.PosterHeight = cfg.Height
	movie.Poster = url
	return nil
}
