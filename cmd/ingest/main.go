package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/cinevibe/internal/catalog"
	"github.com/timmy/cinevibe/internal/config"
	"github.com/timmy/cinevibe/internal/logger"
	"github.com/timmy/cinevibe/internal/repository"
	"github.com/timmy/cinevibe/internal/service"
	"github.com/timmy/cinevibe/internal/storage"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "cinevibe-ingest",
	})
	logger.SetDefaultLogger(appLogger)

	sourceType := flag.String("source", "", "Catalog source to ingest from (static, file, tmdb); defaults to catalog.source")
	path := flag.String("path", "", "Manifest path for the file source")
	limit := flag.Int("limit", 0, "Maximum number of movies to ingest (0 = all)")
	force := flag.Bool("force", false, "Re-process movies that are already stored")
	mirror := flag.Bool("mirror", false, "Mirror posters into object storage (overrides ingest.mirror_posters)")
	index := flag.Bool("index", false, "Index vectors in Qdrant (overrides ingest.index_vectors)")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if *sourceType != "" {
		cfg.Catalog.Source = *sourceType
	}
	if *path != "" {
		cfg.Catalog.Path = *path
	}
	if cfg.Catalog.Source == "database" {
		appLogger.Fatal("The database source cannot be ingested into itself")
	}
	mirrorPosters := *mirror || cfg.Ingest.MirrorPosters
	indexVectors := *index || cfg.Ingest.IndexVectors

	appLogger.WithFields(logger.Fields{
		"source": cfg.Catalog.Source,
		"limit":  *limit,
		"force":  *force,
		"mirror": mirrorPosters,
		"index":  indexVectors,
	}).Info("Starting ingestion")

	ctx, cancel := context.WithCancel(appLogger.WithContext(context.Background()))
	defer cancel()

	db, err := repository.InitDB(&cfg.Database, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	movieRepo := repository.NewMovieRepository(db)
	jobRepo := repository.NewJobRepository(db)

	var vectors service.VectorStore
	if indexVectors {
		qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			Collection: cfg.Qdrant.Collection,
			APIKey:     cfg.Qdrant.APIKey,
			UseTLS:     cfg.Qdrant.UseTLS,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize Qdrant repository")
		}
		defer qdrantRepo.Close()

		if err := qdrantRepo.EnsureCollection(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure Qdrant collection")
		}
		vectors = qdrantRepo
	}

	var posters storage.PosterStore
	if mirrorPosters {
		s3Storage, err := storage.NewStorage(&cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
		posters = s3Storage
	}

	src, err := catalog.NewSource(cfg, nil)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to create catalog source")
	}

	ingestService := service.NewIngestService(
		movieRepo,
		jobRepo,
		vectors,
		posters,
		appLogger,
		&service.IngestConfig{
			Workers:         cfg.Ingest.Workers,
			BatchSize:       cfg.Ingest.BatchSize,
			RetryCount:      cfg.Ingest.RetryCount,
			DownloadTimeout: cfg.TMDB.Timeout,
		},
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	stats, err := ingestService.IngestFromSource(ctx, src, *limit, &service.IngestOptions{Force: *force})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to ingest from source")
	}
	appLogger.WithFields(logger.Fields{
		"job_id":    stats.JobID,
		"total":     stats.TotalItems,
		"processed": stats.ProcessedItems,
		"skipped":   stats.SkippedItems,
		"failed":    stats.FailedItems,
	}).Info("Ingestion completed")
}
