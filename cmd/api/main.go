package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/cinevibe/internal/api"
	"github.com/timmy/cinevibe/internal/catalog"
	"github.com/timmy/cinevibe/internal/config"
	"github.com/timmy/cinevibe/internal/logger"
	"github.com/timmy/cinevibe/internal/metrics"
	"github.com/timmy/cinevibe/internal/ranking"
	"github.com/timmy/cinevibe/internal/remote"
	"github.com/timmy/cinevibe/internal/repository"
	"github.com/timmy/cinevibe/internal/service"
	"github.com/timmy/cinevibe/internal/source/database"
	"github.com/timmy/cinevibe/internal/vector"
)

func main() {
	appLogger := logger.NewFromEnv(logger.LoadFromEnv())
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH overrides the default ./configs/config.yaml lookup.
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx := appLogger.WithContext(context.Background())

	var movies database.MovieLister
	if cfg.Catalog.Source == "database" {
		db, err := repository.InitDB(&cfg.Database, appLogger)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		movies = repository.NewMovieRepository(db)
	}

	src, err := catalog.NewSource(cfg, movies)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to create catalog source")
	}
	cat, err := catalog.Load(ctx, src, cfg.Catalog.BatchSize)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load catalog")
	}
	metrics.SetCatalogSize(cat.Len())
	appLogger.WithFields(logger.Fields{
		logger.FieldSource: src.GetSourceID(),
		logger.FieldCount:  cat.Len(),
	}).Info("Catalog loaded")

	var deps service.RankerDeps
	if cfg.Ranking.Remote.Enabled {
		rc := cfg.Ranking.Remote
		deps.Remote = remote.NewClient(remote.ClientConfig{
			BaseURL: rc.BaseURL,
			Timeout: rc.Timeout,
		})
		deps.RemoteOptions = ranking.RemoteOptions{
			HealthTTL: rc.HealthTTL,
			Breaker: ranking.BreakerSettings{
				MaxRequests:  rc.Breaker.MaxRequests,
				Interval:     rc.Breaker.Interval,
				Timeout:      rc.Breaker.Timeout,
				FailureRatio: rc.Breaker.FailureRatio,
				MinRequests:  rc.Breaker.MinRequests,
			},
		}
		appLogger.WithField("base_url", rc.BaseURL).Info("Remote ranking enabled")
	}

	if cfg.Qdrant.Enabled {
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
		deps.Index = qdrantRepo
	}

	metric, err := vector.ParseMetric(cfg.Ranking.Metric)
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid ranking metric")
	}
	h := cfg.Ranking.Heuristic
	recommendationService, err := service.NewRecommendationService(cat, deps, appLogger, &service.RecommendationConfig{
		Strategy: cfg.Ranking.Strategy,
		DefaultK: cfg.Ranking.DefaultK,
		MaxK:     cfg.Ranking.MaxK,
		Metric:   metric,
		Heuristic: ranking.HeuristicWeights{
			Tag:       h.TagWeight,
			Hue:       h.HueWeight,
			Intensity: h.IntensityWeight,
			Pacing:    h.PacingWeight,
		},
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize recommendation service")
	}
	movieService := service.NewMovieService(cat)

	router := api.SetupRouter(recommendationService, movieService, appLogger, &cfg.Server)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":     cfg.Server.Port,
			"mode":     cfg.Server.Mode,
			"strategy": cfg.Ranking.Strategy,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
