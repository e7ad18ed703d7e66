package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/timmy/cinevibe/internal/api/handler"
	"github.com/timmy/cinevibe/internal/api/middleware"
	"github.com/timmy/cinevibe/internal/config"
	"github.com/timmy/cinevibe/internal/logger"
	"github.com/timmy/cinevibe/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	recommendationService *service.RecommendationService,
	movieService *service.MovieService,
	log *logger.Logger,
	cfg *config.ServerConfig,
) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler(movieService)
	recommendHandler := handler.NewRecommendHandler(recommendationService)
	movieHandler := handler.NewMovieHandler(movieService)

	r.GET("/health", healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Vector protocol served to peer instances.
	r.POST("/recommendations/mood", recommendHandler.MoodRecommendations)
	r.POST("/recommendations/mood/batch", recommendHandler.BatchMoodRecommendations)
	r.GET("/movies", movieHandler.ListMovies)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/recommendations", recommendHandler.Recommend)

		v1.GET("/movies", movieHandler.ListMovies)
		v1.GET("/movies/:id", movieHandler.GetMovie)

		v1.GET("/stats", movieHandler.GetStats)
		v1.GET("/descriptors", movieHandler.GetDescriptors)
	}

	return r
}
