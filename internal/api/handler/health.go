package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/cinevibe/internal/service"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	movieService *service.MovieService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(movieService *service.MovieService) *HealthHandler {
	return &HealthHandler{movieService: movieService}
}

// Health reports liveness and the number of loaded movies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"movies_loaded": h.movieService.Count(),
	})
}
