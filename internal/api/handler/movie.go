package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timmy/cinevibe/internal/catalog"
	"github.com/timmy/cinevibe/internal/service"
)

// MovieHandler handles catalog browsing endpoints.
type MovieHandler struct {
	movieService *service.MovieService
}

// NewMovieHandler creates a new movie handler.
func NewMovieHandler(movieService *service.MovieService) *MovieHandler {
	return &MovieHandler{movieService: movieService}
}

// ListMovies handles GET /api/v1/movies and GET /movies. The optional q
// parameter filters by title.
func (h *MovieHandler) ListMovies(c *gin.Context) {
	c.JSON(http.StatusOK, h.movieService.ListMovies(c.Query("q")))
}

// GetMovie handles GET /api/v1/movies/:id.
func (h *MovieHandler) GetMovie(c *gin.Context) {
	movie, err := h.movieService.GetMovie(c.Param("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Movie not found",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get movie: " + err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, movie)
}

// GetStats handles GET /api/v1/stats.
func (h *MovieHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.movieService.Stats())
}

// GetDescriptors handles GET /api/v1/descriptors.
func (h *MovieHandler) GetDescriptors(c *gin.Context) {
	c.JSON(http.StatusOK, h.movieService.Vocabulary())
}
