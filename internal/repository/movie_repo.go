package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/cinevibe/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrMovieNotFound is returned when no movie has the requested id.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepository persists catalog movies.
type MovieRepository struct {
	db *gorm.DB
}

// NewMovieRepository creates a new MovieRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *MovieRepository: repository instance bound to db.
func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Upsert creates the movie or replaces every column of the row with the same id.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - movie: movie to create or update.
// Returns:
//   - error: non-nil if the write fails.
func (r *MovieRepository) Upsert(ctx context.Context, movie *domain.Movie) error {
	if movie.ID == "" {
		return fmt.Errorf("movie id is required")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(movie).Error
}

// GetByID retrieves a movie by its id.
// Returns ErrMovieNotFound when the row does not exist.
func (r *MovieRepository) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	var movie domain.Movie
	err := r.db.WithContext(ctx).First(&movie, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// ExistsByID reports whether a movie with id is stored.
func (r *MovieRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Movie{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List returns up to limit movies ordered by id, starting at offset.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - offset: number of rows to skip.
//   - limit: maximum number of rows to return.
// Returns:
//   - []domain.Movie: the page of movies.
//   - error: non-nil if the query fails.
func (r *MovieRepository) List(ctx context.Context, offset, limit int) ([]domain.Movie, error) {
	var movies []domain.Movie
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&movies).Error
	return movies, err
}

// Count returns the number of stored movies.
func (r *MovieRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Movie{}).Count(&count).Error
	return count, err
}

// CountBySource returns the number of movies per source type.
func (r *MovieRepository) CountBySource(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		SourceType string
		Count      int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Movie{}).
		Select("source_type, COUNT(*) AS count").
		Group("source_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.SourceType] = row.Count
	}
	return out, nil
}
