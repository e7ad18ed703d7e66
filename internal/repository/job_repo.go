package repository

import (
	"context"

	"github.com/timmy/cinevibe/internal/domain"
	"gorm.io/gorm"
)

// JobRepository persists ingest job records.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
func (r *JobRepository) Create(ctx context.Context, job *domain.IngestJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Update saves every field of job.
func (r *JobRepository) Update(ctx context.Context, job *domain.IngestJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// Latest returns the most recent jobs for sourceID, newest first.
// An empty sourceID matches every source.
func (r *JobRepository) Latest(ctx context.Context, sourceID string, limit int) ([]domain.IngestJob, error) {
	q := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit)
	if sourceID != "" {
		q = q.Where("source_id = ?", sourceID)
	}
	var jobs []domain.IngestJob
	err := q.Find(&jobs).Error
	return jobs, err
}
