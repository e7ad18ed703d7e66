package domain

import "time"

// JobStatus is the lifecycle state of a catalog ingest run.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IngestJob records one run of the catalog ingester.
type IngestJob struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	SourceID    string     `gorm:"type:text;not null;index" json:"source_id"`
	Status      JobStatus  `gorm:"type:text;default:running" json:"status"`
	Processed   int        `gorm:"default:0" json:"processed"`
	Skipped     int        `gorm:"default:0" json:"skipped"`
	Failed      int        `gorm:"default:0" json:"failed"`
	Indexed     int        `gorm:"default:0" json:"indexed"`
	Mirrored    int        `gorm:"default:0" json:"mirrored"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	ErrorLog    string     `gorm:"type:text" json:"error_log,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the database table name for IngestJob.
func (IngestJob) TableName() string {
	return "ingest_jobs"
}

// Finish marks the job done at t, failed when runErr is non-nil.
func (j *IngestJob) Finish(t time.Time, runErr error) {
	j.CompletedAt = &t
	j.Status = JobStatusCompleted
	if runErr != nil {
		j.Status = JobStatusFailed
		j.ErrorLog = runErr.Error()
	}
}
