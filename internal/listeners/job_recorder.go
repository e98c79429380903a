package listeners

import (
	"context"

	"MediaScribe/internal/models"

	"gorm.io/gorm"
)

// JobRecorder persists job snapshots. Stale versions are dropped by the
// version guard of SaveTranscriptionJob.
type JobRecorder struct {
	DB *gorm.DB
}

func NewJobRecorder(db *gorm.DB) *JobRecorder {
	return &JobRecorder{DB: db}
}

func (r *JobRecorder) SaveJob(ctx context.Context, job models.TranscriptionJob) error {
	return models.SaveTranscriptionJob(r.DB.WithContext(ctx), &job)
}

// Jobs returns the persisted history of mediaID, newest first.
func (r *JobRecorder) Jobs(ctx context.Context, mediaID string) ([]models.TranscriptionJob, error) {
	return models.ListJobsByMedia(r.DB.WithContext(ctx), mediaID)
}
