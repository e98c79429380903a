package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobError      JobStatus = "error"
	JobTimedOut   JobStatus = "timed_out"
)

func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobError || s == JobTimedOut
}

// TranscriptionJob is one transcription attempt for a media asset.
type TranscriptionJob struct {
	ID         string    `json:"id" gorm:"primaryKey;size:128"`
	MediaID    string    `json:"mediaId" gorm:"size:128;index"`
	Status     JobStatus `json:"status" gorm:"size:32;index"`
	Progress   int       `json:"progress"`
	Language   string    `json:"language" gorm:"size:32"`
	Error      string    `json:"error,omitempty" gorm:"size:1024"`
	ErrorCode  string    `json:"errorCode,omitempty" gorm:"size:64"`
	Superseded bool      `json:"superseded,omitempty"`
	Version    uint64    `json:"version"` // 快照版本，只增不减
	CreatedAt  time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (TranscriptionJob) TableName() string { return "transcription_jobs" }

func (j TranscriptionJob) IsTerminal() bool { return j.Status.Terminal() }

// SaveTranscriptionJob upserts job unless the stored row already carries an
// equal or newer version.
func SaveTranscriptionJob(db *gorm.DB, job *TranscriptionJob) error {
	res := db.Model(&TranscriptionJob{}).
		Where("id = ? AND version < ?", job.ID, job.Version).
		Updates(map[string]interface{}{
			"media_id":   job.MediaID,
			"status":     job.Status,
			"progress":   job.Progress,
			"language":   job.Language,
			"error":      job.Error,
			"error_code": job.ErrorCode,
			"superseded": job.Superseded,
			"version":    job.Version,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	row := *job
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

// GetTranscriptionJob 获取单个任务
func GetTranscriptionJob(db *gorm.DB, id string) (*TranscriptionJob, error) {
	var job TranscriptionJob
	if err := db.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListJobsByMedia returns a media's jobs, newest first.
func ListJobsByMedia(db *gorm.DB, mediaID string) ([]TranscriptionJob, error) {
	var jobs []TranscriptionJob
	err := db.Where("media_id = ?", mediaID).Order("created_at DESC").Order("id DESC").Find(&jobs).Error
	return jobs, err
}

// PruneTerminalJobs deletes terminal jobs last updated before cutoff.
func PruneTerminalJobs(db *gorm.DB, cutoff time.Time) (int64, error) {
	res := db.Where("status IN ? AND updated_at < ?",
		[]JobStatus{JobCompleted, JobError, JobTimedOut}, cutoff).
		Delete(&TranscriptionJob{})
	return res.RowsAffected, res.Error
}
