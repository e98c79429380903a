package orchestrator

import (
	"context"
	"io"
	"time"

	"MediaScribe/internal/models"
	apperrors "MediaScribe/pkg/errors"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = apperrors.WithCode(apperrors.CodeConflict, "orchestrator closed")

type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration // measured from entering Transcribing

	RampInterval time.Duration
	RampStep     int
	RampCap      int // upload progress never passes this before the ack

	SyntheticStep int
	SyntheticCap  int

	Language string
}

func DefaultOptions() Options {
	return Options{
		PollInterval:  2 * time.Second,
		Timeout:       5 * time.Minute,
		RampInterval:  500 * time.Millisecond,
		RampStep:      5,
		RampCap:       90,
		SyntheticStep: 5,
		SyntheticCap:  95,
		Language:      "auto",
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PollInterval <= 0 {
		o.PollInterval = def.PollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.RampInterval <= 0 {
		o.RampInterval = def.RampInterval
	}
	if o.RampStep <= 0 {
		o.RampStep = def.RampStep
	}
	if o.RampCap <= 0 || o.RampCap >= 100 {
		o.RampCap = def.RampCap
	}
	if o.SyntheticStep <= 0 {
		o.SyntheticStep = def.SyntheticStep
	}
	if o.SyntheticCap <= 0 || o.SyntheticCap >= 100 {
		o.SyntheticCap = def.SyntheticCap
	}
	if o.Language == "" {
		o.Language = def.Language
	}
	return o
}

// Preview is a local copy of an upload the player can show right away.
type Preview struct {
	Handle string
	URL    string
	Size   int64
}

type Previewer interface {
	Open(ctx context.Context, name, contentType string, r io.Reader, size int64) (Preview, error)
	Reader(ctx context.Context, handle string) (io.ReadCloser, int64, error)
	Release(ctx context.Context, handle string) error
}

// Project is the store the pipeline writes into.
type Project interface {
	RegisterMedia(asset models.MediaAsset) error
	Media(id string) (models.MediaAsset, bool)
	ApplyTranscript(ctx context.Context, mediaID string, segments []models.Segment, language string) error
}

type JobStore interface {
	SaveJob(ctx context.Context, job models.TranscriptionJob) error
}

type Observer interface {
	PhaseChanged(from, to string)
	PollCompleted(d time.Duration, err error)
	JobFinished(status string, d time.Duration)
	SetLiveSessions(n int)
	UploadCompleted(bytes int64)
}

type nopObserver struct{}

func (nopObserver) PhaseChanged(string, string)        {}
func (nopObserver) PollCompleted(time.Duration, error) {}
func (nopObserver) JobFinished(string, time.Duration)  {}
func (nopObserver) SetLiveSessions(int)                {}
func (nopObserver) UploadCompleted(int64)              {}

// Snapshot is a read-only copy of a session for progress rendering.
type Snapshot struct {
	Key       string `json:"key"`
	UploadKey string `json:"uploadKey,omitempty"`
	MediaID   string `json:"mediaId,omitempty"`
	Phase     Phase  `json:"phase"`
	// Progress belongs to the current phase: upload percent until the
	// upload is acknowledged, job percent afterwards.
	Progress       int                      `json:"progress"`
	UploadProgress int                      `json:"uploadProgress"`
	PreviewURL     string                   `json:"previewUrl,omitempty"`
	Asset          *models.MediaAsset       `json:"asset,omitempty"`
	Job            *models.TranscriptionJob `json:"job,omitempty"`
	Cancelled      bool                     `json:"cancelled,omitempty"`
	Error          string                   `json:"error,omitempty"`
	ErrorCode      string                   `json:"errorCode,omitempty"`
	Version        uint64                   `json:"version"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

// Live reports whether the session still has running tasks.
func (s Snapshot) Live() bool {
	return !s.Cancelled && !s.Phase.Terminal() && s.Phase != PhaseIdle
}
