package backend

import (
	"context"
	"io"

	"MediaScribe/internal/transcript"
)

// File is a media file handed to an uploader.
type File struct {
	Name        string
	ContentType string
	Size        int64 // -1 when unknown
	Reader      io.Reader
}

// ProgressFunc receives the number of bytes sent so far.
type ProgressFunc func(sent, total int64)

// UploadResult is the backend's acknowledgement of an upload.
type UploadResult struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// Uploader stores media where the transcription backend can fetch it.
type Uploader interface {
	UploadMedia(ctx context.Context, f File, onProgress ProgressFunc) (UploadResult, error)
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// JobStatus is one poll result.
type JobStatus struct {
	Status   string                  `json:"status"`
	Progress *float64                `json:"progress,omitempty"`
	Language string                  `json:"language,omitempty"`
	Segments []transcript.RawSegment `json:"segments,omitempty"`
	Error    string                  `json:"error,omitempty"`
}

// JobAPI creates and polls transcription jobs.
type JobAPI interface {
	CreateTranscriptionJob(ctx context.Context, mediaID, mediaURL, language string) (string, error)
	GetTranscriptionStatus(ctx context.Context, jobID string) (JobStatus, error)
}

type progressReader struct {
	r          io.Reader
	sent, size int64
	fn         ProgressFunc
}

func newProgressReader(r io.Reader, size int64, fn ProgressFunc) io.Reader {
	if fn == nil {
		return r
	}
	return &progressReader{r: r, size: size, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.fn(p.sent, p.size)
	}
	return n, err
}
