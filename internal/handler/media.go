package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"MediaScribe/internal/backend"
	"MediaScribe/internal/models"
	apperrors "MediaScribe/pkg/errors"
	"MediaScribe/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleUpload 上传媒体文件，立即返回预览地址，上传与转写在后台进行
func (h *Handlers) handleUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Fail(c, "file is required", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, apperrors.WrapCode(err, apperrors.CodeUploadFailure, "open upload"))
		return
	}
	defer f.Close()

	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(fh.Filename)); byExt != "" {
			ct = byExt
		}
	}
	snap, err := h.pipeline.Start(c.Request.Context(), backend.File{
		Name:        fh.Filename,
		ContentType: ct,
		Size:        fh.Size,
		Reader:      f,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.lg.Info("upload accepted", zap.String("key", snap.Key), zap.String("name", fh.Filename), zap.Int64("size", fh.Size))
	response.Accepted(c, "upload started", snap)
}

func (h *Handlers) handleListMedia(c *gin.Context) {
	type item struct {
		models.MediaAsset
		HasTranscript bool `json:"hasTranscript"`
	}
	assets := h.project.MediaList()
	out := make([]item, 0, len(assets))
	for _, a := range assets {
		_, ok := h.project.Transcript(a.ID)
		out = append(out, item{MediaAsset: a, HasTranscript: ok})
	}
	response.Success(c, "ok", gin.H{"media": out, "sessions": h.pipeline.Snapshots()})
}

// handleMediaStatus accepts an upload key or a media id.
func (h *Handlers) handleMediaStatus(c *gin.Context) {
	snap, ok := h.pipeline.Snapshot(c.Param("id"))
	if !ok {
		response.Error(c, apperrors.WithCodef(apperrors.CodeNotFound, "no session for %s", c.Param("id")))
		return
	}
	response.Success(c, "ok", snap)
}

func (h *Handlers) handleTranscribe(c *gin.Context) {
	snap, err := h.pipeline.Retranscribe(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "transcription started", snap)
}

func (h *Handlers) handleResume(c *gin.Context) {
	var req struct {
		JobID string `json:"jobId" binding:"required"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	snap, err := h.pipeline.Resume(c.Request.Context(), c.Param("id"), req.JobID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, "polling resumed", snap)
}

func (h *Handlers) handleCancel(c *gin.Context) {
	key := c.Param("id")
	if err := h.pipeline.Cancel(key); err != nil {
		response.Error(c, err)
		return
	}
	snap, _ := h.pipeline.Snapshot(key)
	response.Success(c, "cancelled", snap)
}

// handleListJobs answers from memory and falls back to the persisted history
// for media this process has not seen.
func (h *Handlers) handleListJobs(c *gin.Context) {
	mediaID := c.Param("id")
	jobs := h.pipeline.History(mediaID)
	if len(jobs) == 0 && h.jobs != nil {
		stored, err := h.jobs.Jobs(c.Request.Context(), mediaID)
		if err != nil {
			response.Error(c, apperrors.Wrap(err, "list jobs"))
			return
		}
		jobs = stored
	}
	response.Success(c, "ok", jobs)
}

func (h *Handlers) handlePreview(c *gin.Context) {
	handle := c.Param("handle")
	rc, size, err := h.previews.Reader(c.Request.Context(), handle)
	if err != nil {
		response.Error(c, apperrors.WrapCode(err, apperrors.CodeNotFound, "preview not found"))
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(filepath.Ext(handle))
	if ct == "" {
		ct = "application/octet-stream"
	}
	// local files support range requests, which the player needs to seek
	if rs, ok := rc.(io.ReadSeeker); ok {
		c.Header("Content-Type", ct)
		http.ServeContent(c.Writer, c.Request, handle, time.Time{}, rs)
		return
	}
	c.DataFromReader(http.StatusOK, size, ct, rc, nil)
}
