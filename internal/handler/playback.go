package handlers

import (
	apperrors "MediaScribe/pkg/errors"
	"MediaScribe/pkg/response"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) handlePlaybackState(c *gin.Context) {
	response.Success(c, "ok", h.playback.State())
}

// handleLoad points the playhead at a media. Word lookups follow the media's
// transcript as it arrives.
func (h *Handlers) handleLoad(c *gin.Context) {
	var req struct {
		MediaID  string   `json:"mediaId" binding:"required"`
		Duration *float64 `json:"duration"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	asset, ok := h.project.Media(req.MediaID)
	if !ok {
		response.Error(c, apperrors.WithCodef(apperrors.CodeNotFound, "media %s not found", req.MediaID))
		return
	}
	duration := asset.Duration
	if req.Duration != nil {
		duration = *req.Duration
	} else if m, ok := h.project.Transcript(req.MediaID); ok && duration == 0 {
		duration = m.Duration()
	}
	if err := h.playback.Load(req.MediaID, h.project.Words(req.MediaID), duration); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "loaded", h.playback.State())
}

type timeRequest struct {
	Time *float64 `json:"time" binding:"required"`
}

func (h *Handlers) handleSeek(c *gin.Context) {
	var req timeRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	st, err := h.playback.Seek(*req.Time)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", st)
}

func (h *Handlers) handleTick(c *gin.Context) {
	var req timeRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	st, err := h.playback.Tick(*req.Time)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", st)
}

func (h *Handlers) handlePlay(c *gin.Context) {
	response.Success(c, "ok", h.playback.Play())
}

func (h *Handlers) handlePause(c *gin.Context) {
	response.Success(c, "ok", h.playback.Pause())
}

func (h *Handlers) handleVolume(c *gin.Context) {
	var req struct {
		Volume *float64 `json:"volume" binding:"required"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	st, err := h.playback.SetVolume(*req.Volume)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", st)
}

func (h *Handlers) handleMute(c *gin.Context) {
	var req struct {
		Muted *bool `json:"muted" binding:"required"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", h.playback.SetMuted(*req.Muted))
}

func (h *Handlers) handleDuration(c *gin.Context) {
	var req struct {
		Duration *float64 `json:"duration" binding:"required"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	st, err := h.playback.SetDuration(*req.Duration)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", st)
}

func (h *Handlers) handleSeekWord(c *gin.Context) {
	var req struct {
		SegmentID string `json:"segmentId" binding:"required"`
		WordIndex *int   `json:"wordIndex" binding:"required"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	st, err := h.playback.SeekToWord(req.SegmentID, *req.WordIndex)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", st)
}

func (h *Handlers) handleSeekPosition(c *gin.Context) {
	var req struct {
		X *float64 `json:"x" binding:"required"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	st, err := h.playback.SeekToPosition(*req.X)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", st)
}

func (h *Handlers) handlePlayerSocket(c *gin.Context) {
	h.players.Serve(c.Writer, c.Request)
}
