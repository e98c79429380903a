package handlers

import (
	"MediaScribe/internal/models"
	"MediaScribe/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handlers) timelineView() gin.H {
	tl := h.project.Timeline()
	return gin.H{
		"pixelsPerSecond": tl.PixelsPerSecond(),
		"duration":        tl.Duration(),
		"tracks":          tl.Tracks(),
	}
}

// changed refreshes the playhead's active clips after a timeline edit.
func (h *Handlers) changed(c *gin.Context, msg string, data interface{}) {
	if h.playback != nil {
		h.playback.Refresh()
	}
	response.Success(c, msg, data)
}

func (h *Handlers) handleTimeline(c *gin.Context) {
	response.Success(c, "ok", h.timelineView())
}

func (h *Handlers) handleAddTrack(c *gin.Context) {
	var req struct {
		ID    string           `json:"id"`
		Kind  models.TrackKind `json:"kind" binding:"required"`
		Color string           `json:"color"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if req.ID == "" {
		req.ID = string(req.Kind) + "-" + uuid.NewString()[:8]
	}
	track, err := h.project.Timeline().AddTrack(req.ID, req.Kind, req.Color)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "track added", track)
}

func (h *Handlers) handleRemoveTrack(c *gin.Context) {
	if err := h.project.Timeline().RemoveTrack(c.Param("trackId")); err != nil {
		response.Error(c, err)
		return
	}
	h.changed(c, "track removed", nil)
}

func (h *Handlers) handleInsertClip(c *gin.Context) {
	var req struct {
		ID    string   `json:"id"`
		Name  string   `json:"name"`
		Start *float64 `json:"start" binding:"required"`
		End   *float64 `json:"end" binding:"required"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	clip := models.Clip{ID: req.ID, Name: req.Name, Range: models.TimeRange{Start: *req.Start, End: *req.End}}
	if err := h.project.Timeline().InsertClip(c.Param("trackId"), clip); err != nil {
		response.Error(c, err)
		return
	}
	if h.playback != nil {
		h.playback.Refresh()
	}
	response.Created(c, "clip inserted", clip)
}

func (h *Handlers) handleMoveClip(c *gin.Context) {
	var req struct {
		Start *float64 `json:"start" binding:"required"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	clip, err := h.project.Timeline().MoveClip(c.Param("clipId"), *req.Start)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.changed(c, "clip moved", clip)
}

func (h *Handlers) handleRemoveClip(c *gin.Context) {
	if err := h.project.Timeline().RemoveClip(c.Param("clipId")); err != nil {
		response.Error(c, err)
		return
	}
	h.changed(c, "clip removed", nil)
}

func (h *Handlers) handleZoom(c *gin.Context) {
	var req struct {
		PixelsPerSecond *float64 `json:"pixelsPerSecond" binding:"required"`
	}
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.project.Timeline().SetZoom(*req.PixelsPerSecond); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", h.timelineView())
}

func (h *Handlers) handlePosition(c *gin.Context) {
	t, err := queryFloat(c, "t")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", gin.H{"t": t, "x": h.project.Timeline().TimeToPosition(t)})
}

func (h *Handlers) handleTime(c *gin.Context) {
	x, err := queryFloat(c, "x")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", gin.H{"x": x, "t": h.project.Timeline().PositionToTime(x)})
}
