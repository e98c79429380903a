package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"MediaScribe/internal/models"
	"MediaScribe/internal/transcript"
	apperrors "MediaScribe/pkg/errors"
	"MediaScribe/pkg/llm"
	"MediaScribe/pkg/response"
	"MediaScribe/pkg/search"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handlers) transcriptOf(c *gin.Context) (*transcript.Model, bool) {
	mediaID := c.Param("id")
	m, ok := h.project.Transcript(mediaID)
	if !ok {
		response.Error(c, apperrors.WithCodef(apperrors.CodeNotFound, "media %s has no transcript", mediaID))
		return nil, false
	}
	return m, true
}

func (h *Handlers) handleTranscript(c *gin.Context) {
	m, ok := h.transcriptOf(c)
	if !ok {
		return
	}
	response.Success(c, "ok", gin.H{
		"mediaId":   c.Param("id"),
		"language":  m.Language(),
		"version":   m.Version(),
		"duration":  m.Duration(),
		"wordCount": m.WordCount(),
		"segments":  m.Segments(),
	})
}

func (h *Handlers) handleActiveWord(c *gin.Context) {
	m, ok := h.transcriptOf(c)
	if !ok {
		return
	}
	t, err := queryFloat(c, "t")
	if err != nil {
		response.Error(c, err)
		return
	}
	ref, found := m.ActiveWordAt(t)
	if !found {
		response.Success(c, "no active word", nil)
		return
	}
	response.Success(c, "ok", ref)
}

func (h *Handlers) handleTranscriptText(c *gin.Context) {
	m, ok := h.transcriptOf(c)
	if !ok {
		return
	}
	if c.Query("start") == "" && c.Query("end") == "" {
		response.Success(c, "ok", gin.H{"text": m.Text()})
		return
	}
	start, err := queryFloat(c, "start")
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := queryFloat(c, "end")
	if err != nil {
		response.Error(c, err)
		return
	}
	r, err := models.NewTimeRange(start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", gin.H{"range": r, "text": m.TextFor(r)})
}

func (h *Handlers) handleExport(c *gin.Context) {
	m, ok := h.transcriptOf(c)
	if !ok {
		return
	}
	f := transcript.Format(strings.ToLower(c.DefaultQuery("format", string(transcript.FormatSRT))))
	var buf bytes.Buffer
	if err := transcript.Export(&buf, f, m.Segments()); err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, c.Param("id"), f))
	c.Data(http.StatusOK, f.ContentType(), buf.Bytes())
}

func (h *Handlers) handleListSkills(c *gin.Context) {
	response.Success(c, "ok", llm.Skills())
}

// handleRunSkill runs a text skill over the timestamped transcript.
func (h *Handlers) handleRunSkill(c *gin.Context) {
	if h.skills == nil {
		response.Error(c, apperrors.WithCode(apperrors.CodeNotFound, "text skills are disabled"))
		return
	}
	m, ok := h.transcriptOf(c)
	if !ok {
		return
	}
	var req struct {
		TargetLanguage string `json:"targetLanguage"`
	}
	if c.Request.ContentLength > 0 {
		if err := bind(c, &req); err != nil {
			response.Error(c, err)
			return
		}
	}
	var buf bytes.Buffer
	if err := transcript.WriteText(&buf, m.Segments()); err != nil {
		response.Error(c, err)
		return
	}

	skillID := c.Param("skillId")
	out, err := h.skills.RunSkill(c.Request.Context(), skillID, llm.SkillInput{
		Transcript:     buf.String(),
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		h.lg.Warn("run skill failed", zap.String("skill", skillID), zap.String("media_id", c.Param("id")), zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", gin.H{"skill": skillID, "result": out})
}

func (h *Handlers) handleSearch(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error(c, apperrors.WithCode(apperrors.CodeValidation, "query q is required"))
		return
	}
	res, err := h.project.Search(c.Request.Context(), search.SearchRequest{
		Query:     q,
		MediaID:   c.Query("mediaId"),
		From:      queryInt(c, "from", 0),
		Size:      queryInt(c, "size", 20),
		Highlight: c.Query("highlight") == "true",
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, "ok", res)
}
