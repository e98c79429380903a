package handlers

import (
	"MediaScribe/internal/listeners"
	"MediaScribe/internal/orchestrator"
	"MediaScribe/internal/playback"
	"MediaScribe/internal/project"
	"MediaScribe/pkg/llm"
	"MediaScribe/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const APIPrefix = "/api"

type Deps struct {
	DB       *gorm.DB
	Pipeline *orchestrator.Orchestrator
	Previews orchestrator.Previewer
	Project  *project.Store
	Playback *playback.Sync
	Players  *PlayerBridge
	Jobs     *listeners.JobRecorder // optional, persisted history
	Skills   llm.SkillRunner        // optional
	Events   *sse.Hub
	Gatherer prometheus.Gatherer // optional, /metrics

	// UploadGuards run before the upload handler (rate limit, idempotency).
	UploadGuards []gin.HandlerFunc
	Logger       *zap.Logger
}

type Handlers struct {
	db       *gorm.DB
	pipeline *orchestrator.Orchestrator
	previews orchestrator.Previewer
	project  *project.Store
	playback *playback.Sync
	players  *PlayerBridge
	jobs     *listeners.JobRecorder
	skills   llm.SkillRunner
	events   *sse.Hub
	gatherer prometheus.Gatherer
	guards   []gin.HandlerFunc
	lg       *zap.Logger
}

func NewHandlers(d Deps) *Handlers {
	lg := d.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Handlers{
		db:       d.DB,
		pipeline: d.Pipeline,
		previews: d.Previews,
		project:  d.Project,
		playback: d.Playback,
		players:  d.Players,
		jobs:     d.Jobs,
		skills:   d.Skills,
		events:   d.Events,
		gatherer: d.Gatherer,
		guards:   d.UploadGuards,
		lg:       lg,
	}
}

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(APIPrefix)

	h.registerSystemRoutes(r)
	h.registerMediaRoutes(r)
	h.registerTranscriptRoutes(r)
	h.registerPlaybackRoutes(r)
	h.registerTimelineRoutes(r)
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.HealthCheck)
	if h.gatherer != nil {
		r.GET("/metrics", h.Metrics)
	}
	if h.events != nil {
		r.GET("/events", h.handleEvents)
	}
}

// Media Module
func (h *Handlers) registerMediaRoutes(r *gin.RouterGroup) {
	media := r.Group("media")
	{
		upload := append(append([]gin.HandlerFunc{}, h.guards...), h.handleUpload)
		media.POST("", upload...)

		media.GET("", h.handleListMedia)

		media.GET("/:id/status", h.handleMediaStatus)

		media.POST("/:id/transcribe", h.handleTranscribe)

		media.POST("/:id/resume", h.handleResume)

		media.DELETE("/:id/job", h.handleCancel)

		media.GET("/:id/jobs", h.handleListJobs)
	}
	r.GET("/preview/:handle", h.handlePreview)
}

// Transcript Module
func (h *Handlers) registerTranscriptRoutes(r *gin.RouterGroup) {
	tr := r.Group("media/:id/transcript")
	{
		tr.GET("", h.handleTranscript)

		tr.GET("/active", h.handleActiveWord)

		tr.GET("/text", h.handleTranscriptText)

		tr.GET("/export", h.handleExport)

		tr.POST("/skills/:skillId", h.handleRunSkill)
	}
	r.GET("/skills", h.handleListSkills)
	r.GET("/search", h.handleSearch)
}

// Playback Module
func (h *Handlers) registerPlaybackRoutes(r *gin.RouterGroup) {
	pb := r.Group("playback")
	{
		pb.GET("", h.handlePlaybackState)

		pb.POST("/load", h.handleLoad)

		pb.POST("/seek", h.handleSeek)

		pb.POST("/tick", h.handleTick)

		pb.POST("/play", h.handlePlay)

		pb.POST("/pause", h.handlePause)

		pb.POST("/volume", h.handleVolume)

		pb.POST("/mute", h.handleMute)

		pb.POST("/duration", h.handleDuration)

		pb.POST("/seek-word", h.handleSeekWord)

		pb.POST("/seek-position", h.handleSeekPosition)

		if h.players != nil {
			pb.GET("/ws", h.handlePlayerSocket)
		}
	}
}

// Timeline Module
func (h *Handlers) registerTimelineRoutes(r *gin.RouterGroup) {
	tl := r.Group("timeline")
	{
		tl.GET("", h.handleTimeline)

		tl.POST("/tracks", h.handleAddTrack)

		tl.DELETE("/tracks/:trackId", h.handleRemoveTrack)

		tl.POST("/tracks/:trackId/clips", h.handleInsertClip)

		tl.PUT("/clips/:clipId", h.handleMoveClip)

		tl.DELETE("/clips/:clipId", h.handleRemoveClip)

		tl.PUT("/zoom", h.handleZoom)

		tl.GET("/position", h.handlePosition)

		tl.GET("/time", h.handleTime)
	}
}
