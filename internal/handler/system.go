package handlers

import (
	"net/http"

	"MediaScribe/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HealthCheck 健康检查接口
func (h *Handlers) HealthCheck(c *gin.Context) {
	if h.db != nil {
		// 检查数据库连接
		sqlDB, err := h.db.DB()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database connection failed"})
			return
		}
		if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database ping failed"})
			return
		}
	}

	live := 0
	if h.pipeline != nil {
		for _, s := range h.pipeline.Snapshots() {
			if s.Live() {
				live++
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "liveSessions": live})
}

func (h *Handlers) Metrics(c *gin.Context) {
	metrics.Handler(h.gatherer).ServeHTTP(c.Writer, c.Request)
}

// handleEvents streams snapshots over SSE. ?group=media:<id> narrows the
// stream to one media.
func (h *Handlers) handleEvents(c *gin.Context) {
	h.events.Serve(c, uuid.NewString())
}
