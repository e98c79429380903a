package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.PhaseChanged("uploading", "extracting")
	m.PhaseChanged("uploading", "extracting")
	m.PollCompleted(10*time.Millisecond, nil)
	m.PollCompleted(10*time.Millisecond, errors.New("reset"))
	m.SetLiveSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.phaseTransitions.WithLabelValues("uploading", "extracting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pollsTotal.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.liveSessions))
}

func TestGinMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/media/:key/status", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(Handler(reg)))

	for _, key := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/media/"+key+"/status", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/media/:key/status", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "mediascribe_live_sessions")
}
