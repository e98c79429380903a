package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MediaScribe/pkg/cache"
	"MediaScribe/pkg/i18n"
	"MediaScribe/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() { gin.SetMode(gin.TestMode) }

func do(r *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyRejectsRepeatedKey(t *testing.T) {
	store := CacheIdemStore{Cache: cache.NewLocalCache(cache.LocalConfig{MaxSize: 10}), Prefix: "idem:"}
	r := gin.New()
	r.Use(IdempotencyMiddleware(IdempotencyConfig{TTL: time.Minute, Store: store}))
	r.POST("/media", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	r.POST("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	h := map[string]string{"Idempotency-Key": "k1"}
	assert.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/media", h).Code)
	assert.Equal(t, http.StatusConflict, do(r, http.MethodPost, "/media", h).Code)
	assert.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/media", nil).Code)
	assert.Equal(t, http.StatusAccepted, do(r, http.MethodPost, "/media", nil).Code)

	// failed requests release the key
	assert.Equal(t, http.StatusBadGateway, do(r, http.MethodPost, "/fail", h).Code)
	assert.Equal(t, http.StatusBadGateway, do(r, http.MethodPost, "/fail", h).Code)
}

func TestRateLimiterPerRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPrometheusObserver(reg)
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:          "100-M",
		PerRouteRates: map[string]string{"/media": "2-M"},
		SkipPaths:     []string{"/health"},
		AddHeaders:    true,
	}, nil).WithObserver(obs)

	r := gin.New()
	r.Use(rl.Middleware())
	r.POST("/media", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/media", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/media", nil).Code)
	w := do(r, http.MethodPost, "/media", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", nil).Code)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(obs.deny.WithLabelValues("/media")))
}

func TestLanguageMiddleware(t *testing.T) {
	tr, err := i18n.NewI18nSupport("en", zaptest.NewLogger(t))
	require.NoError(t, err)

	r := gin.New()
	r.Use(LanguageMiddleware(tr))
	r.GET("/lang", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(response.LangKey)) })

	assert.Equal(t, "zh", do(r, http.MethodGet, "/lang", map[string]string{"Accept-Language": "zh-CN,zh;q=0.9"}).Body.String())
	assert.Equal(t, "en", do(r, http.MethodGet, "/lang?lang=en", map[string]string{"Accept-Language": "zh"}).Body.String())
	assert.Equal(t, "en", do(r, http.MethodGet, "/lang", nil).Body.String())
}

func TestAccessLogPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(AccessLog(zaptest.NewLogger(t)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	assert.Equal(t, http.StatusTeapot, do(r, http.MethodGet, "/x", nil).Code)
}
