package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"MediaScribe/pkg/cache"

	"github.com/gin-gonic/gin"
)

// IdemStore 幂等键存储
type IdemStore interface {
	Set(ctx context.Context, key string, ttl time.Duration) (bool, error) // true if set, false if exists
	Delete(ctx context.Context, key string) error
}

// CacheIdemStore keeps idempotency keys in any cache.Cache (local or redis).
type CacheIdemStore struct {
	Cache  cache.Cache
	Prefix string
}

func (s CacheIdemStore) Set(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.Cache.SetNX(ctx, s.Prefix+key, time.Now().Unix(), ttl)
}

func (s CacheIdemStore) Delete(ctx context.Context, key string) error {
	return s.Cache.Delete(ctx, s.Prefix+key)
}

type IdempotencyConfig struct {
	HeaderName string        // Idempotency-Key 的请求头名
	TTL        time.Duration // 决定一段时间内重复请求的拒绝窗口
	Store      IdemStore
}

// IdempotencyMiddleware rejects a repeated Idempotency-Key with 409 within
// TTL. Requests without the header pass through; uploads are too large to
// hash as a fallback key. A failed handler (status >= 400) frees the key so
// the client may retry.
func IdempotencyMiddleware(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "Idempotency-Key"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.Store == nil {
		cfg.Store = CacheIdemStore{Cache: cache.NewGoCache(cache.LocalConfig{DefaultExpiration: cfg.TTL, CleanupInterval: time.Minute}), Prefix: "idem:"}
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(cfg.HeaderName))
		if key == "" {
			c.Next()
			return
		}
		key = c.FullPath() + ":" + key
		ok, err := cfg.Store.Set(c.Request.Context(), key, cfg.TTL)
		if err != nil {
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"code": http.StatusConflict, "msg": "duplicate request", "error": "conflict"})
			return
		}
		c.Next()
		if c.Writer.Status() >= http.StatusBadRequest {
			_ = cfg.Store.Delete(c.Request.Context(), key)
		}
	}
}
