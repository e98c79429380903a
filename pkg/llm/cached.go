package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"MediaScribe/pkg/cache"

	"go.uber.org/zap"
)

// CacheObserver receives hit/miss notifications.
type CacheObserver interface {
	RecordCacheHit(cache, operation string)
	RecordCacheMiss(cache, operation string)
}

// CachedRunner memoizes skill results by skill, language and transcript hash.
type CachedRunner struct {
	next     SkillRunner
	cache    cache.Cache
	ttl      time.Duration
	observer CacheObserver
	lg       *zap.Logger
}

func NewCachedRunner(next SkillRunner, c cache.Cache, ttl time.Duration, obs CacheObserver, lg *zap.Logger) *CachedRunner {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &CachedRunner{next: next, cache: c, ttl: ttl, observer: obs, lg: lg}
}

func cacheKey(skillID string, in SkillInput) string {
	sum := sha256.Sum256([]byte(in.Transcript))
	return "skill:" + skillID + ":" + in.TargetLanguage + ":" + hex.EncodeToString(sum[:16])
}

func (r *CachedRunner) RunSkill(ctx context.Context, skillID string, in SkillInput) (string, error) {
	key := cacheKey(skillID, in)
	if v, ok := r.cache.Get(ctx, key); ok {
		if s, ok := v.(string); ok {
			r.record(true, skillID)
			return s, nil
		}
	}
	r.record(false, skillID)

	out, err := r.next.RunSkill(ctx, skillID, in)
	if err != nil {
		return "", err
	}
	if err := r.cache.Set(ctx, key, out, r.ttl); err != nil {
		r.lg.Warn("cache skill result", zap.String("skill", skillID), zap.Error(err))
	}
	return out, nil
}

func (r *CachedRunner) record(hit bool, skillID string) {
	if r.observer == nil {
		return
	}
	if hit {
		r.observer.RecordCacheHit("skill", skillID)
	} else {
		r.observer.RecordCacheMiss("skill", skillID)
	}
}
