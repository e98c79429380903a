package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// localCache is a size-bounded LRU. The LRU's own TTL is the configured
// default; shorter per-item expirations are checked on read.
type localCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, cacheItem]
}

// cacheItem 缓存项
type cacheItem struct {
	value      interface{}
	expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	size := config.MaxSize
	if size <= 0 {
		size = 1000
	}
	return &localCache{
		lru: expirable.NewLRU[string, cacheItem](size, nil, config.DefaultExpiration),
	}
}

func (lc *localCache) Get(ctx context.Context, key string) (interface{}, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	item, ok := lc.getLocked(key)
	if !ok {
		return nil, false
	}
	return item.value, true
}

func (lc *localCache) getLocked(key string) (cacheItem, bool) {
	item, ok := lc.lru.Get(key)
	if !ok {
		return cacheItem{}, false
	}
	if item.expired(time.Now()) {
		lc.lru.Remove(key)
		return cacheItem{}, false
	}
	return item, true
}

func (lc *localCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.setLocked(key, value, expiration)
	return nil
}

func (lc *localCache) setLocked(key string, value interface{}, expiration time.Duration) {
	item := cacheItem{value: value}
	if expiration > 0 {
		item.expiration = time.Now().Add(expiration)
	}
	lc.lru.Add(key, item)
}

func (lc *localCache) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	if _, ok := lc.getLocked(key); ok {
		return false, nil
	}
	lc.setLocked(key, value, expiration)
	return true, nil
}

func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Remove(key)
	return nil
}

func (lc *localCache) Exists(ctx context.Context, key string) bool {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	_, ok := lc.getLocked(key)
	return ok
}

func (lc *localCache) Clear(ctx context.Context) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.lru.Purge()
	return nil
}

func (lc *localCache) Close() error {
	return nil
}
