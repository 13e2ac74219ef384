package billing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	defaultExpiryMargin = 60 * time.Second
	defaultFetchTimeout = 15 * time.Second
	singleflightKey     = "service-token"
)

// TokenFetcher obtains a fresh service token and its absolute expiry.
type TokenFetcher func(ctx context.Context) (token string, expiresAt time.Time, err error)

// TokenCache holds the service credential and refreshes it lazily.
// A token is served only while now < expiresAt - margin; concurrent
// refreshes collapse into a single fetch.
type TokenCache struct {
	fetch  TokenFetcher
	now    func() time.Time
	margin time.Duration

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	group singleflight.Group
}

// NewTokenCache builds a cache around fetch. A nil clock defaults to time.Now.
func NewTokenCache(fetch TokenFetcher, now func() time.Time, margin time.Duration) *TokenCache {
	if now == nil {
		now = time.Now
	}
	if margin < 0 {
		margin = defaultExpiryMargin
	}
	return &TokenCache{fetch: fetch, now: now, margin: margin}
}

// Token returns a valid cached token or refreshes it.
func (cache *TokenCache) Token(ctx context.Context) (string, error) {
	if token, ok := cache.cached(); ok {
		return token, nil
	}
	result, err, _ := cache.group.Do(singleflightKey, func() (interface{}, error) {
		if token, ok := cache.cached(); ok {
			return token, nil
		}
		// Waiters share this fetch, so it must outlive the caller that started it.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultFetchTimeout)
		defer cancel()
		token, expiresAt, err := cache.fetch(fetchCtx)
		if err != nil {
			return "", err
		}
		cache.mu.Lock()
		cache.token = token
		cache.expiresAt = expiresAt
		cache.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Invalidate drops the cached token so the next call refreshes.
func (cache *TokenCache) Invalidate() {
	cache.mu.Lock()
	cache.token = ""
	cache.expiresAt = time.Time{}
	cache.mu.Unlock()
}

func (cache *TokenCache) cached() (string, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	if cache.token == "" {
		return "", false
	}
	if !cache.now().Before(cache.expiresAt.Add(-cache.margin)) {
		return "", false
	}
	return cache.token, true
}
