package cache

import (
	"sync"
	"time"

	"pricescanner/infrastructure/priceapi"
)

type authEntry struct {
	status    priceapi.AuthStatus
	expiresAt time.Time
}

// AuthSessionCache stores upstream auth-status answers by session cookie
// value, so the guard does not ask upstream on every page load.
type AuthSessionCache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]authEntry
	now      func() time.Time
}

func NewAuthSessionCache(ttl time.Duration) *AuthSessionCache {
	return &AuthSessionCache{ttl: ttl, sessions: make(map[string]authEntry), now: time.Now}
}

func (c *AuthSessionCache) Add(token string, status priceapi.AuthStatus) {
	if c.ttl <= 0 || token == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[token] = authEntry{status: status, expiresAt: c.now().Add(c.ttl)}
}

func (c *AuthSessionCache) Find(token string) (priceapi.AuthStatus, bool) {
	c.mu.RLock()
	e, ok := c.sessions[token]
	c.mu.RUnlock()
	if !ok {
		return priceapi.AuthStatus{}, false
	}
	if !c.now().Before(e.expiresAt) {
		c.Delete(token)
		return priceapi.AuthStatus{}, false
	}
	return e.status, true
}

func (c *AuthSessionCache) Delete(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, token)
}
