package token

import (
	"sync"
	"time"
)

// RevocationList remembers revoked access token ids until the tokens would
// have expired anyway.
type RevocationList struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
}

func NewRevocationList() *RevocationList {
	return &RevocationList{
		revoked: make(map[string]time.Time),
	}
}

func (c *RevocationList) Revoke(jti string, exp time.Time) {
	if jti == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
}

func (c *RevocationList) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists
}

// Prune drops entries that expired before now and returns how many remain.
func (c *RevocationList) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
		}
	}
	return len(c.revoked)
}
