package utils

import (
	"context"
	"sync"
	"time"
)

// Logged-out session tokens are kept revoked until their natural expiry.
// Redis backs the set when available so revocation survives restarts and is
// shared between instances; a process-local map is the fallback.

type revokedEntry struct {
	expiresAt time.Time
}

var (
	revoked   = map[string]revokedEntry{}
	revokedMu sync.RWMutex
)

// RevokeSession marks a session token as logged out until expiresAt.
func RevokeSession(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, "session:revoked:"+token, "1", ttl).Err(); err == nil {
			return
		}
	}
	revokedMu.Lock()
	revoked[token] = revokedEntry{expiresAt: expiresAt}
	revokedMu.Unlock()
}

// IsSessionRevoked reports whether a token was logged out before its natural
// expiration. Redis errors fail open to avoid locking every user out on an
// outage.
func IsSessionRevoked(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, "session:revoked:"+token).Result(); err == nil && n > 0 {
			return true
		}
	}
	revokedMu.RLock()
	entry, ok := revoked[token]
	revokedMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(entry.expiresAt) {
		revokedMu.Lock()
		delete(revoked, token)
		revokedMu.Unlock()
		return false
	}
	return true
}
