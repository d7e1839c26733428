package auth

import (
	"sync"
	"time"
)

// Revocations is an in-memory denylist of logged-out token IDs. Entries
// expire together with the token they revoke, so the map stays bounded by
// the token TTL.
type Revocations struct {
	mu     sync.RWMutex
	tokens map[string]time.Time // jti → token expiry
}

// NewRevocations creates an empty revocation list.
func NewRevocations() *Revocations {
	return &Revocations{tokens: make(map[string]time.Time)}
}

// Revoke marks a token ID as revoked until its natural expiry.
func (r *Revocations) Revoke(jti string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[jti] = expiresAt
}

// IsRevoked reports whether the token ID is currently revoked.
func (r *Revocations) IsRevoked(jti string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exp, ok := r.tokens[jti]
	return ok && time.Now().Before(exp)
}

// Cleanup removes entries for tokens that have expired on their own and
// returns how many were dropped.
func (r *Revocations) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	count := 0
	for jti, exp := range r.tokens {
		if now.After(exp) {
			delete(r.tokens, jti)
			count++
		}
	}
	return count
}
