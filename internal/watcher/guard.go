package watcher

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// WriteGuard tracks self-authored writes so the watcher can tell them apart
// from external edits. A writer acquires a lease before touching the file
// and releases it after the settle delay; the watcher drops events while any
// lease is live. Leases expire on their own in case a writer dies mid-pass,
// so a leaked lease cannot mute the watcher forever.
type WriteGuard struct {
	mu     sync.Mutex
	leases map[string]time.Time
	expiry time.Duration
}

// NewWriteGuard creates a guard with the given lease expiry.
func NewWriteGuard(expiry time.Duration) *WriteGuard {
	if expiry <= 0 {
		expiry = 2 * time.Second
	}
	return &WriteGuard{
		leases: make(map[string]time.Time),
		expiry: expiry,
	}
}

// Acquire registers a write intent and returns its lease token.
func (g *WriteGuard) Acquire() string {
	token := uuid.NewString()
	g.mu.Lock()
	g.leases[token] = time.Now().Add(g.expiry)
	g.mu.Unlock()
	return token
}

// Release ends the lease identified by token. Releasing an unknown or
// already-expired token is a no-op.
func (g *WriteGuard) Release(token string) {
	g.mu.Lock()
	delete(g.leases, token)
	g.mu.Unlock()
}

// Active reports whether any unexpired lease is held. Expired leases are
// pruned as a side effect.
func (g *WriteGuard) Active() bool {
	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()

	for token, deadline := range g.leases {
		if now.After(deadline) {
			delete(g.leases, token)
			continue
		}
		return true
	}
	return false
}
