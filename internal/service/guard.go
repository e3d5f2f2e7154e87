// internal/service/guard.go
package service

import (
    "sync"

    appErrors "github.com/pixelsolve/coldmailer-backend/internal/errors"
)

// SessionGuard serializes background operations per session: a second
// generation or dispatch run against a session that already has one active
// is rejected, not queued.
type SessionGuard struct {
    mu     sync.Mutex
    active map[string]bool
}

func NewSessionGuard() *SessionGuard {
    return &SessionGuard{active: make(map[string]bool)}
}

// Acquire claims the session. Returns ErrDispatchActive when it is already
// claimed.
func (g *SessionGuard) Acquire(sessionID string) error {
    g.mu.Lock()
    defer g.mu.Unlock()
    if g.active[sessionID] {
        return appErrors.NewDispatchActive(sessionID)
    }
    g.active[sessionID] = true
    return nil
}

// Active reports whether the session currently has a run in flight.
func (g *SessionGuard) Active(sessionID string) bool {
    g.mu.Lock()
    defer g.mu.Unlock()
    return g.active[sessionID]
}

func (g *SessionGuard) Release(sessionID string) {
    g.mu.Lock()
    defer g.mu.Unlock()
    delete(g.active, sessionID)
}
