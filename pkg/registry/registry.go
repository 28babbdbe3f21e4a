// Package registry is the single source of truth for routing events to live
// sessions. Structural changes take a short registry-level lock, distinct
// from the per-session exclusion inside pkg/game.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/knightwatch/arena-server/pkg/game"
)

// Registry is a concurrent session table. Each session is addressable by
// exactly one id.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*game.Session
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*game.Session)}
}

// Add inserts a session under its id.
func (r *Registry) Add(s *game.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

// Get returns the session for an id.
func (r *Registry) Get(id uuid.UUID) (*game.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes a session and reports whether this call removed it, so a
// session is torn down exactly once even under racing terminal paths.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// FindByConn locates the session a live connection belongs to, along with
// the player it is bound to.
func (r *Registry) FindByConn(conn game.Conn) (*game.Session, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if player, ok := s.PlayerByConn(conn); ok {
			return s, player, true
		}
	}
	return nil, "", false
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
