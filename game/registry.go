package game

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry is the concurrency-safe table of active sessions. It holds the
// only reference path to a live session; once removed, no new work can reach
// it and stale timer callbacks fall through their registry lookup.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty session registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
	}
}

// NewLobbyID generates a fresh lobby match identifier.
func NewLobbyID() string {
	return "lobby-" + uuid.NewString()
}

// Insert adds a session, rejecting duplicate match ids.
func (r *Registry) Insert(session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[session.ID]; exists {
		return fmt.Errorf("session %s already registered", session.ID)
	}
	r.sessions[session.ID] = session
	return nil
}

// Get returns the session for a match id, if still active.
func (r *Registry) Get(matchID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[matchID]
	return session, ok
}

// Remove drops the session from the table and cancels its timers.
func (r *Registry) Remove(matchID string) {
	r.mu.Lock()
	session, ok := r.sessions[matchID]
	delete(r.sessions, matchID)
	r.mu.Unlock()

	if ok {
		session.cancelTimers()
	}
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// PendingSettlement lists sessions held in SETTLING after exhausted retries,
// for reconciliation tooling.
func (r *Registry) PendingSettlement() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pending []*Session
	for _, session := range r.sessions {
		if session.SettlementPending() {
			pending = append(pending, session)
		}
	}
	return pending
}
