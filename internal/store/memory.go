package store

import (
	"sync"
	"time"
)

// SessionInfo describes one live websocket session. The connection itself is
// owned exclusively by its server-side handler; the registry only tracks
// identity for observability.
type SessionInfo struct {
	SessionID   string
	BusinessID  string
	ConnectedAt time.Time
}

// SessionRegistry tracks live sessions across all businesses.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]SessionInfo
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]SessionInfo)}
}

func (r *SessionRegistry) Add(sessionID, businessID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = SessionInfo{
		SessionID:   sessionID,
		BusinessID:  businessID,
		ConnectedAt: time.Now(),
	}
}

func (r *SessionRegistry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Get returns the session info if the session is live.
func (r *SessionRegistry) Get(sessionID string) (SessionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.sessions[sessionID]
	return info, ok
}
