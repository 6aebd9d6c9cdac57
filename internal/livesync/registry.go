package livesync

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("dashboard session not found")

// Registry tracks live sessions by id.
type Registry struct {
	engine *Engine

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry(engine *Engine) *Registry {
	return &Registry{
		engine:   engine,
		sessions: make(map[string]*Session),
	}
}

// Engine returns the engine shared by the registry's sessions.
func (r *Registry) Engine() *Engine {
	return r.engine
}

// Create starts a new session with an empty store.
func (r *Registry) Create() *Session {
	s := NewSession(uuid.NewString(), r.engine)

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	log.Printf("INFO: livesync: session %s started", s.ID)
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove discards a session and its store.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	log.Printf("INFO: livesync: session %s ended", id)
	return true
}

// Sweep removes sessions idle for longer than maxIdle and returns how many.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("INFO: livesync: swept %d idle sessions", removed)
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
