package livesync

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Session owns one ClientStore for the lifetime of a dashboard connection.
// Ticks are serialized: only one tick mutates the store at a time.
type Session struct {
	ID string

	engine *Engine

	mu    sync.Mutex
	store *ClientStore

	lastSeen atomic.Int64 // unix nanoseconds
}

// NewSession creates a session with an empty store.
func NewSession(id string, engine *Engine) *Session {
	s := &Session{
		ID:     id,
		engine: engine,
		store:  engine.NewStore(),
	}
	s.touch()
	return s
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen returns when the session last ticked.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Tick runs one sync cycle: fetch rows past the cursor, merge them, and
// extend r with whatever it has not drawn yet. It reports whether r was
// extended. Only a renderer failure is returned as an error.
func (s *Session) Tick(ctx context.Context, n int, r Renderer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	log.Printf("DEBUG: livesync: session %s tick %d", s.ID, n)

	var cursor *time.Time
	if c, ok := s.store.Cursor(); ok {
		cursor = &c
	}

	rows := s.engine.FetchSince(ctx, cursor)
	if len(rows) == 0 {
		log.Printf("DEBUG: livesync: session %s: no new data", s.ID)
	} else if err := s.store.Merge(rows); err != nil {
		log.Printf("ERROR: livesync: session %s: dropping %d rows: %v", s.ID, len(rows), err)
	} else {
		log.Printf("INFO: livesync: session %s: fetched %d new records", s.ID, len(rows))
	}

	delta, ok := ComputeDelta(r.RenderedX(), s.store)
	if !ok {
		return false, nil
	}

	log.Printf("DEBUG: livesync: session %s: pushing %d new points", s.ID, delta.Points())
	if err := r.Extend(delta); err != nil {
		return false, err
	}
	return true, nil
}

// Snapshot returns a copy of the session's store.
func (s *Session) Snapshot() ClientStore {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := ClientStore{
		Watermark: append([]time.Time(nil), s.store.Watermark...),
		X:         append([]string(nil), s.store.X...),
		Y:         make([][]float64, len(s.store.Y)),
	}
	for i, ys := range s.store.Y {
		cp.Y[i] = append([]float64(nil), ys...)
	}
	return cp
}
