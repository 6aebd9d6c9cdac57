package livesync

import (
	"context"
	"errors"
	"log"
	"time"
)

const (
	// DefaultLookback is the window loaded on a session's first tick.
	DefaultLookback = 24 * time.Hour
	// DefaultQueryTimeout bounds every query against the source.
	DefaultQueryTimeout = 5 * time.Second
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	Series       []string
	Lookback     time.Duration
	QueryTimeout time.Duration
}

// Engine fetches new rows from a Source. It holds no per-session state and
// is shared by all sessions.
type Engine struct {
	source       Source
	series       []string
	lookback     time.Duration
	queryTimeout time.Duration
	now          func() time.Time
}

// NewEngine creates an Engine; zero durations fall back to the defaults.
func NewEngine(source Source, cfg EngineConfig) *Engine {
	if cfg.Lookback <= 0 {
		cfg.Lookback = DefaultLookback
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	return &Engine{
		source:       source,
		series:       append([]string(nil), cfg.Series...),
		lookback:     cfg.Lookback,
		queryTimeout: cfg.QueryTimeout,
		now:          time.Now,
	}
}

// Series returns the tracked series names in order.
func (e *Engine) Series() []string {
	return append([]string(nil), e.series...)
}

// FetchSince returns rows newer than cursor, or the lookback window when
// cursor is nil. Failures, including query timeouts, are logged and
// reported as no new data; the next tick is the retry.
func (e *Engine) FetchSince(ctx context.Context, cursor *time.Time) []Row {
	q := Query{Cursor: cursor, Series: e.series}
	if cursor == nil {
		q.Since = e.now().Add(-e.lookback).UTC()
		log.Printf("INFO: livesync: initial load since %s", q.Since.Format(time.RFC3339))
	} else {
		log.Printf("DEBUG: livesync: incremental fetch updated_at > %s", cursor.Format(time.RFC3339Nano))
	}

	qctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	rows, err := e.source.FetchRows(qctx, q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("ERROR: livesync: query timed out after %s: %v", e.queryTimeout, err)
		} else {
			log.Printf("ERROR: livesync: database error: %v", err)
		}
		return nil
	}
	return rows
}

// NewStore returns an empty ClientStore sized for this engine's series.
func (e *Engine) NewStore() *ClientStore {
	return NewClientStore(len(e.series))
}
