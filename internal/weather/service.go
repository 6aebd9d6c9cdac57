package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNoProvider  = errors.New("no weather provider configured")
	ErrNoTimestamp = errors.New("observation has no timestamp")
	validate       = validator.New()
)

// Service runs the extract/transform/load cycle and serves stored history.
type Service struct {
	store    Store
	provider Provider
	sinks    []Sink
}

// NewService creates a new Service.
func NewService(store Store, provider Provider, sinks ...Sink) *Service {
	return &Service{
		store:    store,
		provider: provider,
		sinks:    sinks,
	}
}

// FetchAndStore fetches the current observation for loc, stores it and
// mirrors it to every sink. Sink failures are logged, not returned.
func (s *Service) FetchAndStore(ctx context.Context, loc Location) error {
	if s.provider == nil {
		return ErrNoProvider
	}

	log.Printf("DEBUG: FetchAndStore called for %s with provider %s", loc, s.provider.Name())

	obs, err := s.provider.Fetch(ctx, loc)
	if err != nil {
		return fmt.Errorf("extract from %s: %w", s.provider.Name(), err)
	}

	obs, err = Transform(obs)
	if err != nil {
		return fmt.Errorf("transform: %w", err)
	}

	written, err := s.store.Upsert(ctx, obs)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if !written {
		log.Printf("INFO: observation at %s unchanged; nothing written", obs.Timestamp.Format(time.RFC3339))
		return nil
	}
	log.Printf("INFO: stored observation at %s from %s", obs.Timestamp.Format(time.RFC3339), obs.Provider)

	var wg sync.WaitGroup
	for _, sink := range s.sinks {
		sink := sink
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sink.Write(ctx, obs); err != nil {
				log.Printf("ERROR: sink %s write failed: %v", sink.Name(), err)
			}
		}()
	}
	wg.Wait()

	return nil
}

// Transform normalizes an observation and validates its ranges.
func Transform(obs Observation) (Observation, error) {
	if obs.Timestamp.IsZero() {
		return obs, ErrNoTimestamp
	}
	obs.Timestamp = obs.Timestamp.UTC().Truncate(time.Millisecond)

	if err := validate.Struct(obs); err != nil {
		return obs, err
	}
	return obs, nil
}

// History delegates to the underlying store.
func (s *Service) History(ctx context.Context, from, to *time.Time) ([]Record, error) {
	return s.store.List(ctx, from, to)
}
