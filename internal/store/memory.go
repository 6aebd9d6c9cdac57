package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory implementation of weather.Store.
// It assigns created_at/updated_at the way the SQL triggers do.
type MemoryStore struct {
	mu sync.RWMutex

	records []weather.Record
	// key: observation timestamp in unix nanoseconds, value: index into records
	index  map[int64]int
	nextID int64

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: make(map[int64]int),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Upsert inserts obs or updates the record sharing its timestamp when a
// measured value differs.
func (s *MemoryStore) Upsert(ctx context.Context, obs weather.Observation) (bool, error) {
	key := obs.Timestamp.UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if i, ok := s.index[key]; ok {
		rec := &s.records[i]
		if sameMeasurements(rec.Observation, obs) {
			return false, nil
		}
		rec.Observation = obs
		if now.After(rec.UpdatedAt) {
			rec.UpdatedAt = now
		} else {
			rec.UpdatedAt = rec.UpdatedAt.Add(time.Microsecond)
		}
		return true, nil
	}

	s.nextID++
	s.records = append(s.records, weather.Record{
		ID:          s.nextID,
		Observation: obs,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	s.index[key] = len(s.records) - 1
	return true, nil
}

// List returns all records between from and to (inclusive) ordered by timestamp.
func (s *MemoryStore) List(ctx context.Context, from, to *time.Time) ([]weather.Record, error) {
	return s.filter(func(r weather.Record) bool {
		if from != nil && r.Timestamp.Before(*from) {
			return false
		}
		if to != nil && r.Timestamp.After(*to) {
			return false
		}
		return true
	}), nil
}

// FetchChanged returns records matching q ordered by timestamp.
func (s *MemoryStore) FetchChanged(ctx context.Context, q weather.ChangeQuery) ([]weather.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.filter(func(r weather.Record) bool {
		if q.UpdatedAfter != nil {
			return r.UpdatedAt.After(*q.UpdatedAfter)
		}
		return !r.Timestamp.Before(q.Since)
	}), nil
}

func (s *MemoryStore) filter(keep func(weather.Record) bool) []weather.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]weather.Record, 0)
	for _, r := range s.records {
		if keep(r) {
			result = append(result, r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result
}

func (s *MemoryStore) Close() error {
	return nil
}

func sameMeasurements(a, b weather.Observation) bool {
	if (a.WindGustMS == nil) != (b.WindGustMS == nil) {
		return false
	}
	if a.WindGustMS != nil && *a.WindGustMS != *b.WindGustMS {
		return false
	}
	return a.TemperatureK == b.TemperatureK &&
		a.PressurePa == b.PressurePa &&
		a.HumidityPercent == b.HumidityPercent &&
		a.DewPointK == b.DewPointK &&
		a.WindSpeedMS == b.WindSpeedMS &&
		a.WindDeg == b.WindDeg
}
