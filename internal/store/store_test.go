package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

var baseTime = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func sampleObservation(minutes int, tempK float64) weather.Observation {
	return weather.Observation{
		Timestamp:       baseTime.Add(time.Duration(minutes) * time.Minute),
		TemperatureK:    tempK,
		PressurePa:      101200,
		HumidityPercent: 80,
		DewPointK:       276,
		WindSpeedMS:     7.5,
		WindDeg:         240,
	}
}

// storesUnderTest returns every backend that can run in this environment.
func storesUnderTest(t *testing.T) map[string]weather.Store {
	t.Helper()

	stores := map[string]weather.Store{
		"memory": NewMemoryStore(),
	}

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "weather.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	stores["sqlite"] = sqliteStore

	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		pg, err := NewPostgresStore(context.Background(), url)
		if err != nil {
			t.Fatalf("failed to open postgres store: %v", err)
		}
		if _, err := pg.pool.Exec(context.Background(), "TRUNCATE weather"); err != nil {
			t.Fatalf("failed to truncate weather: %v", err)
		}
		stores["postgres"] = pg
	}

	for _, s := range stores {
		s := s
		t.Cleanup(func() { s.Close() })
	}
	return stores
}

func TestUpsertSemantics(t *testing.T) {
	ctx := context.Background()
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			obs := sampleObservation(0, 280)

			written, err := s.Upsert(ctx, obs)
			if err != nil || !written {
				t.Fatalf("expected first upsert to write, written=%v err=%v", written, err)
			}

			written, err = s.Upsert(ctx, obs)
			if err != nil || written {
				t.Fatalf("expected identical upsert to be a no-op, written=%v err=%v", written, err)
			}

			before, err := s.List(ctx, nil, nil)
			if err != nil || len(before) != 1 {
				t.Fatalf("expected one record, got %d (err=%v)", len(before), err)
			}
			if before[0].UpdatedAt.Before(before[0].CreatedAt) {
				t.Fatalf("updated_at %s before created_at %s", before[0].UpdatedAt, before[0].CreatedAt)
			}

			time.Sleep(5 * time.Millisecond)

			gust := 12.5
			revised := obs
			revised.TemperatureK = 281
			revised.WindGustMS = &gust
			written, err = s.Upsert(ctx, revised)
			if err != nil || !written {
				t.Fatalf("expected revised upsert to write, written=%v err=%v", written, err)
			}

			after, err := s.List(ctx, nil, nil)
			if err != nil || len(after) != 1 {
				t.Fatalf("expected one record after update, got %d (err=%v)", len(after), err)
			}
			got := after[0]
			if got.TemperatureK != 281 || got.WindGustMS == nil || *got.WindGustMS != gust {
				t.Fatalf("update not applied: %+v", got)
			}
			if !got.UpdatedAt.After(before[0].UpdatedAt) {
				t.Fatalf("expected updated_at to advance: before=%s after=%s", before[0].UpdatedAt, got.UpdatedAt)
			}
			if !got.CreatedAt.Equal(before[0].CreatedAt) {
				t.Fatalf("created_at changed: %s -> %s", before[0].CreatedAt, got.CreatedAt)
			}
			if !got.Timestamp.Equal(obs.Timestamp) {
				t.Fatalf("timestamp round trip: want %s got %s", obs.Timestamp, got.Timestamp)
			}
		})
	}
}

func TestFetchChangedLookbackWindow(t *testing.T) {
	ctx := context.Background()
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			// Inserted out of order on purpose.
			for _, m := range []int{30, -120, 10, 20} {
				if _, err := s.Upsert(ctx, sampleObservation(m, 280+float64(m))); err != nil {
					t.Fatalf("upsert: %v", err)
				}
			}

			records, err := s.FetchChanged(ctx, weather.ChangeQuery{Since: baseTime})
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if len(records) != 3 {
				t.Fatalf("expected 3 records inside the window, got %d", len(records))
			}
			for i, want := range []int{10, 20, 30} {
				if !records[i].Timestamp.Equal(baseTime.Add(time.Duration(want) * time.Minute)) {
					t.Fatalf("record %d out of order: %s", i, records[i].Timestamp)
				}
			}
		})
	}
}

func TestFetchChangedCursorIsStrictlyGreater(t *testing.T) {
	ctx := context.Background()
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			for _, m := range []int{1, 2, 3} {
				if _, err := s.Upsert(ctx, sampleObservation(m, 280)); err != nil {
					t.Fatalf("upsert: %v", err)
				}
			}

			first, err := s.FetchChanged(ctx, weather.ChangeQuery{Since: baseTime})
			if err != nil || len(first) != 3 {
				t.Fatalf("expected 3 records, got %d (err=%v)", len(first), err)
			}
			cursor := maxUpdatedAt(first)

			again, err := s.FetchChanged(ctx, weather.ChangeQuery{UpdatedAfter: &cursor})
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if len(again) != 0 {
				t.Fatalf("expected no rows past the cursor, got %d", len(again))
			}

			time.Sleep(5 * time.Millisecond)
			if _, err := s.Upsert(ctx, sampleObservation(4, 280)); err != nil {
				t.Fatalf("upsert: %v", err)
			}

			fresh, err := s.FetchChanged(ctx, weather.ChangeQuery{UpdatedAfter: &cursor})
			if err != nil {
				t.Fatalf("fetch: %v", err)
			}
			if len(fresh) != 1 || !fresh[0].Timestamp.Equal(baseTime.Add(4*time.Minute)) {
				t.Fatalf("expected only the new row, got %+v", fresh)
			}
		})
	}
}

func TestListBounds(t *testing.T) {
	ctx := context.Background()
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			for _, m := range []int{0, 10, 20, 30} {
				if _, err := s.Upsert(ctx, sampleObservation(m, 280)); err != nil {
					t.Fatalf("upsert: %v", err)
				}
			}

			from := baseTime.Add(10 * time.Minute)
			to := baseTime.Add(20 * time.Minute)
			records, err := s.List(ctx, &from, &to)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(records) != 2 {
				t.Fatalf("expected inclusive bounds to match 2 records, got %d", len(records))
			}

			all, err := s.List(ctx, nil, nil)
			if err != nil || len(all) != 4 {
				t.Fatalf("expected 4 records without bounds, got %d (err=%v)", len(all), err)
			}
		})
	}
}

func TestEmptyRangeIsNotAnError(t *testing.T) {
	ctx := context.Background()
	for name, s := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Upsert(ctx, sampleObservation(0, 280)); err != nil {
				t.Fatalf("upsert: %v", err)
			}

			from := baseTime.Add(time.Hour)
			records, err := s.List(ctx, &from, nil)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if records == nil || len(records) != 0 {
				t.Fatalf("expected an empty, non-nil result, got %#v", records)
			}

			changed, err := s.FetchChanged(ctx, weather.ChangeQuery{Since: from})
			if err != nil || len(changed) != 0 {
				t.Fatalf("expected no changed records, got %d (err=%v)", len(changed), err)
			}
		})
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory://")
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Fatalf("expected *MemoryStore, got %T", s)
	}

	path := filepath.Join(t.TempDir(), "nested", "w.db")
	s, err = Open(ctx, "sqlite://"+path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	if _, ok := s.(*SQLiteStore); !ok {
		t.Fatalf("expected *SQLiteStore, got %T", s)
	}

	if _, err := Open(ctx, "mysql://localhost/db"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}

func maxUpdatedAt(records []weather.Record) time.Time {
	var m time.Time
	for _, r := range records {
		if r.UpdatedAt.After(m) {
			m = r.UpdatedAt
		}
	}
	return m
}
