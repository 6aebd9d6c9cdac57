package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubProvider struct {
	obs Observation
	err error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Fetch(ctx context.Context, loc Location) (Observation, error) {
	return p.obs, p.err
}

type stubStore struct {
	written  []Observation
	upsertOK bool
	err      error
}

func (s *stubStore) Upsert(ctx context.Context, obs Observation) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.written = append(s.written, obs)
	return s.upsertOK, nil
}

func (s *stubStore) List(ctx context.Context, from, to *time.Time) ([]Record, error) {
	return nil, nil
}

func (s *stubStore) FetchChanged(ctx context.Context, q ChangeQuery) ([]Record, error) {
	return nil, nil
}

func (s *stubStore) Close() error { return nil }

type stubSink struct {
	name string
	err  error

	mu  sync.Mutex
	got []Observation
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Write(ctx context.Context, obs Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, obs)
	return s.err
}

func validObservation() Observation {
	return Observation{
		Provider:        "stub",
		Timestamp:       time.Date(2026, 3, 1, 13, 0, 0, 123456789, time.FixedZone("CET", 3600)),
		TemperatureK:    283.15,
		PressurePa:      101325,
		HumidityPercent: 60,
		DewPointK:       275.5,
		WindSpeedMS:     6,
		WindDeg:         90,
	}
}

func TestTransformNormalizesTimestamp(t *testing.T) {
	obs, err := Transform(validObservation())
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if obs.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp not UTC: %v", obs.Timestamp)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 123000000, time.UTC)
	if !obs.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", obs.Timestamp, want)
	}
}

func TestTransformRejectsInvalid(t *testing.T) {
	noTS := validObservation()
	noTS.Timestamp = time.Time{}
	if _, err := Transform(noTS); !errors.Is(err, ErrNoTimestamp) {
		t.Fatalf("err = %v, want %v", err, ErrNoTimestamp)
	}

	humid := validObservation()
	humid.HumidityPercent = 140
	if _, err := Transform(humid); err == nil {
		t.Fatal("expected validation error for humidity > 100")
	}

	gust := -1.0
	neg := validObservation()
	neg.WindGustMS = &gust
	if _, err := Transform(neg); err == nil {
		t.Fatal("expected validation error for negative gust")
	}
}

func TestFetchAndStoreWritesSinks(t *testing.T) {
	st := &stubStore{upsertOK: true}
	good := &stubSink{name: "good"}
	bad := &stubSink{name: "bad", err: errors.New("sink down")}
	svc := NewService(st, &stubProvider{obs: validObservation()}, good, bad)

	if err := svc.FetchAndStore(context.Background(), Location{Lat: 1, Lon: 2}); err != nil {
		t.Fatalf("FetchAndStore: %v", err)
	}
	if len(st.written) != 1 {
		t.Fatalf("store writes = %d", len(st.written))
	}
	if len(good.got) != 1 || len(bad.got) != 1 {
		t.Fatalf("sink writes good=%d bad=%d", len(good.got), len(bad.got))
	}
}

func TestFetchAndStoreSkipsSinksWhenUnchanged(t *testing.T) {
	st := &stubStore{upsertOK: false}
	sink := &stubSink{name: "s"}
	svc := NewService(st, &stubProvider{obs: validObservation()}, sink)

	if err := svc.FetchAndStore(context.Background(), Location{}); err != nil {
		t.Fatalf("FetchAndStore: %v", err)
	}
	if len(sink.got) != 0 {
		t.Fatalf("sink writes = %d, want 0", len(sink.got))
	}
}

func TestFetchAndStoreErrors(t *testing.T) {
	providerErr := errors.New("provider down")
	storeErr := errors.New("disk full")

	cases := map[string]struct {
		svc  *Service
		want error
	}{
		"no provider":    {NewService(&stubStore{}, nil), ErrNoProvider},
		"provider error": {NewService(&stubStore{}, &stubProvider{err: providerErr}), providerErr},
		"store error":    {NewService(&stubStore{err: storeErr}, &stubProvider{obs: validObservation()}), storeErr},
		"invalid obs":    {NewService(&stubStore{}, &stubProvider{obs: Observation{}}), ErrNoTimestamp},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if err := tc.svc.FetchAndStore(context.Background(), Location{}); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}
