package weather

import (
	"context"
	"time"
)

// Provider abstracts a weather data source (e.g. OpenWeather, Open-Meteo, WeatherAPI).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Observation, error)
}

// Store is the contract the persistence backends must satisfy.
type Store interface {
	// Upsert inserts obs, or updates the row with the same timestamp when a
	// measured value differs. It reports whether a row was written.
	Upsert(ctx context.Context, obs Observation) (bool, error)

	// List returns records with from <= timestamp <= to; nil bounds are open.
	List(ctx context.Context, from, to *time.Time) ([]Record, error)

	FetchChanged(ctx context.Context, q ChangeQuery) ([]Record, error)

	Close() error
}

// Sink receives every observation after it has been stored.
type Sink interface {
	Name() string
	Write(ctx context.Context, obs Observation) error
}
