package weather

import (
	"fmt"
	"time"
)

// Location is the place observations are fetched for.
// Lat/Lon are required by every provider; City/Country are informational
// unless the coordinates are resolved by a geocoder at startup.
type Location struct {
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Key returns a canonical string key for indexing this location in caches.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f:%.4f", l.Lat, l.Lon)
}

func (l Location) String() string {
	if l.City != "" {
		return fmt.Sprintf("%s,%s (%s)", l.City, l.Country, l.Key())
	}
	return l.Key()
}

// Observation is one weather sample in SI units, keyed by its timestamp.
type Observation struct {
	Provider        string    `json:"provider,omitempty"`
	Timestamp       time.Time `json:"timestamp"` // always UTC
	TemperatureK    float64   `json:"temperature_k" validate:"gt=0"`
	PressurePa      float64   `json:"pressure_pa" validate:"gt=0"`
	HumidityPercent float64   `json:"humidity_percent" validate:"gte=0,lte=100"`
	DewPointK       float64   `json:"dew_point_k" validate:"gt=0"`
	WindSpeedMS     float64   `json:"wind_speed_m_s" validate:"gte=0"`
	WindDeg         int       `json:"wind_deg" validate:"gte=0,lte=360"`
	WindGustMS      *float64  `json:"wind_gust_m_s,omitempty" validate:"omitempty,gte=0"`
}

// Record is a persisted Observation with its server-assigned audit columns.
type Record struct {
	ID int64 `json:"id"`
	Observation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChangeQuery selects records for incremental readers.
// When UpdatedAfter is set only rows with updated_at strictly greater are
// returned; otherwise rows with timestamp >= Since.
// Results are ordered by timestamp ascending.
type ChangeQuery struct {
	Since        time.Time
	UpdatedAfter *time.Time
}
