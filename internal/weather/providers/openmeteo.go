package providers

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/wind-power-dashboard/internal/physics"
	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

const openMeteoCurrentFields = "temperature_2m,relative_humidity_2m,dew_point_2m,surface_pressure,wind_speed_10m,wind_direction_10m,wind_gusts_10m"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(cfg HTTPClientConfig, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		httpCfg: cfg,
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	values.Set("current", openMeteoCurrentFields)
	values.Set("wind_speed_unit", "ms")
	values.Set("timeformat", "unixtime")

	var payload struct {
		Current *struct {
			Time             int64    `json:"time"`
			Temperature      float64  `json:"temperature_2m"`
			RelativeHumidity float64  `json:"relative_humidity_2m"`
			DewPoint         float64  `json:"dew_point_2m"`
			SurfacePressure  float64  `json:"surface_pressure"`
			WindSpeed        float64  `json:"wind_speed_10m"`
			WindDirection    float64  `json:"wind_direction_10m"`
			WindGusts        *float64 `json:"wind_gusts_10m"`
		} `json:"current"`
	}

	if err := getJSON(ctx, p.httpCfg, p.circuit, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		return weather.Observation{}, err
	}
	if payload.Current == nil {
		return weather.Observation{}, errNoCurrent
	}

	c := payload.Current
	return weather.Observation{
		Provider:        p.name,
		Timestamp:       time.Unix(c.Time, 0).UTC(),
		TemperatureK:    physics.CelsiusToKelvin(c.Temperature),
		PressurePa:      c.SurfacePressure * 100,
		HumidityPercent: c.RelativeHumidity,
		DewPointK:       physics.CelsiusToKelvin(c.DewPoint),
		WindSpeedMS:     c.WindSpeed,
		WindDeg:         int(math.Round(c.WindDirection)),
		WindGustMS:      c.WindGusts,
	}, nil
}
