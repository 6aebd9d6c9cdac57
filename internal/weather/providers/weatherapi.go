package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/wind-power-dashboard/internal/physics"
	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(cfg HTTPClientConfig, baseURL, apiKey string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = "https://api.weatherapi.com/v1/current.json"
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: baseURL,
		httpCfg: cfg,
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts "lat,lon".
	values.Set("q", fmt.Sprintf("%f,%f", loc.Lat, loc.Lon))

	var payload struct {
		Current *struct {
			LastUpdatedEpoch int64    `json:"last_updated_epoch"`
			TempC            float64  `json:"temp_c"`
			Humidity         float64  `json:"humidity"`
			DewpointC        float64  `json:"dewpoint_c"`
			PressureMb       float64  `json:"pressure_mb"`
			WindKph          float64  `json:"wind_kph"`
			WindDegree       int      `json:"wind_degree"`
			GustKph          *float64 `json:"gust_kph"`
		} `json:"current"`
	}

	if err := getJSON(ctx, p.httpCfg, p.circuit, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		return weather.Observation{}, err
	}
	if payload.Current == nil {
		return weather.Observation{}, errNoCurrent
	}

	c := payload.Current
	var gust *float64
	if c.GustKph != nil {
		g := kphToMS(*c.GustKph)
		gust = &g
	}

	return weather.Observation{
		Provider:        p.name,
		Timestamp:       time.Unix(c.LastUpdatedEpoch, 0).UTC(),
		TemperatureK:    physics.CelsiusToKelvin(c.TempC),
		PressurePa:      c.PressureMb * 100,
		HumidityPercent: c.Humidity,
		DewPointK:       physics.CelsiusToKelvin(c.DewpointC),
		WindSpeedMS:     kphToMS(c.WindKph),
		WindDeg:         c.WindDegree,
		WindGustMS:      gust,
	}, nil
}

func kphToMS(kph float64) float64 {
	return kph / 3.6
}
