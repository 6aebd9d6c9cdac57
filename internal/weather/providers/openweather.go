package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

// DefaultOpenWeatherURI is the One Call endpoint used when none is configured.
const DefaultOpenWeatherURI = "https://api.openweathermap.org/data/3.0/onecall"

var errNoCurrent = errors.New("response has no current block")

// OpenWeatherProvider implements the weather.Provider interface for the
// OpenWeather One Call API.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(cfg HTTPClientConfig, apiURI, apiKey string) *OpenWeatherProvider {
	if apiURI == "" {
		apiURI = DefaultOpenWeatherURI
	}
	return &OpenWeatherProvider{
		name:    "openweather",
		apiKey:  apiKey,
		baseURL: apiURI,
		httpCfg: cfg,
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type openWeatherCurrent struct {
	Dt        int64    `json:"dt"`
	Temp      float64  `json:"temp"`
	Pressure  float64  `json:"pressure"`
	Humidity  float64  `json:"humidity"`
	DewPoint  float64  `json:"dew_point"`
	WindSpeed float64  `json:"wind_speed"`
	WindDeg   int      `json:"wind_deg"`
	WindGust  *float64 `json:"wind_gust"`
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	values.Set("appid", p.apiKey)
	values.Set("units", "standard")
	values.Set("exclude", "minutely,hourly,daily,alerts")

	var payload struct {
		Current *openWeatherCurrent `json:"current"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Observation{}, err
	}
	if payload.Current == nil {
		return weather.Observation{}, errNoCurrent
	}

	c := payload.Current
	return weather.Observation{
		Provider:        p.name,
		Timestamp:       time.Unix(c.Dt, 0).UTC(),
		TemperatureK:    c.Temp,
		PressurePa:      c.Pressure * 100,
		HumidityPercent: c.Humidity,
		DewPointK:       c.DewPoint,
		WindSpeedMS:     c.WindSpeed,
		WindDeg:         c.WindDeg,
		WindGustMS:      c.WindGust,
	}, nil
}
