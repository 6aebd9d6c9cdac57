package providers

import (
	"fmt"
	"strings"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

// Settings selects and configures a provider by name.
type Settings struct {
	Name    string // openweather, openmeteo or weatherapi
	BaseURL string
	APIKey  string
	HTTP    HTTPClientConfig
}

// New builds the provider named in s.
func New(s Settings) (weather.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(s.Name)) {
	case "", "openweather":
		return NewOpenWeatherProvider(s.HTTP, s.BaseURL, s.APIKey), nil
	case "openmeteo":
		return NewOpenMeteoProvider(s.HTTP, s.BaseURL), nil
	case "weatherapi":
		return NewWeatherAPIProvider(s.HTTP, s.BaseURL, s.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", s.Name)
	}
}
