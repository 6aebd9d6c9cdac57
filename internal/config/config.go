package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/wind-power-dashboard/internal/physics"
	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

const (
	defaultLat = 52.52
	defaultLon = 13.405

	minFetchInterval = 2 * time.Minute

	defaultTickInterval = time.Minute
	minTickInterval     = 5 * time.Second
	defaultLookback     = 24 * time.Hour
	defaultQueryTimeout = 5 * time.Second
	defaultSessionIdle  = 30 * time.Minute
)

type AppConfig struct {
	Provider           string `validate:"oneof=openweather openmeteo weatherapi"`
	ProviderURL        string `validate:"omitempty,url"`
	OpenWeatherAPIKey  string
	WeatherAPIKey      string
	GeocoderAPIKey     string
	ProviderMaxRetries int           `validate:"gte=0,lte=10"`
	HTTPTimeout        time.Duration `validate:"gt=0"`

	// Location to track. NeedsGeocoding is set when only a city was given
	// and a geocoder key is available to resolve it at startup.
	Location       weather.Location
	NeedsGeocoding bool

	// FetchInterval controls how often the ETL job runs; also the cache TTL.
	FetchInterval time.Duration `validate:"gte=2m"`

	DatabaseURL string `validate:"required"`

	Dashboard DashboardConfig
	Turbine   physics.WindTurbine
	Influx    InfluxConfig
	Kafka     KafkaConfig

	Port string `validate:"required,numeric"`
}

type DashboardConfig struct {
	TickInterval time.Duration `validate:"gte=5s"`
	Lookback     time.Duration `validate:"gt=0"`
	QueryTimeout time.Duration `validate:"gt=0"`
	Series       []string      `validate:"dive,required"` // empty: the default view series
	SessionIdle  time.Duration `validate:"gt=0"`
}

// InfluxConfig is optional; the sink is enabled when URL is set.
type InfluxConfig struct {
	URL    string `validate:"omitempty,url"`
	Token  string `validate:"required_with=URL"`
	Org    string `validate:"required_with=URL"`
	Bucket string `validate:"required_with=URL"`
}

func (c InfluxConfig) Enabled() bool { return c.URL != "" }

// KafkaConfig is optional; the sink is enabled when brokers are set.
type KafkaConfig struct {
	Brokers []string
	Topic   string `validate:"required_with=Brokers"`
}

func (c KafkaConfig) Enabled() bool { return len(c.Brokers) > 0 }

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Provider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", "openweather"))
	cfg.ProviderURL = os.Getenv("OPENWEATHER_API_URI")
	if cfg.Provider != "openweather" {
		cfg.ProviderURL = os.Getenv("WEATHER_PROVIDER_URI")
	}
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.ProviderMaxRetries = getenvInt("PROVIDER_MAX_RETRIES", 0)

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	minutes := getenvInt("WEATHER_UPDATE_INTERVAL_MINUTES", 5)
	cfg.FetchInterval = time.Duration(minutes) * time.Minute
	if cfg.FetchInterval < minFetchInterval {
		log.Printf("WARN: WEATHER_UPDATE_INTERVAL_MINUTES=%d below minimum, using %s", minutes, minFetchInterval)
		cfg.FetchInterval = minFetchInterval
	}

	if cfg.Location, cfg.NeedsGeocoding, err = loadLocation(cfg.GeocoderAPIKey); err != nil {
		return nil, err
	}

	cfg.DatabaseURL = getenvDefault("DATABASE_URL", "sqlite://data/weather.db")

	if cfg.Dashboard, err = loadDashboard(); err != nil {
		return nil, err
	}
	if cfg.Turbine, err = loadTurbine(); err != nil {
		return nil, err
	}

	cfg.Influx = InfluxConfig{
		URL:    os.Getenv("INFLUXDB_URL"),
		Token:  os.Getenv("INFLUX_TOKEN"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Bucket: os.Getenv("INFLUXDB_BUCKET"),
	}
	cfg.Kafka = KafkaConfig{
		Brokers: getenvList("KAFKA_BROKERS", nil),
		Topic:   getenvDefault("KAFKA_TOPIC", "weather-observations"),
	}

	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadLocation(geocoderKey string) (weather.Location, bool, error) {
	loc := weather.Location{
		City:    os.Getenv("WEATHER_LOCATION_CITY"),
		Country: os.Getenv("WEATHER_LOCATION_COUNTRY"),
	}

	_, hasLat := os.LookupEnv("WEATHER_LAT")
	_, hasLon := os.LookupEnv("WEATHER_LON")
	if hasLat != hasLon {
		return loc, false, fmt.Errorf("WEATHER_LAT and WEATHER_LON must be set together")
	}
	if !hasLat && loc.City != "" && geocoderKey != "" {
		return loc, true, nil
	}

	var err error
	if loc.Lat, err = getenvFloat("WEATHER_LAT", defaultLat); err != nil {
		return loc, false, err
	}
	if loc.Lon, err = getenvFloat("WEATHER_LON", defaultLon); err != nil {
		return loc, false, err
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lon < -180 || loc.Lon > 180 {
		return loc, false, fmt.Errorf("coordinates out of range: %s", loc.Key())
	}
	return loc, false, nil
}

func loadDashboard() (DashboardConfig, error) {
	ms := getenvInt("DASH_UPDATE_INTERVAL_MS", int(defaultTickInterval.Milliseconds()))
	d := DashboardConfig{
		TickInterval: time.Duration(ms) * time.Millisecond,
		Series:       getenvList("DASH_SERIES", nil),
	}
	if d.TickInterval < minTickInterval {
		log.Printf("WARN: DASH_UPDATE_INTERVAL_MS=%d below minimum, using %s", ms, minTickInterval)
		d.TickInterval = minTickInterval
	}

	var err error
	if d.Lookback, err = getenvDuration("DASH_LOOKBACK", defaultLookback); err != nil {
		return d, err
	}
	if d.QueryTimeout, err = getenvDuration("DASH_QUERY_TIMEOUT", defaultQueryTimeout); err != nil {
		return d, err
	}
	if d.SessionIdle, err = getenvDuration("DASH_SESSION_IDLE", defaultSessionIdle); err != nil {
		return d, err
	}
	return d, nil
}

func loadTurbine() (physics.WindTurbine, error) {
	var (
		t   physics.WindTurbine
		err error
	)
	if t.RotorDiameterM, err = getenvFloat("TURBINE_ROTOR_DIAMETER_M", 80); err != nil {
		return t, err
	}
	if t.PowerCoefficient, err = getenvFloat("TURBINE_POWER_COEFFICIENT", 0.45); err != nil {
		return t, err
	}
	if t.CutInSpeedMS, err = getenvFloat("TURBINE_CUT_IN_M_S", 3); err != nil {
		return t, err
	}
	if t.CutOutSpeedMS, err = getenvFloat("TURBINE_CUT_OUT_M_S", 25); err != nil {
		return t, err
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("invalid turbine: %w", err)
	}
	return t, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		log.Printf("WARN: invalid %s=%q, using %d", key, v, def)
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getenvList splits a comma-separated variable, dropping empty items.
func getenvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
