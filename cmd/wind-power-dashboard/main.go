package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/wind-power-dashboard/internal/api/http"
	"github.com/i474232898/wind-power-dashboard/internal/config"
	"github.com/i474232898/wind-power-dashboard/internal/livesync"
	"github.com/i474232898/wind-power-dashboard/internal/physics"
	"github.com/i474232898/wind-power-dashboard/internal/scheduler"
	"github.com/i474232898/wind-power-dashboard/internal/sink"
	"github.com/i474232898/wind-power-dashboard/internal/store"
	"github.com/i474232898/wind-power-dashboard/internal/weather"
	"github.com/i474232898/wind-power-dashboard/internal/weather/providers"
	"github.com/i474232898/wind-power-dashboard/internal/windview"
)

const serviceName = "wind-power-dashboard"

func main() {
	// Load configuration (also reads .env).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc := cfg.Location
	if cfg.NeedsGeocoding {
		loc, err = providers.ResolveLocation(loc, providers.GoogleGeocoder(cfg.GeocoderAPIKey))
		if err != nil {
			log.Fatalf("failed to resolve location: %v", err)
		}
	}
	log.Printf("INFO: tracking weather for %s", loc)

	// Shared HTTP client for outbound provider calls.
	httpConfig := providers.DefaultHTTPConfig(&http.Client{Timeout: cfg.HTTPTimeout})
	httpConfig.Backoff.MaxRetries = cfg.ProviderMaxRetries

	apiKey := cfg.OpenWeatherAPIKey
	if cfg.Provider == "weatherapi" {
		apiKey = cfg.WeatherAPIKey
	}
	provider, err := providers.New(providers.Settings{
		Name:    cfg.Provider,
		BaseURL: cfg.ProviderURL,
		APIKey:  apiKey,
		HTTP:    httpConfig,
	})
	if err != nil {
		log.Fatalf("failed to configure provider: %v", err)
	}
	cached := providers.NewCachedProvider(provider, cfg.FetchInterval)

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	sinks, closeSinks := openSinks(ctx, cfg)
	defer closeSinks()

	// Core service orchestrating provider, store and sinks.
	service := weather.NewService(st, cached, sinks...)

	view, err := windview.New(st, cfg.Turbine)
	if err != nil {
		log.Fatalf("failed to build %s: %v", windview.Name, err)
	}
	series := cfg.Dashboard.Series
	if len(series) == 0 {
		series = windview.DefaultSeries
	}
	columns, err := windview.Lookup(series)
	if err != nil {
		log.Fatalf("invalid DASH_SERIES: %v", err)
	}

	engine := livesync.NewEngine(view, livesync.EngineConfig{
		Series:       series,
		Lookback:     cfg.Dashboard.Lookback,
		QueryTimeout: cfg.Dashboard.QueryTimeout,
	})
	sessions := livesync.NewRegistry(engine)

	// Scheduler that periodically fetches weather and expires idle sessions.
	sched := scheduler.New(loc, cfg.FetchInterval, service).
		WithSessionSweep(sessions, cfg.Dashboard.SessionIdle)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	stack := physics.DefaultPEMStack()

	app := httpapi.NewApp(serviceName)
	httpapi.RegisterRoutes(app, httpapi.Dependencies{
		ServiceName:  serviceName,
		Weather:      service,
		View:         view,
		Sessions:     sessions,
		Series:       columns,
		Electrolyser: &stack,
		TickInterval: cfg.Dashboard.TickInterval,
		BaseContext:  ctx,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: dashboard listening on :%s", cfg.Port)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

// openSinks connects the configured optional sinks. A sink that cannot be
// reached is skipped so the dashboard still runs.
func openSinks(ctx context.Context, cfg *config.AppConfig) ([]weather.Sink, func()) {
	var (
		sinks  []weather.Sink
		closer []func() error
	)

	if cfg.Influx.Enabled() {
		s, err := sink.NewInfluxSink(ctx, sink.InfluxConfig{
			URL:    cfg.Influx.URL,
			Token:  cfg.Influx.Token,
			Org:    cfg.Influx.Org,
			Bucket: cfg.Influx.Bucket,
		})
		if err != nil {
			log.Printf("WARN: influxdb sink disabled: %v", err)
		} else {
			sinks = append(sinks, s)
			closer = append(closer, s.Close)
		}
	}

	if cfg.Kafka.Enabled() {
		s, err := sink.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Printf("WARN: kafka sink disabled: %v", err)
		} else {
			sinks = append(sinks, s)
			closer = append(closer, s.Close)
		}
	}

	return sinks, func() {
		for _, c := range closer {
			if err := c(); err != nil {
				log.Printf("WARN: closing sink: %v", err)
			}
		}
	}
}
