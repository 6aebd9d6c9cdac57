// Package sink mirrors loaded observations into secondary stores.
package sink

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

const influxMeasurement = "weather_observation"

// InfluxConfig holds the InfluxDB v2 connection settings.
type InfluxConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxSink writes every observation as a point, blocking until the
// server has accepted it.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// NewInfluxSink creates the client and verifies connectivity.
func NewInfluxSink(ctx context.Context, cfg InfluxConfig) (*InfluxSink, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}, nil
}

func (s *InfluxSink) Name() string { return "influxdb" }

func (s *InfluxSink) Write(ctx context.Context, obs weather.Observation) error {
	if err := s.writeAPI.WritePoint(ctx, observationPoint(obs)); err != nil {
		return fmt.Errorf("influxdb write: %w", err)
	}
	return nil
}

func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func observationPoint(obs weather.Observation) *write.Point {
	fields := map[string]interface{}{
		"temperature": obs.TemperatureK,
		"pressure":    obs.PressurePa,
		"humidity":    obs.HumidityPercent,
		"dew_point":   obs.DewPointK,
		"wind_speed":  obs.WindSpeedMS,
		"wind_deg":    obs.WindDeg,
	}
	if obs.WindGustMS != nil {
		fields["wind_gust"] = *obs.WindGustMS
	}

	return write.NewPoint(
		influxMeasurement,
		map[string]string{"provider": obs.Provider},
		fields,
		obs.Timestamp,
	)
}
