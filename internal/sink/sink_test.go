package sink

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

func sampleObservation() weather.Observation {
	gust := 9.5
	return weather.Observation{
		Provider:        "openweather",
		Timestamp:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TemperatureK:    283.15,
		PressurePa:      101325,
		HumidityPercent: 70,
		DewPointK:       278.0,
		WindSpeedMS:     7.2,
		WindDeg:         240,
		WindGustMS:      &gust,
	}
}

func TestInfluxSinkWritesPoint(t *testing.T) {
	var (
		mu    sync.Mutex
		body  string
		query string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"name":"influxdb","message":"ready for queries and writes","status":"pass","checks":[],"version":"2.7.0","commit":""}`)
		case "/api/v2/write":
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			body = string(b)
			query = r.URL.RawQuery
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s, err := NewInfluxSink(context.Background(), InfluxConfig{URL: srv.URL, Token: "t", Org: "org", Bucket: "weather"})
	if err != nil {
		t.Fatalf("NewInfluxSink: %v", err)
	}
	defer s.Close()

	if err := s.Write(context.Background(), sampleObservation()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !strings.HasPrefix(body, "weather_observation,provider=openweather ") {
		t.Fatalf("unexpected line protocol: %q", body)
	}
	for _, f := range []string{"wind_speed=7.2", "wind_gust=9.5", "pressure=101325"} {
		if !strings.Contains(body, f) {
			t.Fatalf("line %q missing %s", body, f)
		}
	}
	if !strings.Contains(query, "bucket=weather") || !strings.Contains(query, "org=org") {
		t.Fatalf("unexpected query %q", query)
	}
}

func TestInfluxSinkWriteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"name":"influxdb","message":"ok","status":"pass","checks":[],"version":"2.7.0","commit":""}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"code":"unauthorized","message":"unauthorized access"}`)
	}))
	defer srv.Close()

	s, err := NewInfluxSink(context.Background(), InfluxConfig{URL: srv.URL, Token: "bad", Org: "org", Bucket: "b"})
	if err != nil {
		t.Fatalf("NewInfluxSink: %v", err)
	}
	defer s.Close()

	if err := s.Write(context.Background(), sampleObservation()); err == nil {
		t.Fatal("expected write error")
	}
}

func TestKafkaSinkPublishesJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var obs weather.Observation
		if err := json.Unmarshal(val, &obs); err != nil {
			return err
		}
		if obs.WindSpeedMS != 7.2 || obs.Provider != "openweather" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	s := NewKafkaSinkWithProducer(producer, "weather")
	if err := s.Write(context.Background(), sampleObservation()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestKafkaSinkSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	s := NewKafkaSinkWithProducer(producer, "weather")
	err := s.Write(context.Background(), sampleObservation())
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("err = %v, want %v", err, sarama.ErrOutOfBrokers)
	}
	s.Close()
}

func TestKafkaSinkCancelledContext(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	s := NewKafkaSinkWithProducer(producer, "weather")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Write(ctx, sampleObservation()); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	s.Close()
}
