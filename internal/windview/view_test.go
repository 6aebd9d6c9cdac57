package windview

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/wind-power-dashboard/internal/livesync"
	"github.com/i474232898/wind-power-dashboard/internal/physics"
	"github.com/i474232898/wind-power-dashboard/internal/store"
	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

var turbine = physics.WindTurbine{
	RotorDiameterM:   80,
	PowerCoefficient: 0.45,
	CutInSpeedMS:     3,
	CutOutSpeedMS:    25,
}

func record(wind float64) weather.Record {
	return weather.Record{Observation: weather.Observation{
		Timestamp:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TemperatureK:    288.15,
		PressurePa:      101325,
		HumidityPercent: 0,
		DewPointK:       270,
		WindSpeedMS:     wind,
	}}
}

func TestNewRejectsInvalidTurbine(t *testing.T) {
	bad := turbine
	bad.PowerCoefficient = 0.7
	if _, err := New(store.NewMemoryStore(), bad); err == nil {
		t.Fatal("expected error for coefficient above the Betz limit")
	}
}

func TestDeriveMatchesPhysics(t *testing.T) {
	v, err := New(store.NewMemoryStore(), turbine)
	if err != nil {
		t.Fatal(err)
	}

	row := v.Derive(record(10))
	if math.Abs(row.TemperatureC-15) > 1e-9 {
		t.Fatalf("temperature_c = %v", row.TemperatureC)
	}
	if math.Abs(row.MoistAirDensityKgM3-1.225) > 0.001 {
		t.Fatalf("density = %v", row.MoistAirDensityKgM3)
	}
	if !row.TurbineIsOn {
		t.Fatal("turbine should run at 10 m/s")
	}
	want := turbine.PowerOutputWatts(10, row.MoistAirDensityKgM3)
	if math.Abs(row.TurbinePowerWatts-want) > 1e-6 {
		t.Fatalf("power = %v, want %v", row.TurbinePowerWatts, want)
	}
	if got := physics.MaxSpecificWindPower(10, row.MoistAirDensityKgM3); math.Abs(row.MaxSpecificWindPowerWattsM2-got) > 1e-6 {
		t.Fatalf("max specific power = %v, want %v", row.MaxSpecificWindPowerWattsM2, got)
	}

	for _, wind := range []float64{1, 30} {
		off := v.Derive(record(wind))
		if off.TurbineIsOn || off.TurbinePowerWatts != 0 || off.MaxSpecificWindPowerWattsM2 != 0 {
			t.Fatalf("wind %v: %+v should be off with no power", wind, off)
		}
	}
}

func TestLookup(t *testing.T) {
	cols, err := Lookup(DefaultSeries)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(cols) != len(DefaultSeries) || cols[0].Name != "temperature_c" || cols[0].Title != "Temperature [°C]" {
		t.Fatalf("cols = %+v", cols)
	}

	_, err = Lookup([]string{"wind_speed_m_s", "wind_gust_m_s"})
	if err == nil || !strings.Contains(err.Error(), "wind_gust_m_s") {
		t.Fatalf("err = %v", err)
	}
}

func TestFetchRows(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	v, err := New(st, turbine)
	if err != nil {
		t.Fatal(err)
	}

	base := time.Now().UTC().Truncate(time.Minute)
	for i, wind := range []float64{8, 12} {
		obs := record(wind).Observation
		obs.Timestamp = base.Add(time.Duration(i-2) * time.Hour)
		if _, err := st.Upsert(ctx, obs); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := v.FetchRows(ctx, livesync.Query{
		Since:  base.Add(-24 * time.Hour),
		Series: []string{"wind_speed_m_s", "turbine_is_on"},
	})
	if err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Values[0] != 8 || rows[1].Values[0] != 12 || rows[0].Values[1] != 1 {
		t.Fatalf("values = %v %v", rows[0].Values, rows[1].Values)
	}
	if !rows[0].X.Before(rows[1].X) {
		t.Fatal("rows should be ordered by timestamp")
	}

	cursor := rows[1].Watermark
	if rows, _ := v.FetchRows(ctx, livesync.Query{Cursor: &cursor, Series: []string{"wind_speed_m_s"}}); len(rows) != 0 {
		t.Fatalf("rows past cursor = %d, want 0", len(rows))
	}

	if _, err := v.FetchRows(ctx, livesync.Query{Series: []string{"nope"}}); err == nil {
		t.Fatal("expected error for unknown series")
	}
}
