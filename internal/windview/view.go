// Package windview derives the wind-power view (v_wind_power) from stored
// weather observations and the configured turbine.
package windview

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/i474232898/wind-power-dashboard/internal/livesync"
	"github.com/i474232898/wind-power-dashboard/internal/physics"
	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

// Name is the view's table name as used in logs and the API.
const Name = "v_wind_power"

// Row is one observation joined with the physical model outputs.
type Row struct {
	weather.Record
	TemperatureC                float64 `json:"temperature_c"`
	Humidity                    float64 `json:"humidity"`
	MoistAirDensityKgM3         float64 `json:"moist_air_density_kg_m3"`
	TurbineIsOn                 bool    `json:"turbine_is_on"`
	MaxSpecificWindPowerWattsM2 float64 `json:"max_specific_wind_power_watts_m2"`
	TurbinePowerWatts           float64 `json:"turbine_power_watts"`
}

// View reads observations from a store and derives Rows.
type View struct {
	store   weather.Store
	turbine physics.WindTurbine
}

// New returns a View over store for the given turbine.
func New(store weather.Store, turbine physics.WindTurbine) (*View, error) {
	if err := turbine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid turbine: %w", err)
	}
	return &View{store: store, turbine: turbine}, nil
}

// Derive computes the view row for one record.
func (v *View) Derive(rec weather.Record) Row {
	tempC := physics.KelvinToCelsius(rec.TemperatureK)
	humidity := rec.HumidityPercent / 100
	density := physics.HumidAirDensity(tempC, rec.PressurePa, humidity)

	row := Row{
		Record:              rec,
		TemperatureC:        tempC,
		Humidity:            humidity,
		MoistAirDensityKgM3: density,
		TurbineIsOn:         v.turbine.IsOn(rec.WindSpeedMS),
	}
	if row.TurbineIsOn {
		row.MaxSpecificWindPowerWattsM2 = physics.MaxSpecificWindPower(rec.WindSpeedMS, density)
		row.TurbinePowerWatts = v.turbine.PowerOutputWatts(rec.WindSpeedMS, density)
	}
	return row
}

// List returns derived rows with from <= timestamp <= to.
func (v *View) List(ctx context.Context, from, to *time.Time) ([]Row, error) {
	records, err := v.store.List(ctx, from, to)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, v.Derive(rec))
	}
	return rows, nil
}

// FetchRows implements livesync.Source. updated_at is the watermark column
// and timestamp the ordering column.
func (v *View) FetchRows(ctx context.Context, q livesync.Query) ([]livesync.Row, error) {
	cols, err := Lookup(q.Series)
	if err != nil {
		return nil, err
	}

	records, err := v.store.FetchChanged(ctx, weather.ChangeQuery{
		Since:        q.Since,
		UpdatedAfter: q.Cursor,
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", Name, err)
	}

	rows := make([]livesync.Row, 0, len(records))
	for _, rec := range records {
		derived := v.Derive(rec)
		values := make([]float64, len(cols))
		for i, col := range cols {
			values[i] = col.value(derived)
		}
		rows = append(rows, livesync.Row{
			Watermark: rec.UpdatedAt,
			X:         rec.Timestamp,
			Values:    values,
		})
	}
	return rows, nil
}

// Column describes one numeric column of the view that can be charted.
type Column struct {
	Name  string
	Title string
	value func(Row) float64
}

var catalog = map[string]Column{
	"temperature_k":                    {Title: "Temperature [K]", value: func(r Row) float64 { return r.TemperatureK }},
	"temperature_c":                    {Title: "Temperature [°C]", value: func(r Row) float64 { return r.TemperatureC }},
	"pressure_pa":                      {Title: "Pressure [Pa]", value: func(r Row) float64 { return r.PressurePa }},
	"humidity_percent":                 {Title: "Humidity [%]", value: func(r Row) float64 { return r.HumidityPercent }},
	"humidity":                         {Title: "Humidity", value: func(r Row) float64 { return r.Humidity }},
	"dew_point_k":                      {Title: "Dew Point [K]", value: func(r Row) float64 { return r.DewPointK }},
	"wind_speed_m_s":                   {Title: "Wind Speed [m/s]", value: func(r Row) float64 { return r.WindSpeedMS }},
	"wind_deg":                         {Title: "Wind Direction [deg]", value: func(r Row) float64 { return float64(r.WindDeg) }},
	"moist_air_density_kg_m3":          {Title: "Moist Air Density [kg/m³]", value: func(r Row) float64 { return r.MoistAirDensityKgM3 }},
	"turbine_is_on":                    {Title: "Turbine is On", value: func(r Row) float64 { return boolToFloat(r.TurbineIsOn) }},
	"max_specific_wind_power_watts_m2": {Title: "Max Specific Wind Power [W/m²]", value: func(r Row) float64 { return r.MaxSpecificWindPowerWattsM2 }},
	"turbine_power_watts":              {Title: "Turbine Power [W]", value: func(r Row) float64 { return r.TurbinePowerWatts }},
}

// DefaultSeries is the column list charted when none is configured.
var DefaultSeries = []string{
	"temperature_c",
	"pressure_pa",
	"humidity",
	"moist_air_density_kg_m3",
	"wind_speed_m_s",
	"turbine_is_on",
	"max_specific_wind_power_watts_m2",
}

// Lookup returns the catalog entries for names, in order.
func Lookup(names []string) ([]Column, error) {
	cols := make([]Column, 0, len(names))
	var unknown []string
	for _, name := range names {
		col, ok := catalog[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		col.Name = name
		cols = append(cols, col)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown %s columns: %s (available: %s)",
			Name, strings.Join(unknown, ", "), strings.Join(ColumnNames(), ", "))
	}
	return cols, nil
}

// ColumnNames lists every chartable column, sorted.
func ColumnNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
