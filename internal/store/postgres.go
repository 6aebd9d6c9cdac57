package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS weather (
	id BIGSERIAL PRIMARY KEY,
	"timestamp" TIMESTAMPTZ NOT NULL UNIQUE,
	temperature_k DOUBLE PRECISION NOT NULL,
	pressure_pa DOUBLE PRECISION NOT NULL,
	humidity_percent DOUBLE PRECISION NOT NULL,
	dew_point_k DOUBLE PRECISION NOT NULL,
	wind_speed_m_s DOUBLE PRECISION NOT NULL,
	wind_deg INTEGER NOT NULL,
	wind_gust_m_s DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
);
CREATE INDEX IF NOT EXISTS idx_weather_updated_at ON weather (updated_at);

CREATE OR REPLACE FUNCTION update_weather_timestamp()
RETURNS TRIGGER AS $$
BEGIN
	NEW.updated_at = clock_timestamp();
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS weather_update_timestamp ON weather;
CREATE TRIGGER weather_update_timestamp
BEFORE UPDATE ON weather
FOR EACH ROW
EXECUTE FUNCTION update_weather_timestamp();`

const postgresUpsertSQL = `
INSERT INTO weather ("timestamp", temperature_k, pressure_pa, humidity_percent, dew_point_k, wind_speed_m_s, wind_deg, wind_gust_m_s)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT ("timestamp") DO UPDATE
SET temperature_k = EXCLUDED.temperature_k,
    pressure_pa = EXCLUDED.pressure_pa,
    humidity_percent = EXCLUDED.humidity_percent,
    dew_point_k = EXCLUDED.dew_point_k,
    wind_speed_m_s = EXCLUDED.wind_speed_m_s,
    wind_deg = EXCLUDED.wind_deg,
    wind_gust_m_s = EXCLUDED.wind_gust_m_s
WHERE (weather.temperature_k, weather.pressure_pa, weather.humidity_percent, weather.dew_point_k,
       weather.wind_speed_m_s, weather.wind_deg, weather.wind_gust_m_s)
   IS DISTINCT FROM
      (EXCLUDED.temperature_k, EXCLUDED.pressure_pa, EXCLUDED.humidity_percent, EXCLUDED.dew_point_k,
       EXCLUDED.wind_speed_m_s, EXCLUDED.wind_deg, EXCLUDED.wind_gust_m_s)`

const postgresRecordColumns = `id, "timestamp", temperature_k, pressure_pa, humidity_percent, dew_point_k, wind_speed_m_s, wind_deg, wind_gust_m_s, created_at, updated_at`

// PostgresStore implements weather.Store backed by a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and applies the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool resources.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) Upsert(ctx context.Context, obs weather.Observation) (bool, error) {
	tag, err := s.pool.Exec(ctx, postgresUpsertSQL,
		obs.Timestamp.UTC(),
		obs.TemperatureK,
		obs.PressurePa,
		obs.HumidityPercent,
		obs.DewPointK,
		obs.WindSpeedMS,
		obs.WindDeg,
		obs.WindGustMS,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert observation at %s: %w", obs.Timestamp.Format(time.RFC3339), err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) List(ctx context.Context, from, to *time.Time) ([]weather.Record, error) {
	args := []any{}
	clause := ""
	argPos := 1
	if from != nil {
		clause += ` AND "timestamp" >= $` + strconv.Itoa(argPos)
		args = append(args, from.UTC())
		argPos++
	}
	if to != nil {
		clause += ` AND "timestamp" <= $` + strconv.Itoa(argPos)
		args = append(args, to.UTC())
	}

	q := strings.Join([]string{
		"SELECT " + postgresRecordColumns + " FROM weather WHERE TRUE" + clause,
		`ORDER BY "timestamp" ASC`,
	}, " ")
	return s.query(ctx, q, args...)
}

func (s *PostgresStore) FetchChanged(ctx context.Context, q weather.ChangeQuery) ([]weather.Record, error) {
	if q.UpdatedAfter != nil {
		return s.query(ctx,
			"SELECT "+postgresRecordColumns+` FROM weather WHERE updated_at > $1 ORDER BY "timestamp" ASC`,
			q.UpdatedAfter.UTC())
	}
	return s.query(ctx,
		"SELECT "+postgresRecordColumns+` FROM weather WHERE "timestamp" >= $1 ORDER BY "timestamp" ASC`,
		q.Since.UTC())
}

func (s *PostgresStore) query(ctx context.Context, q string, args ...any) ([]weather.Record, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]weather.Record, 0)
	for rows.Next() {
		var r weather.Record
		var windDeg int32
		if err := rows.Scan(
			&r.ID,
			&r.Timestamp,
			&r.TemperatureK,
			&r.PressurePa,
			&r.HumidityPercent,
			&r.DewPointK,
			&r.WindSpeedMS,
			&windDeg,
			&r.WindGustMS,
			&r.CreatedAt,
			&r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		r.WindDeg = int(windDeg)
		r.Timestamp = r.Timestamp.UTC()
		r.CreatedAt = r.CreatedAt.UTC()
		r.UpdatedAt = r.UpdatedAt.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}
