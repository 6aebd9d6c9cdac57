package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

// sqliteTimeLayout is fixed-width so that text comparison orders like time.
const sqliteTimeLayout = "2006-01-02 15:04:05.000"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS weather (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME NOT NULL UNIQUE,
	temperature_k REAL NOT NULL,
	pressure_pa REAL NOT NULL,
	humidity_percent REAL NOT NULL,
	dew_point_k REAL NOT NULL,
	wind_speed_m_s REAL NOT NULL,
	wind_deg INTEGER NOT NULL,
	wind_gust_m_s REAL,
	created_at DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now')),
	updated_at DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_weather_updated_at ON weather(updated_at);
CREATE TRIGGER IF NOT EXISTS weather_update_timestamp
AFTER UPDATE ON weather
FOR EACH ROW
BEGIN
	UPDATE weather SET updated_at = strftime('%Y-%m-%d %H:%M:%f', 'now') WHERE id = NEW.id;
END;`

const sqliteUpsertSQL = `
INSERT INTO weather (timestamp, temperature_k, pressure_pa, humidity_percent, dew_point_k, wind_speed_m_s, wind_deg, wind_gust_m_s)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(timestamp) DO UPDATE SET
	temperature_k = excluded.temperature_k,
	pressure_pa = excluded.pressure_pa,
	humidity_percent = excluded.humidity_percent,
	dew_point_k = excluded.dew_point_k,
	wind_speed_m_s = excluded.wind_speed_m_s,
	wind_deg = excluded.wind_deg,
	wind_gust_m_s = excluded.wind_gust_m_s
WHERE weather.temperature_k IS NOT excluded.temperature_k
	OR weather.pressure_pa IS NOT excluded.pressure_pa
	OR weather.humidity_percent IS NOT excluded.humidity_percent
	OR weather.dew_point_k IS NOT excluded.dew_point_k
	OR weather.wind_speed_m_s IS NOT excluded.wind_speed_m_s
	OR weather.wind_deg IS NOT excluded.wind_deg
	OR weather.wind_gust_m_s IS NOT excluded.wind_gust_m_s`

const selectRecordColumns = `id, timestamp, temperature_k, pressure_pa, humidity_percent, dew_point_k, wind_speed_m_s, wind_deg, wind_gust_m_s, created_at, updated_at`

// SQLiteStore implements weather.Store on a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	DBPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and applies the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = filepath.Join("data", "weather.db")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	log.Printf("INFO: opening sqlite database at %s", dbPath)
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; readers share the connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &SQLiteStore{db: db, DBPath: dbPath}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, obs weather.Observation) (bool, error) {
	res, err := s.db.ExecContext(ctx, sqliteUpsertSQL,
		formatSQLiteTime(obs.Timestamp),
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
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) List(ctx context.Context, from, to *time.Time) ([]weather.Record, error) {
	sb := strings.Builder{}
	sb.WriteString("SELECT " + selectRecordColumns + " FROM weather WHERE 1=1")

	var args []any
	if from != nil {
		sb.WriteString(" AND timestamp >= ?")
		args = append(args, formatSQLiteTime(*from))
	}
	if to != nil {
		sb.WriteString(" AND timestamp <= ?")
		args = append(args, formatSQLiteTime(*to))
	}
	sb.WriteString(" ORDER BY timestamp ASC")

	return s.query(ctx, sb.String(), args...)
}

func (s *SQLiteStore) FetchChanged(ctx context.Context, q weather.ChangeQuery) ([]weather.Record, error) {
	if q.UpdatedAfter != nil {
		return s.query(ctx,
			"SELECT "+selectRecordColumns+" FROM weather WHERE updated_at > ? ORDER BY timestamp ASC",
			formatSQLiteTime(*q.UpdatedAfter))
	}
	return s.query(ctx,
		"SELECT "+selectRecordColumns+" FROM weather WHERE timestamp >= ? ORDER BY timestamp ASC",
		formatSQLiteTime(q.Since))
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]weather.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]weather.Record, 0)
	for rows.Next() {
		var (
			r                        weather.Record
			ts, createdAt, updatedAt sqliteTime
			gust                     sql.NullFloat64
		)
		if err := rows.Scan(
			&r.ID,
			&ts,
			&r.TemperatureK,
			&r.PressurePa,
			&r.HumidityPercent,
			&r.DewPointK,
			&r.WindSpeedMS,
			&r.WindDeg,
			&gust,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, err
		}
		r.Timestamp = ts.Time
		r.CreatedAt = createdAt.Time
		r.UpdatedAt = updatedAt.Time
		if gust.Valid {
			g := gust.Float64
			r.WindGustMS = &g
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// sqliteTime scans DATETIME columns whether the driver hands back a
// time.Time or the raw text.
type sqliteTime struct {
	time.Time
}

func (t *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

func (t *sqliteTime) parse(s string) error {
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05.999999999", s, time.UTC)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
