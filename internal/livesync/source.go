// Package livesync keeps a client-side mirror of a time-series view in sync
// with the database and computes the extend-only delta a chart needs.
package livesync

import (
	"context"
	"time"
)

// Row is one view row as seen by the sync engine: the watermark
// (update timestamp), the x value (observation timestamp) and one value per
// tracked series, in series order.
type Row struct {
	Watermark time.Time
	X         time.Time
	Values    []float64
}

// Query selects rows from a Source.
// With Cursor set, rows whose watermark is strictly greater than *Cursor;
// otherwise rows whose x is at or after Since. Ordered by x ascending.
type Query struct {
	Cursor *time.Time
	Since  time.Time
	Series []string
}

// Source is the read-only query interface onto the derived view.
type Source interface {
	FetchRows(ctx context.Context, q Query) ([]Row, error)
}

// xLayout keeps the millisecond precision observations are stored with.
const xLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatX renders an x value the way it is stored and drawn.
func FormatX(t time.Time) string {
	return t.UTC().Format(xLayout)
}
