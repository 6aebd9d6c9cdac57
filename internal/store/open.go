package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/i474232898/wind-power-dashboard/internal/weather"
)

// Open returns the store selected by the scheme of databaseURL:
// memory://, sqlite://<path> (or a bare path), postgres:// / postgresql://.
func Open(ctx context.Context, databaseURL string) (weather.Store, error) {
	switch {
	case databaseURL == "memory://":
		return NewMemoryStore(), nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresStore(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return NewSQLiteStore(strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.Contains(databaseURL, "://"):
		return nil, fmt.Errorf("unsupported DATABASE_URL scheme in %q", databaseURL)
	default:
		return NewSQLiteStore(databaseURL)
	}
}
