package livesync

import (
	"context"
	"log"
	"time"
)

// MinTickInterval is the floor applied to tick intervals so sessions cannot
// hammer the store.
const MinTickInterval = 5 * time.Second

// ClampInterval enforces MinTickInterval.
func ClampInterval(d time.Duration) time.Duration {
	if d < MinTickInterval {
		log.Printf("WARN: livesync: tick interval %s below floor, using %s", d, MinTickInterval)
		return MinTickInterval
	}
	return d
}

// Run calls tick with n = 0 immediately and then once per interval, each
// call running to completion before the next is scheduled. It returns when
// ctx is done or tick returns an error.
func Run(ctx context.Context, interval time.Duration, tick func(ctx context.Context, n int) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; ; n++ {
		if err := tick(ctx, n); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
