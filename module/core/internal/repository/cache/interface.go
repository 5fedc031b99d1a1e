package cache

import (
	"context"
	"time"
)

// SampleCache remembers the newest accepted sample timestamp per vehicle.
type SampleCache interface {
	LastTimestamp(ctx context.Context, vehicleID string) (time.Time, bool, error)
	SetLastTimestamp(ctx context.Context, vehicleID string, ts time.Time) error
}
