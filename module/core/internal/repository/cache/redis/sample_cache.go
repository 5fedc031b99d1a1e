package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/cache"
)

var _ cache.SampleCache = (*SampleCache)(nil)

const keyPrefix = "fleet:last_ts:"

// SampleCache keeps the last accepted sample time per vehicle as Unix
// nanoseconds.
type SampleCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewSampleCache expires idle vehicles after ttl; zero keeps keys forever.
func NewSampleCache(rdb redis.UniversalClient, ttl time.Duration) *SampleCache {
	return &SampleCache{rdb: rdb, ttl: ttl}
}

func (c *SampleCache) LastTimestamp(ctx context.Context, vehicleID string) (time.Time, bool, error) {
	v, err := c.rdb.Get(ctx, keyPrefix+vehicleID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ns, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt timestamp for %s: %w", vehicleID, err)
	}
	return time.Unix(0, ns), true, nil
}

func (c *SampleCache) SetLastTimestamp(ctx context.Context, vehicleID string, ts time.Time) error {
	return c.rdb.Set(ctx, keyPrefix+vehicleID, ts.UnixNano(), c.ttl).Err()
}
