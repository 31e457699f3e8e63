package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sweepLockKey = "neocdt:sweep:lock"

// SweepLock is a best-effort leader lease for the draft sweep, backed by
// Redis SET NX. Only the instance holding the lease runs a sweep tick; the
// lease expires on its own so a crashed holder never blocks the next run.
type SweepLock struct {
	client *redis.Client
}

// NewSweepLock creates a SweepLock wrapping the given Redis client.
func NewSweepLock(client *redis.Client) *SweepLock {
	return &SweepLock{client: client}
}

// TryAcquire attempts to take the lease for ttl. It returns true when this
// caller won; false when another instance already holds it.
func (l *SweepLock) TryAcquire(ctx context.Context, holder string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, sweepLockKey, holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("sweep lock: %w", err)
	}
	return ok, nil
}
