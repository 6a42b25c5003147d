package calls

import (
	"context"
	"time"

	"telemed-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisSlots enforces the one-active-call-per-kind cap across instances.
// The TTL keeps a crashed instance from pinning a clinician's slot
// forever.
type RedisSlots struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSlots(rdb *redis.Client, ttl time.Duration) *RedisSlots {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &RedisSlots{rdb: rdb, ttl: ttl}
}

func (r *RedisSlots) Acquire(ctx context.Context, clinicID, userID string, kind Kind) (bool, error) {
	return utils.AcquireSlot(ctx, r.rdb, utils.SlotKey(clinicID, userID, string(kind)), 1, r.ttl)
}

func (r *RedisSlots) Release(ctx context.Context, clinicID, userID string, kind Kind) error {
	return utils.ReleaseSlot(ctx, r.rdb, utils.SlotKey(clinicID, userID, string(kind)))
}

var _ SlotLimiter = (*RedisSlots)(nil)
