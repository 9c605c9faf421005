package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window throttle shared across replicas. It fails open:
// a redis outage must not lock practitioners out of onboarding.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{client: client, limit: limit, window: window}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("throttle:onboarding:%s", key)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return true, fmt.Errorf("throttle incr: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, r.window).Err(); err != nil {
			return true, fmt.Errorf("throttle expire: %w", err)
		}
	}
	return count <= int64(r.limit), nil
}
