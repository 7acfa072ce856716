package redis

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/shopline/backend/repository"
)

type idempotencyStore struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewIdempotencyStore creates a Redis-backed idempotency guard for order
// placement. Keys expire after ttl so the set cannot grow without bound.
func NewIdempotencyStore(client *redislib.Client, ttl time.Duration) repository.IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &idempotencyStore{
		client: client,
		prefix: "order-request:",
		ttl:    ttl,
	}
}

func (s *idempotencyStore) Claim(ctx context.Context, key string) (bool, error) {
	return s.client.SetNX(ctx, s.key(key), 1, s.ttl).Result()
}

func (s *idempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *idempotencyStore) key(id string) string {
	return fmt.Sprintf("%s%s", s.prefix, id)
}
