// Package sessions provides a Redis-backed revocation ledger for bearer
// tokens. Redis keeps the per-request membership test off the relational
// store; entries have no TTL because logout, not expiry, ends a session.
package sessions

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/dealkeeper/internal/common"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository constructs a ledger bound to the given Redis client.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Activate(ctx context.Context, userID, signature string) error {
	if err := r.client.Set(ctx, keyPrefix+signature, userID, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	return nil
}

func (r *RedisRepository) IsActive(ctx context.Context, signature string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+signature).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	return n > 0, nil
}

func (r *RedisRepository) Deactivate(ctx context.Context, signature string) error {
	if err := r.client.Del(ctx, keyPrefix+signature).Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStorageUnavailable, err)
	}
	return nil
}

// Ping verifies the ledger backend is reachable; used by health checks.
func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
