package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix for revoked tokens.
const revokedTokenKeyPrefix = "trl:jti:"

// RedisList is a Redis-backed revocation list for deployments where multiple
// instances must share revocation state. Expiry is delegated to Redis TTLs.
type RedisList struct {
	client *redis.Client
}

func NewRedisList(client *redis.Client) *RedisList {
	return &RedisList{client: client}
}

func (l *RedisList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	// Key existence is the marker; the stored value is irrelevant.
	return l.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err()
}

func (l *RedisList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	err := l.client.Get(ctx, revokedTokenKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
