package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenStore remembers revoked token ids until they expire.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NoopTokenStore is used when Redis is not configured; logout then only
// relies on the client discarding its token.
type NoopTokenStore struct{}

func (NoopTokenStore) Revoke(context.Context, string, time.Duration) error { return nil }

func (NoopTokenStore) IsRevoked(context.Context, string) (bool, error) { return false, nil }

type RedisTokenStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{
		client:    client,
		keyPrefix: "auth:revoked",
	}
}

func (s *RedisTokenStore) key(tokenID string) string {
	return s.keyPrefix + ":" + tokenID
}

func (s *RedisTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(tokenID), 1, ttl).Err()
}

func (s *RedisTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	err := s.client.Get(ctx, s.key(tokenID)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
