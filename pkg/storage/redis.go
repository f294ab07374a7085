package storage

import (
	"context"
	"errors"
	"time"

	redisclient "github.com/linarqa/linarqa-web/pkg/redis"
)

// Redis adapts the shared redis client to Backend.
type Redis struct {
	client *redisclient.Client
}

func NewRedis(client *redisclient.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key)
	if errors.Is(err, redisclient.ErrNil) {
		return "", ErrNotFound
	}
	return value, err
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl)
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...)
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *Redis) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	return r.client.IncrWithTTL(ctx, key, ttl)
}

func (r *Redis) LocalKey(sessionID, key string) string {
	return r.client.LocalKey(sessionID, key)
}

func (r *Redis) SessionKey(sessionID string) string {
	return r.client.SessionKey(sessionID)
}
