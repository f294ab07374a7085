package storage

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when a key is missing or expired.
var ErrNotFound = errors.New("storage: key not found")

const keyNamespace = "lq"

// Backend is a flat string key-value store with per-key expiry. It holds
// everything a browser would otherwise keep in localStorage, plus the
// browser session markers themselves.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error

	LocalKey(sessionID, key string) string
	SessionKey(sessionID string) string
}

// Counter counts hits inside a fixed window. Every driver implements it;
// the login throttle is its only caller.
type Counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// keys builds the namespaced keys shared by the memory and sql backends. The
// layout matches the redis client's so a deployment can switch drivers.
type keys struct{}

func (keys) LocalKey(sessionID, key string) string {
	return buildKey("local", sessionID, key)
}

func (keys) SessionKey(sessionID string) string {
	return buildKey("session", sessionID)
}

func buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}

func expiry(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	at := now.Add(ttl)
	return &at
}
