package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Local is one browser session's view of a Backend, the server-side stand-in
// for window.localStorage. Every write refreshes the entry's TTL.
type Local struct {
	backend   Backend
	sessionID string
	ttl       time.Duration
}

func NewLocal(backend Backend, sessionID string, ttl time.Duration) *Local {
	return &Local{backend: backend, sessionID: sessionID, ttl: ttl}
}

// SessionID identifies the browser this view belongs to.
func (l *Local) SessionID() string {
	return l.sessionID
}

// GetItem returns the raw value under key. A missing key is ("", false, nil).
func (l *Local) GetItem(ctx context.Context, key string) (string, bool, error) {
	value, err := l.backend.Get(ctx, l.backend.LocalKey(l.sessionID, key))
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (l *Local) SetItem(ctx context.Context, key, value string) error {
	return l.backend.Set(ctx, l.backend.LocalKey(l.sessionID, key), value, l.ttl)
}

func (l *Local) RemoveItem(ctx context.Context, key string) error {
	return l.backend.Del(ctx, l.backend.LocalKey(l.sessionID, key))
}

// GetJSON decodes the value under key into dst and reports whether it existed.
func (l *Local) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := l.GetItem(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode %q: %w", key, err)
	}
	return true, nil
}

func (l *Local) SetJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return l.SetItem(ctx, key, string(b))
}
