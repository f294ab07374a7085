package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linarqa/linarqa-web/pkg/config"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

var ErrInvalidSession = errors.New("invalid browser session")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Manager issues and tracks the opaque ids carried in the browser session cookie.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
	now   func() time.Time
}

// SessionChecker exposes the read-only surface needed by middleware.
type SessionChecker interface {
	HasSession(ctx context.Context, sessionID string) (bool, error)
}

// NewManager constructs a session manager over the shared storage backend.
func NewManager(backend storage.Backend, cfg config.SessionConfig) (*Manager, error) {
	if backend == nil {
		return nil, fmt.Errorf("storage backend is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: backend,
		keyer: backend,
		ttl:   cfg.TTL,
		now:   time.Now,
	}, nil
}

// TTL is how long an idle session survives.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a new session id and marks it live.
func (m *Manager) Issue(ctx context.Context) (string, error) {
	id := NewSessionID()
	if err := m.touch(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// Touch extends a live session. Unknown ids return ErrInvalidSession.
func (m *Manager) Touch(ctx context.Context, sessionID string) error {
	ok, err := m.HasSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSession
	}
	return m.touch(ctx, sessionID)
}

func (m *Manager) touch(ctx context.Context, sessionID string) error {
	stamp := m.now().UTC().Format(time.RFC3339)
	if err := m.store.Set(ctx, m.keyer.SessionKey(sessionID), stamp, m.ttl); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Revoke deletes the session marker.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sessionID))
}

// HasSession reports whether the id is still live. Malformed ids are never live.
func (m *Manager) HasSession(ctx context.Context, sessionID string) (bool, error) {
	if _, err := uuid.Parse(strings.TrimSpace(sessionID)); err != nil {
		return false, nil
	}
	if _, err := m.store.Get(ctx, m.keyer.SessionKey(sessionID)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewSessionID produces the opaque cookie value.
func NewSessionID() string {
	return uuid.NewString()
}
