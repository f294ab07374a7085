package notifications

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

const badgeKey = "notifications.unread"

// DefaultBadgeTTL bounds how stale the top bar counter may get.
const DefaultBadgeTTL = 30 * time.Second

// Badge caches a session's unread count so that every page render does not
// hit the count endpoint. Mark operations invalidate it.
type Badge struct {
	svc     Service
	backend storage.Backend
	ttl     time.Duration
	logg    *logger.Logger
}

func NewBadge(svc Service, backend storage.Backend, ttl time.Duration, logg *logger.Logger) *Badge {
	if ttl <= 0 {
		ttl = DefaultBadgeTTL
	}
	return &Badge{svc: svc, backend: backend, ttl: ttl, logg: logg}
}

func (b *Badge) key(sessionID string) string {
	return b.backend.LocalKey(sessionID, badgeKey)
}

// Count returns the cached count, refreshing it from the API on a miss. A
// cache failure degrades to a direct API call.
func (b *Badge) Count(ctx context.Context, sessionID string) (int, error) {
	raw, err := b.backend.Get(ctx, b.key(sessionID))
	switch {
	case err == nil:
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			return n, nil
		}
	case !errors.Is(err, storage.ErrNotFound):
		b.warn(ctx, "badge cache read failed", err)
	}

	counts, err := b.svc.Counts(ctx)
	if err != nil {
		return 0, err
	}
	if err := b.backend.Set(ctx, b.key(sessionID), strconv.Itoa(counts.Unread), b.ttl); err != nil {
		b.warn(ctx, "badge cache write failed", err)
	}
	return counts.Unread, nil
}

func (b *Badge) MarkRead(ctx context.Context, sessionID, id string) error {
	if err := b.svc.MarkRead(ctx, id); err != nil {
		return err
	}
	b.Invalidate(ctx, sessionID)
	return nil
}

func (b *Badge) MarkAllRead(ctx context.Context, sessionID string) error {
	if err := b.svc.MarkAllRead(ctx); err != nil {
		return err
	}
	b.Invalidate(ctx, sessionID)
	return nil
}

func (b *Badge) Invalidate(ctx context.Context, sessionID string) {
	if err := b.backend.Del(ctx, b.key(sessionID)); err != nil {
		b.warn(ctx, "badge cache delete failed", err)
	}
}

func (b *Badge) warn(ctx context.Context, msg string, err error) {
	if b.logg == nil {
		return
	}
	b.logg.Warn(b.logg.WithFields(ctx, map[string]any{"error": err.Error()}), msg)
}
