package middleware

import (
	"context"

	"github.com/linarqa/linarqa-web/internal/auth"
)

type contextKey string

const (
	ctxBrowser contextKey = "browser"
)

// BrowserFromContext returns the state attached by BrowserSession, or nil.
func BrowserFromContext(ctx context.Context) *Browser {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxBrowser).(*Browser); ok {
		return v
	}
	return nil
}

// WithBrowser injects browser state into the context. Tests use it to skip
// the cookie round trip.
func WithBrowser(ctx context.Context, b *Browser) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxBrowser, b)
}

// UserFromContext returns the signed-in user, or nil.
func UserFromContext(ctx context.Context) *auth.User {
	b := BrowserFromContext(ctx)
	if b == nil || b.Auth == nil {
		return nil
	}
	return b.Auth.User()
}
