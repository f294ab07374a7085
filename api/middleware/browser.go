package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/linarqa/linarqa-web/api/responses"
	"github.com/linarqa/linarqa-web/internal/apiclient"
	"github.com/linarqa/linarqa-web/internal/auth"
	"github.com/linarqa/linarqa-web/internal/i18n"
	"github.com/linarqa/linarqa-web/internal/theme"
	"github.com/linarqa/linarqa-web/internal/toast"
	"github.com/linarqa/linarqa-web/pkg/auth/session"
	"github.com/linarqa/linarqa-web/pkg/config"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/metrics"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

// Browser is one browser's client state, rebuilt from storage on every
// request. Document is written only by Theme (colours) and Lang (locale).
type Browser struct {
	SessionID string
	Local     *storage.Local
	Auth      *auth.Store
	Lang      *i18n.Store
	Theme     *theme.Context
	Toasts    *toast.Queue
	Document  *theme.Document
}

// Client is the school API client bound to this browser's token.
func (b *Browser) Client() *apiclient.Client {
	return b.Auth.Client()
}

type sessionIssuer interface {
	Issue(ctx context.Context) (string, error)
	Touch(ctx context.Context, sessionID string) error
	TTL() time.Duration
}

// BrowserConfig wires the shared dependencies of BrowserSession.
type BrowserConfig struct {
	Sessions     sessionIssuer
	Backend      storage.Backend
	Client       *apiclient.Client
	Catalog      *i18n.Catalog
	Language     enums.Language
	Cookie       config.SessionConfig
	ThemeMetrics *metrics.ThemeMetrics
}

// BrowserSession resolves the session cookie, issuing a new id when it is
// missing or no longer live, and opens the per-browser stores in the order
// the page needs them: auth, language, toasts, theme.
func BrowserSession(cfg BrowserConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	if logg == nil {
		logg = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sid, err := resolveSession(ctx, cfg, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "browser session"))
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.Cookie.CookieName,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(cfg.Sessions.TTL().Seconds()),
				HttpOnly: true,
				Secure:   cfg.Cookie.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			ctx = logg.WithSessionID(ctx, sid)

			b, err := OpenBrowser(ctx, cfg, sid, logg)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if user := b.Auth.User(); user != nil {
				ctx = logg.WithUserID(ctx, user.ID)
				ctx = logg.WithActorRole(ctx, user.Role.String())
			}

			next.ServeHTTP(w, r.WithContext(WithBrowser(ctx, b)))
		})
	}
}

func resolveSession(ctx context.Context, cfg BrowserConfig, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(cfg.Cookie.CookieName); err == nil && cookie.Value != "" {
		err := cfg.Sessions.Touch(ctx, cookie.Value)
		if err == nil {
			return cookie.Value, nil
		}
		if !errors.Is(err, session.ErrInvalidSession) {
			return "", err
		}
	}
	return cfg.Sessions.Issue(ctx)
}

// OpenBrowser builds the stores of session sid.
func OpenBrowser(ctx context.Context, cfg BrowserConfig, sid string, logg *logger.Logger) (*Browser, error) {
	local := storage.NewLocal(cfg.Backend, sid, cfg.Sessions.TTL())

	authStore, err := auth.Open(ctx, local, cfg.Client, logg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open auth store")
	}
	lang, err := i18n.Open(ctx, local, cfg.Catalog, cfg.Language)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open language store")
	}

	doc := theme.NewDocument()
	lang.Apply(doc)

	toasts := toast.NewQueue(local, logg)
	themeCtx, err := theme.Open(ctx, local, doc, toasts, theme.WithMetrics(cfg.ThemeMetrics))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "open theme context")
	}

	return &Browser{
		SessionID: sid,
		Local:     local,
		Auth:      authStore,
		Lang:      lang,
		Theme:     themeCtx,
		Toasts:    toasts,
		Document:  doc,
	}, nil
}
