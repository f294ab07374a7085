package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linarqa/linarqa-web/internal/apiclient"
	"github.com/linarqa/linarqa-web/internal/auth"
	"github.com/linarqa/linarqa-web/internal/i18n"
	"github.com/linarqa/linarqa-web/pkg/auth/session"
	"github.com/linarqa/linarqa-web/pkg/config"
	"github.com/linarqa/linarqa-web/pkg/enums"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

func newBrowserConfig(t *testing.T) BrowserConfig {
	t.Helper()
	backend := storage.NewMemory()
	cookie := config.SessionConfig{CookieName: "lq_sid", TTL: time.Hour}
	mgr, err := session.NewManager(backend, cookie)
	require.NoError(t, err)
	client, err := apiclient.New(config.APIConfig{BaseURL: "http://api.test/api", Timeout: time.Second})
	require.NoError(t, err)
	catalog, err := i18n.NewCatalog()
	require.NoError(t, err)
	return BrowserConfig{
		Sessions: mgr,
		Backend:  backend,
		Client:   client,
		Catalog:  catalog,
		Language: enums.LanguageFrench,
		Cookie:   cookie,
	}
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "lq_sid" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestBrowserSessionIssuesAndKeepsCookie(t *testing.T) {
	cfg := newBrowserConfig(t)
	var seen []*Browser
	handler := BrowserSession(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, BrowserFromContext(r.Context()))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Len(t, seen, 2)
	assert.Equal(t, cookie.Value, seen[0].SessionID)
	assert.Equal(t, cookie.Value, seen[1].SessionID)
	assert.Equal(t, cookie.Value, sessionCookie(t, rec).Value)
}

func TestBrowserSessionReplacesUnknownCookie(t *testing.T) {
	cfg := newBrowserConfig(t)
	var sid string
	handler := BrowserSession(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid = BrowserFromContext(r.Context()).SessionID
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "lq_sid", Value: "not-a-session"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.NotEqual(t, "not-a-session", sid)
	assert.Equal(t, sid, sessionCookie(t, rec).Value)
}

func TestBrowserStateSurvivesRequests(t *testing.T) {
	cfg := newBrowserConfig(t)
	var docClass, docLang, docDir string
	handler := BrowserSession(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := BrowserFromContext(r.Context())
		if r.Method == http.MethodPost {
			require.NoError(t, b.Theme.SetMode(r.Context(), enums.AppModeExtraCourses))
			require.NoError(t, b.Lang.SetLanguage(r.Context(), enums.LanguageArabic))
			return
		}
		docClass, docLang, docDir = b.Document.Class(), b.Document.Lang(), b.Document.Dir()
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	cookie := sessionCookie(t, rec)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, docClass, "mode-extra-courses")
	assert.Equal(t, "ar", docLang)
	assert.Equal(t, "rtl", docDir)
}

func TestRequireRoleRendersFallbackInPlace(t *testing.T) {
	cfg := newBrowserConfig(t)
	fallback := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("login"))
	})
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secret"))
	})

	serve := func(user *auth.User, gate func(http.Handler) http.Handler) string {
		local := storage.NewLocal(cfg.Backend, session.NewSessionID(), time.Hour)
		if user != nil {
			require.NoError(t, local.SetJSON(t.Context(), auth.TokenKey, "token"))
			require.NoError(t, local.SetJSON(t.Context(), auth.SessionKey, map[string]any{
				"state": auth.Session{User: user, IsAuthenticated: true},
			}))
		}
		store, err := auth.Open(t.Context(), local, cfg.Client, nil)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/staff", nil)
		req = req.WithContext(WithBrowser(req.Context(), &Browser{Auth: store}))
		rec := httptest.NewRecorder()
		gate(protected).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		return rec.Body.String()
	}

	owner := &auth.User{ID: "u1", Role: enums.RoleOwner}
	staff := &auth.User{ID: "u2", Role: enums.RoleStaff}

	assert.Equal(t, "login", serve(nil, RequireUser(fallback)))
	assert.Equal(t, "secret", serve(staff, RequireUser(fallback)))
	assert.Equal(t, "login", serve(staff, RequireRole(fallback, nil, enums.RoleOwner)))
	assert.Equal(t, "secret", serve(owner, RequireRole(fallback, nil, enums.RoleOwner)))
}
