package views

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linarqa/linarqa-web/internal/auth"
	"github.com/linarqa/linarqa-web/internal/i18n"
	"github.com/linarqa/linarqa-web/internal/theme"
	"github.com/linarqa/linarqa-web/pkg/enums"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

func newPage(t *testing.T, lang enums.Language, name string, data any) *Page {
	t.Helper()
	ctx := context.Background()
	catalog, err := i18n.NewCatalog()
	require.NoError(t, err)
	store, err := i18n.Open(ctx, storage.NewLocal(storage.NewMemory(), "sid-1", time.Hour), catalog, lang)
	require.NoError(t, err)
	doc := theme.NewDocument()
	store.Apply(doc)
	return &Page{Name: name, Title: "auth.title", Path: "/" + name, Lang: store, Doc: doc, Mode: enums.AppModeKindergarten, Data: data}
}

func TestNewParsesEveryPage(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	for _, name := range []string{
		"login", "dashboard", "students", "enrollments", "attendance", "belongings",
		"belongings_print", "payments", "extra_payments", "extra_courses", "extra_students",
		"extra_register", "personnel", "monthly_balance", "notifications", "settings", "placeholder",
	} {
		assert.True(t, r.Has(name), name)
	}
	assert.False(t, r.Has("cart"))
}

func TestRenderBareLoginFollowsLanguage(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	page := newPage(t, enums.LanguageArabic, "login", struct{ Email string }{Email: "a@b.ma"})
	page.Bare = true
	r.Render(rec, httptest.NewRequest(http.MethodGet, "/login", nil), http.StatusUnauthorized, page)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `dir="rtl"`)
	assert.Contains(t, body, `lang="ar"`)
	assert.Contains(t, body, `value="a@b.ma"`)
	assert.NotContains(t, body, `class="sidebar`)
}

func TestRenderHidesOwnerEntries(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	heading := struct{ Heading string }{Heading: "placeholder.staff"}

	render := func(role enums.Role) string {
		page := newPage(t, enums.LanguageFrench, "placeholder", heading)
		page.User = &auth.User{ID: "u-1", FullName: "Samira", Role: role}
		rec := httptest.NewRecorder()
		r.Render(rec, httptest.NewRequest(http.MethodGet, "/placeholder", nil), http.StatusOK, page)
		require.Equal(t, http.StatusOK, rec.Code)
		return rec.Body.String()
	}

	owner := render(enums.RoleOwner)
	assert.Contains(t, owner, `href="/audit"`)
	assert.Contains(t, owner, `href="/logs"`)
	assert.Contains(t, owner, "Gestion de l&#39;équipe")

	staff := render(enums.RoleStaff)
	assert.NotContains(t, staff, `href="/audit"`)
	assert.NotContains(t, staff, `href="/logs"`)
	assert.Contains(t, staff, `href="/students"`)
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	r.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, &Page{Name: "missing"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStaticServesStylesheet(t *testing.T) {
	rec := httptest.NewRecorder()
	Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "--mode-primary")
}
