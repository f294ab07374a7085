package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linarqa/linarqa-web/internal/apiclient"
	"github.com/linarqa/linarqa-web/pkg/config"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

var owner = &User{
	ID:                 "7",
	Email:              "owner@linarqa.ma",
	FullName:           "Samira Alaoui",
	FullNameArabic:     "سميرة العلوي",
	Role:               enums.RoleOwner,
	LanguagePreference: "AR",
	Active:             true,
}

func newLocal() *storage.Local {
	return storage.NewLocal(storage.NewMemory(), "sid-1", time.Hour)
}

func newClient(t *testing.T, handler http.HandlerFunc) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := apiclient.New(config.APIConfig{BaseURL: srv.URL + "/api", Timeout: time.Second})
	require.NoError(t, err)
	return client
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   owner.Email,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func loginHandler(token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var req LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Password != "secret" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Identifiants invalides"})
				return
			}
			writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: owner})
		case "/api/students":
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			writeJSON(w, http.StatusOK, []any{})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}
}

func TestLoginStoresTokenAndSession(t *testing.T) {
	ctx := context.Background()
	local := newLocal()
	token := signedToken(t, time.Now().Add(time.Hour))
	store, err := Open(ctx, local, newClient(t, loginHandler(token)), nil)
	require.NoError(t, err)
	assert.False(t, store.IsAuthenticated())

	user, err := store.Login(ctx, " owner@linarqa.ma ", "secret")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, user.ID)
	assert.True(t, store.IsAuthenticated())
	assert.False(t, store.IsLoading())
	assert.Equal(t, token, store.Token(ctx))

	raw, ok, err := local.GetItem(ctx, SessionKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"state":{"user":{"id":"7","email":"owner@linarqa.ma","fullName":"Samira Alaoui","fullNameArabic":"سميرة العلوي","role":"OWNER","languagePreference":"AR","active":true},"isAuthenticated":true},"version":0}`, raw)

	// the session survives a reload
	reopened, err := Open(ctx, local, newClient(t, loginHandler(token)), nil)
	require.NoError(t, err)
	assert.True(t, reopened.IsAuthenticated())
	assert.Equal(t, owner.Email, reopened.User().Email)
}

func TestLoginFailureKeepsStateAndReturnsError(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, newLocal(), newClient(t, loginHandler("tok")), nil)
	require.NoError(t, err)

	_, err = store.Login(ctx, "owner@linarqa.ma", "wrong")
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	assert.Equal(t, "Identifiants invalides", pkgerrors.As(err).Message())
	assert.False(t, store.IsAuthenticated())
	assert.False(t, store.IsLoading())
}

func TestLogoutClearsEverything(t *testing.T) {
	ctx := context.Background()
	local := newLocal()
	store, err := Open(ctx, local, newClient(t, loginHandler("tok")), nil)
	require.NoError(t, err)
	_, err = store.Login(ctx, "owner@linarqa.ma", "secret")
	require.NoError(t, err)

	require.NoError(t, store.Logout(ctx))
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.User())
	_, ok, err := local.GetItem(ctx, TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnauthorizedResponseClearsSession(t *testing.T) {
	ctx := context.Background()
	local := newLocal()
	store, err := Open(ctx, local, newClient(t, loginHandler("tok")), nil)
	require.NoError(t, err)
	_, err = store.Login(ctx, "owner@linarqa.ma", "secret")
	require.NoError(t, err)

	for _, path := range []string{"/attendance", "/payments", "/notifications/unread"} {
		_, err = store.Login(ctx, "owner@linarqa.ma", "secret")
		require.NoError(t, err)
		require.True(t, store.IsAuthenticated())

		err = store.Client().Get(ctx, path, nil, nil)
		require.ErrorIs(t, err, apiclient.ErrUnauthorized)
		assert.False(t, store.IsAuthenticated(), path)
		_, ok, err := local.GetItem(ctx, TokenKey)
		require.NoError(t, err)
		assert.False(t, ok, path)
	}
}

func TestOpenRepairsInconsistentSnapshot(t *testing.T) {
	ctx := context.Background()
	local := newLocal()
	require.NoError(t, local.SetJSON(ctx, SessionKey, persistedSession{State: Session{User: owner, IsAuthenticated: true}}))

	store, err := Open(ctx, local, newClient(t, loginHandler("tok")), nil)
	require.NoError(t, err)
	assert.False(t, store.IsAuthenticated())
	assert.Nil(t, store.User())

	var persisted persistedSession
	found, err := local.GetJSON(ctx, SessionKey, &persisted)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, persisted.State.IsAuthenticated)
}

func TestRefreshUser(t *testing.T) {
	ctx := context.Background()
	token := signedToken(t, time.Now().Add(time.Hour))

	t.Run("reloads the user", func(t *testing.T) {
		local := newLocal()
		require.NoError(t, local.SetJSON(ctx, TokenKey, token))
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/auth/me", r.URL.Path)
			assert.Equal(t, "Bearer "+token, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, owner)
		})
		store, err := Open(ctx, local, client, nil)
		require.NoError(t, err)

		require.NoError(t, store.RefreshUser(ctx))
		assert.True(t, store.IsAuthenticated())
		assert.Equal(t, owner.FullName, store.User().FullName)
	})

	t.Run("failure clears like logout", func(t *testing.T) {
		local := newLocal()
		require.NoError(t, local.SetJSON(ctx, TokenKey, token))
		require.NoError(t, local.SetJSON(ctx, SessionKey, persistedSession{State: Session{User: owner, IsAuthenticated: true}}))
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		store, err := Open(ctx, local, client, nil)
		require.NoError(t, err)
		require.True(t, store.IsAuthenticated())

		require.Error(t, store.RefreshUser(ctx))
		assert.False(t, store.IsAuthenticated())
		assert.Empty(t, store.Token(ctx))
	})

	t.Run("expired token is not sent", func(t *testing.T) {
		local := newLocal()
		require.NoError(t, local.SetJSON(ctx, TokenKey, signedToken(t, time.Now().Add(-time.Minute))))
		var calls int32
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			writeJSON(w, http.StatusOK, owner)
		})
		store, err := Open(ctx, local, client, nil)
		require.NoError(t, err)

		err = store.RefreshUser(ctx)
		require.ErrorIs(t, err, ErrSessionExpired)
		assert.Zero(t, atomic.LoadInt32(&calls))
		assert.False(t, store.IsAuthenticated())
	})
}

func TestUserHelpers(t *testing.T) {
	lang, ok := owner.PreferredLanguage()
	require.True(t, ok)
	assert.Equal(t, enums.LanguageArabic, lang)
	assert.Equal(t, "سميرة العلوي", owner.DisplayName(enums.LanguageArabic))
	assert.Equal(t, "Samira Alaoui", owner.DisplayName(enums.LanguageFrench))
	assert.True(t, owner.HasRole(enums.RoleOwner))
	assert.False(t, owner.HasRole(enums.RoleStaff))

	var nobody *User
	assert.False(t, nobody.HasRole(enums.RoleOwner))
}
