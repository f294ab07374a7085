package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/linarqa/linarqa-web/internal/apiclient"
	pkgauth "github.com/linarqa/linarqa-web/pkg/auth"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

const (
	// TokenKey holds the bearer token, apart from the session snapshot.
	TokenKey = "jwt-token"
	// SessionKey holds {"state":{"user":...,"isAuthenticated":...}}.
	SessionKey = "auth-storage"

	loginPath = "/auth/login"
	mePath    = "/auth/me"
)

// ErrSessionExpired is returned by RefreshUser when there is no usable token.
var ErrSessionExpired = errors.New("session expired")

type persistedSession struct {
	State   Session `json:"state"`
	Version int     `json:"version"`
}

// Store owns one browser's authentication state. It is the token store of
// the API client it hands out, so a 401 from any call clears it.
type Store struct {
	mu      sync.RWMutex
	local   *storage.Local
	client  *apiclient.Client
	logg    *logger.Logger
	now     func() time.Time
	session Session
	loading bool
}

// Open rehydrates the persisted session. A snapshot that claims to be
// authenticated without a user or without a stored token is cleared.
func Open(ctx context.Context, local *storage.Local, client *apiclient.Client, logg *logger.Logger) (*Store, error) {
	if local == nil {
		return nil, errors.New("local storage is required")
	}
	if client == nil {
		return nil, errors.New("api client is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}

	s := &Store{local: local, logg: logg, now: time.Now, loading: true}
	s.client = client.WithTokens(s)

	var persisted persistedSession
	found, err := local.GetJSON(ctx, SessionKey, &persisted)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "auth.rehydrate_failed")
		found = false
		persisted = persistedSession{}
	}

	token, err := s.readToken(ctx)
	if err != nil {
		return nil, err
	}

	if found && !persisted.State.consistent(token != "") {
		logg.Warn(ctx, "auth.session_inconsistent")
		if err := s.clear(ctx); err != nil {
			return nil, err
		}
	} else {
		s.session = persisted.State
	}
	s.loading = false
	return s, nil
}

// Client is the API client bound to this store's token.
func (s *Store) Client() *apiclient.Client {
	return s.client
}

// Login posts the credentials and, on success, stores the token and user.
// Failures leave the previous state untouched and are returned to the caller.
func (s *Store) Login(ctx context.Context, email, password string) (*User, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	req := LoginRequest{Email: strings.TrimSpace(email), Password: password}
	var resp LoginResponse
	if err := s.client.Post(ctx, loginPath, req, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Token) == "" || resp.User == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "login response is missing the token or user")
	}

	if err := s.local.SetJSON(ctx, TokenKey, resp.Token); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store token")
	}
	if err := s.setSession(ctx, Session{User: resp.User, IsAuthenticated: true}); err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithUserID(ctx, resp.User.ID), "auth.login")
	return resp.User, nil
}

// Logout forgets the token and the session. No call is made upstream.
func (s *Store) Logout(ctx context.Context) error {
	return s.clear(ctx)
}

// RefreshUser reloads the current user. Any failure clears the session the
// same way Logout does; a token that is already expired is not sent.
func (s *Store) RefreshUser(ctx context.Context) error {
	token, err := s.readToken(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return s.expire(ctx, "no token")
	}
	if info, err := pkgauth.InspectToken(token); err == nil && info.Expired(s.now()) {
		return s.expire(ctx, "token expired")
	}

	var user User
	if err := s.client.Get(ctx, mePath, nil, &user); err != nil {
		if clearErr := s.clear(ctx); clearErr != nil {
			s.logg.Error(ctx, "auth.clear_failed", clearErr)
		}
		return err
	}
	return s.setSession(ctx, Session{User: &user, IsAuthenticated: true})
}

func (s *Store) expire(ctx context.Context, reason string) error {
	s.logg.Info(s.logg.WithField(ctx, "reason", reason), "auth.session_expired")
	if err := s.clear(ctx); err != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrSessionExpired, "session expired, please sign in again")
}

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.session
	if out.User != nil {
		u := *out.User
		out.User = &u
	}
	return out
}

func (s *Store) User() *User {
	return s.Session().User
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Token implements apiclient.TokenStore.
func (s *Store) Token(ctx context.Context) string {
	token, err := s.readToken(ctx)
	if err != nil {
		s.logg.Error(ctx, "auth.token_read_failed", err)
		return ""
	}
	return token
}

// ClearToken implements apiclient.TokenStore.
func (s *Store) ClearToken(ctx context.Context) {
	if err := s.clear(ctx); err != nil {
		s.logg.Error(ctx, "auth.clear_failed", err)
	}
}

func (s *Store) readToken(ctx context.Context) (string, error) {
	var token string
	if _, err := s.local.GetJSON(ctx, TokenKey, &token); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read token")
	}
	return token, nil
}

func (s *Store) clear(ctx context.Context) error {
	if err := s.local.RemoveItem(ctx, TokenKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove token")
	}
	return s.setSession(ctx, Session{})
}

func (s *Store) setSession(ctx context.Context, next Session) error {
	s.mu.Lock()
	s.session = next
	s.mu.Unlock()
	if err := s.local.SetJSON(ctx, SessionKey, persistedSession{State: next}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session")
	}
	return nil
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
