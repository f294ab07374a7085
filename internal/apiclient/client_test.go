package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linarqa/linarqa-web/pkg/config"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (f *fakeTokens) Token(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTokens) ClearToken(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.cleared++
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(config.APIConfig{BaseURL: srv.URL + "/api", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":"s1"}]`))
	})

	bound := client.WithTokens(&fakeTokens{token: "tok-1"})
	var out []map[string]string
	require.NoError(t, bound.Get(context.Background(), "/students", url.Values{"type": {"kindergarten"}}, &out))

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "/api/students", gotPath)
	assert.Equal(t, "type=kindergarten", gotQuery)
	assert.Equal(t, "s1", out[0]["id"])
}

func TestClientWithoutTokenSendsNoHeader(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.WithTokens(&fakeTokens{}).Delete(context.Background(), "/staff/1", nil))
	assert.Empty(t, gotAuth)
	require.NoError(t, client.Delete(context.Background(), "/staff/1", nil))
	assert.Empty(t, gotAuth)
}

func TestClientClearsTokenOn401(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	tokens := &fakeTokens{token: "stale"}

	err := client.WithTokens(tokens).Get(context.Background(), "/payments", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, 1, tokens.cleared)
	assert.Empty(t, tokens.Token(context.Background()))
}

func TestClientPropagatesOtherStatuses(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"Attendance already recorded"}`))
	})
	tokens := &fakeTokens{token: "tok"}

	err := client.WithTokens(tokens).Post(context.Background(), "/attendance/bulk", []int{1}, nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusConflict, statusErr.Status)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))
	assert.Equal(t, "Attendance already recorded", pkgerrors.As(err).Message())
	assert.Zero(t, tokens.cleared)
	assert.Equal(t, "tok", tokens.Token(context.Background()))
}

func TestClientSendsJSONBody(t *testing.T) {
	var got map[string]string
	var contentType, method string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":"yes"}`))
	})

	var out map[string]string
	require.NoError(t, client.Patch(context.Background(), "/belongings/b1/status", map[string]string{"status": "RETURNED"}, &out))
	assert.Equal(t, http.MethodPatch, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "RETURNED", got["status"])
	assert.Equal(t, "yes", out["ok"])
}

func TestClientPostMultipart(t *testing.T) {
	var field, filename, partType, content string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		reader, err := r.MultipartReader()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		part, err := reader.NextPart()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		field = part.FormName()
		filename = part.FileName()
		partType = part.Header.Get("Content-Type")
		b, _ := io.ReadAll(part)
		content = string(b)
		_, _ = w.Write([]byte(`{"photoUrl":"/uploads/p.jpg"}`))
	})

	var out struct {
		PhotoURL string `json:"photoUrl"`
	}
	err := client.PostMultipart(context.Background(), "/students/s1/upload-photo", File{
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Content:     strings.NewReader("jpeg-bytes"),
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, "file", field)
	assert.Equal(t, "photo.jpg", filename)
	assert.Equal(t, "image/jpeg", partType)
	assert.Equal(t, "jpeg-bytes", content)
	assert.Equal(t, "/uploads/p.jpg", out.PhotoURL)
}

func TestClientHonoursContextCancellation(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Get(ctx, "/students", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientTransportFailure(t *testing.T) {
	client, err := New(config.APIConfig{BaseURL: "http://127.0.0.1:1/api", Timeout: time.Second})
	require.NoError(t, err)

	err = client.Get(context.Background(), "/students", nil, nil)
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeDependency))
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := New(config.APIConfig{BaseURL: "api"})
	assert.Error(t, err)

	client, err := New(config.APIConfig{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/students", client.buildURL("/students"))
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/students/:id/photo", routeLabel("/students/42/photo"))
	assert.Equal(t, "/extra-payments/:id/mark-paid", routeLabel("/extra-payments/3f2504e0-4f89-11d3-9a0c-0305e82c3301/mark-paid"))
	assert.Equal(t, "/monthly-balance/:id/:id", routeLabel("/monthly-balance/2026/3"))
	assert.Equal(t, "/attendance", routeLabel("/attendance?date=2026-03-01"))
}

func TestStatusErrorPublicMessage(t *testing.T) {
	assert.Equal(t, "boom", (&StatusError{Status: 500, Body: `{"error":"boom"}`}).PublicMessage())
	assert.Equal(t, "school api returned status 502", (&StatusError{Status: 502, Body: "<html>"}).PublicMessage())
}
