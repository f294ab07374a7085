package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/linarqa/linarqa-web/pkg/config"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/logger"
	"github.com/linarqa/linarqa-web/pkg/metrics"
)

const (
	defaultBaseURL      = "http://localhost:8080/api"
	defaultTimeout      = 30 * time.Second
	errorBodyReadLimit  = 4096
	contentTypeJSON     = "application/json"
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// ErrUnauthorized is matched (errors.Is) by every call the API answered with 401.
var ErrUnauthorized = errors.New("school api rejected the bearer token")

// TokenStore is where the client reads the bearer token from and what it
// clears when the API rejects it.
type TokenStore interface {
	Token(ctx context.Context) string
	ClearToken(ctx context.Context)
}

// Requester is the surface feature services depend on.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
	PostMultipart(ctx context.Context, path string, file File, out any) error
}

// File is one multipart upload part.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Client is the single configured HTTP client for the school REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenStore
	metrics    *metrics.UpstreamMetrics
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// New builds the client from config. The returned client sends no token until
// bound to a TokenStore with WithTokens.
func New(cfg config.APIConfig, opts ...Option) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &Client{
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		httpClient: &http.Client{Timeout: timeout},
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if _, err := url.ParseRequestURI(client.baseURL); err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", client.baseURL, err)
	}
	return client, nil
}

// WithTokens returns a copy of the client bound to one browser's token store.
func (c *Client) WithTokens(tokens TokenStore) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.doJSON(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodDelete, path, nil, out)
}

// PostMultipart uploads one file part.
func (c *Client) PostMultipart(ctx context.Context, path string, file File, out any) error {
	if file.Content == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "file content is required")
	}
	field := file.Field
	if field == "" {
		field = "file"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, file.Filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build multipart body")
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "copy upload content")
	}
	if err := mw.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "close multipart body")
	}

	return c.do(ctx, http.MethodPost, path, &buf, mw.FormDataContentType(), out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}
	return c.do(ctx, method, path, reader, contentTypeJSON, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	route := routeLabel(path)
	started := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build api request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentTypeJSON)
	if c.tokens != nil {
		if token := c.tokens.Token(ctx); token != "" {
			req.Header.Set(authorizationHeader, bearerPrefix+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(started)
	c.metrics.ObserveDuration(method, route, elapsed)
	if err != nil {
		c.metrics.IncFailure(method, route, 0)
		c.log(ctx, method, path, 0, elapsed)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "school api unreachable")
	}
	defer func() { _ = resp.Body.Close() }()
	c.log(ctx, method, path, resp.StatusCode, elapsed)

	if resp.StatusCode == http.StatusUnauthorized {
		c.metrics.IncFailure(method, route, resp.StatusCode)
		if c.tokens != nil {
			c.tokens.ClearToken(ctx)
		}
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrUnauthorized, "session expired, please sign in again")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.metrics.IncFailure(method, route, resp.StatusCode)
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		statusErr := &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		return pkgerrors.Wrap(codeForStatus(resp.StatusCode), statusErr, statusErr.PublicMessage())
	}

	c.metrics.IncSuccess(method, route)
	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read api response")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode %s %s response", method, route))
	}
	return nil
}

func (c *Client) log(ctx context.Context, method, path string, status int, elapsed time.Duration) {
	if c.logg == nil {
		return
	}
	ctx = c.logg.WithFields(ctx, map[string]any{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": elapsed.Milliseconds(),
	})
	if status == 0 || status >= http.StatusInternalServerError {
		c.logg.Warn(ctx, "api.request")
		return
	}
	c.logg.Info(ctx, "api.request")
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	default:
		return pkgerrors.CodeDependency
	}
}

var idSegment = regexp.MustCompile(`^([0-9]+|[0-9a-fA-F-]{32,36})$`)

// routeLabel collapses ids so metrics stay low-cardinality.
func routeLabel(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if idSegment.MatchString(seg) {
			segments[i] = ":id"
		}
	}
	return "/" + strings.Join(segments, "/")
}
