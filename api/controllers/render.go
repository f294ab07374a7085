package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/linarqa/linarqa-web/api/middleware"
	"github.com/linarqa/linarqa-web/api/responses"
	"github.com/linarqa/linarqa-web/api/views"
	"github.com/linarqa/linarqa-web/internal/apiclient"
	"github.com/linarqa/linarqa-web/internal/fetchguard"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

// request is what a page handler works with: the browser and its services.
type request struct {
	w   http.ResponseWriter
	r   *http.Request
	ctx context.Context
	b   *middleware.Browser
	svc *Services
}

// open resolves the browser and its services. On failure the response has
// been written and ok is false.
func (d *Deps) open(w http.ResponseWriter, r *http.Request) (*request, bool) {
	b := middleware.BrowserFromContext(r.Context())
	if b == nil {
		responses.WriteError(r.Context(), d.logger(), w, pkgerrors.New(pkgerrors.CodeInternal, "browser state missing"))
		return nil, false
	}
	svc, err := d.Services(b)
	if err != nil {
		responses.WriteError(r.Context(), d.logger(), w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build services"))
		return nil, false
	}
	return &request{w: w, r: r, ctx: r.Context(), b: b, svc: svc}, true
}

// load runs fetch as the current generation of this page for the session.
func load[T any](d *Deps, req *request, page string, fetch func(context.Context) (T, error)) (T, error) {
	return fetchguard.Run(req.ctx, d.Guard, fetchguard.Key(req.b.SessionID, page), fetch)
}

func (d *Deps) page(req *request, name, title string, data any) *views.Page {
	b := req.b
	return &views.Page{
		Name:   name,
		Title:  title,
		Path:   req.r.URL.Path,
		Lang:   b.Lang,
		Doc:    b.Document,
		Mode:   b.Theme.Mode(),
		User:   b.Auth.User(),
		Toasts: b.Toasts.Drain(req.ctx),
		Data:   data,
	}
}

// render draws a page inside the application shell.
func (d *Deps) render(req *request, name, title string, data any) {
	d.renderStatus(req, http.StatusOK, name, title, data)
}

func (d *Deps) renderStatus(req *request, status int, name, title string, data any) {
	page := d.page(req, name, title, data)
	if page.User != nil && req.svc != nil && req.svc.Badge != nil {
		n, err := req.svc.Badge.Count(req.ctx, req.b.SessionID)
		if err != nil {
			d.logger().Warn(d.logger().WithField(req.ctx, "error", err.Error()), "notifications.badge_failed")
		}
		page.Unread = n
	}
	d.Views.Render(req.w, req.r, status, page)
}

// renderBare draws a page without the sidebar and header.
func (d *Deps) renderBare(req *request, status int, name, title string, data any) {
	page := d.page(req, name, title, data)
	page.Bare = true
	d.Views.Render(req.w, req.r, status, page)
}

// redirect answers a form post with 303 See Other.
func redirect(req *request, to string) {
	http.Redirect(req.w, req.r, to, http.StatusSeeOther)
}

// loadFailed reports a failed page load. It returns true when the response
// was written (expired session or superseded fetch); otherwise an error
// toast is queued and the caller renders the page without data.
func (d *Deps) loadFailed(req *request, err error, title string) bool {
	switch {
	case errors.Is(err, fetchguard.ErrStale):
		d.logger().Info(req.ctx, "page.fetch_stale")
		http.Error(req.w, req.b.Lang.T("errors.stale"), http.StatusConflict)
		return true
	case errors.Is(err, context.Canceled):
		d.logger().Info(req.ctx, "page.fetch_cancelled")
		return true
	case d.expired(req, err):
		return true
	}
	d.logger().Error(req.ctx, "page.load_failed", err)
	desc, params := describe(err)
	req.b.Toasts.Push(req.ctx, toastFor(title, desc, params))
	return false
}

// actionFailed reports a failed form post and redirects to back.
func (d *Deps) actionFailed(req *request, err error, title, back string) {
	if d.expired(req, err) {
		return
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		d.logger().Error(req.ctx, "action.failed", err)
	}
	desc, params := describe(err)
	req.b.Toasts.Push(req.ctx, toastFor(title, desc, params))
	redirect(req, back)
}

// expired sends the browser to the login page when the API rejected its
// token. The client has already cleared the session.
func (d *Deps) expired(req *request, err error) bool {
	if !errors.Is(err, apiclient.ErrUnauthorized) {
		return false
	}
	d.logger().Warn(req.ctx, "auth.session_expired")
	req.b.Toasts.Error(req.ctx, "auth.sessionExpired", "")
	redirect(req, "/login")
	return true
}

// describe picks the message shown for err: a catalog key with its params,
// or the school API's own text.
func describe(err error) (string, []string) {
	var status *apiclient.StatusError
	if errors.As(err, &status) {
		return status.PublicMessage(), nil
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return "errors.generic", nil
	}
	switch details := typed.Details().(type) {
	case map[string]string:
		if len(details) > 0 {
			fields := make([]string, 0, len(details))
			for field := range details {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			return "validation." + details[fields[0]], nil
		}
	case map[string]any:
		if age, ok := details["age"]; ok {
			return "students.ageOutOfRange", []string{
				fmt.Sprint(age), fmt.Sprint(details["min"]), fmt.Sprint(details["max"]),
			}
		}
	}
	return pkgerrors.MetadataFor(typed.Code()).MessageKey, nil
}

func (d *Deps) success(req *request, title string, params ...string) {
	req.b.Toasts.Success(req.ctx, title, params...)
}

// back returns the local path a form asked to return to, or fallback.
func back(r *http.Request, fallback string) string {
	raw := strings.TrimSpace(r.PostFormValue("back"))
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(raw, "//") {
		return fallback
	}
	return u.RequestURI()
}
