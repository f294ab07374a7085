package controllers

import (
	"errors"
	"net/http"

	"github.com/linarqa/linarqa-web/api/middleware"
	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/apiclient"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

type loginView struct {
	Email string
}

// LoginPage shows the sign-in form. It is also the fallback of the access
// guards, so it renders in place on any path: a signed-in user reaching it
// that way lacks the required role.
func (d *Deps) LoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		status := http.StatusOK
		if req.b.Auth.IsAuthenticated() {
			if r.URL.Path == "/login" {
				redirect(req, "/dashboard")
				return
			}
			d.logger().Warn(req.ctx, "auth.forbidden")
			req.b.Toasts.Error(req.ctx, "auth.forbidden", "")
			status = http.StatusForbidden
		}
		d.renderBare(req, status, "login", "auth.title", loginView{})
	}
}

// LoginBlocked answers a throttled sign-in attempt.
func (d *Deps) LoginBlocked() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		req.b.Toasts.Error(req.ctx, "errors.rateLimit", "")
		d.renderBare(req, http.StatusTooManyRequests, "login", "auth.title", loginView{
			Email: validators.FormString(r, "email", 254),
		})
	}
}

// Login signs the browser in and applies the account's preferred language.
func (d *Deps) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		email := validators.FormString(r, "email", 254)
		password := r.PostFormValue("password")
		view := loginView{Email: email}

		if email == "" || password == "" {
			req.b.Toasts.Push(req.ctx, toastFor("auth.invalidCredentials", "validation.required", nil))
			d.renderBare(req, http.StatusBadRequest, "login", "auth.title", view)
			return
		}

		user, err := req.b.Auth.Login(req.ctx, email, password)
		if err != nil {
			status := http.StatusUnauthorized
			var upstream *apiclient.StatusError
			switch {
			case errors.Is(err, apiclient.ErrUnauthorized),
				errors.As(err, &upstream) && upstream.Status < http.StatusInternalServerError:
				d.logger().Info(req.ctx, "auth.login_rejected")
				req.b.Toasts.Error(req.ctx, "auth.invalidCredentials", "")
			default:
				d.logger().Error(req.ctx, "auth.login_failed", err)
				desc, params := describe(err)
				req.b.Toasts.Push(req.ctx, toastFor("common.error", desc, params))
				status = pkgerrors.MetadataFor(pkgerrors.CodeOf(err)).HTTPStatus
			}
			d.renderBare(req, status, "login", "auth.title", view)
			return
		}

		if lang, ok := user.PreferredLanguage(); ok {
			if err := req.b.Lang.SetLanguage(req.ctx, lang); err != nil {
				d.logger().Warn(d.logger().WithField(req.ctx, "error", err.Error()), "i18n.persist_failed")
			}
			req.b.Lang.Apply(req.b.Document)
		}
		d.success(req, "auth.welcome", user.DisplayName(req.b.Lang.Current()))
		redirect(req, "/dashboard")
	}
}

func (d *Deps) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.b.Auth.Logout(req.ctx); err != nil {
			d.logger().Error(req.ctx, "auth.logout_failed", err)
		}
		req.svc.Badge.Invalidate(req.ctx, req.b.SessionID)
		d.success(req, "auth.loggedOut")
		redirect(req, "/login")
	}
}

// CurrentUser is the JSON view of the signed-in account.
func (d *Deps) CurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := middleware.UserFromContext(r.Context())
		if user == nil {
			writeJSONError(d, w, r, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in"))
			return
		}
		writeJSON(w, user)
	}
}
