package controllers

import (
	"net/http"

	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

// SetLanguage switches the interface language and returns to the page the
// switch was made from.
func (d *Deps) SetLanguage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		to := back(r, "/dashboard")
		lang, err := enums.ParseLanguage(validators.FormString(r, "lang", 8))
		if err != nil {
			d.actionFailed(req, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported language").
				WithDetails(map[string]string{"lang": "oneof"}), "common.error", to)
			return
		}
		if err := req.b.Lang.SetLanguage(req.ctx, lang); err != nil {
			d.actionFailed(req, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist language"), "common.error", to)
			return
		}
		req.b.Lang.Apply(req.b.Document)
		d.success(req, "language.changed")
		redirect(req, to)
	}
}

// ToggleMode switches between the kindergarten and extra-courses modes.
// Pages differ per mode, so the browser lands on the dashboard.
func (d *Deps) ToggleMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if raw := validators.FormString(r, "mode", 20); raw != "" {
			mode, err := enums.ParseAppMode(raw)
			if err == nil {
				err = req.b.Theme.SetMode(req.ctx, mode)
			}
			if err != nil {
				d.actionFailed(req, err, "common.error", "/dashboard")
				return
			}
			redirect(req, "/dashboard")
			return
		}
		if err := req.b.Theme.ToggleMode(req.ctx); err != nil {
			d.actionFailed(req, err, "common.error", "/dashboard")
			return
		}
		redirect(req, "/dashboard")
	}
}

// ThemeCSS serves the custom properties of the active theme.
func (d *Deps) ThemeCSS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(req.b.Document.Stylesheet()))
	}
}
