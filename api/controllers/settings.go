package controllers

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/linarqa/linarqa-web/api/responses"
	"github.com/linarqa/linarqa-web/api/validators"
	"github.com/linarqa/linarqa-web/internal/theme"
	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
)

const themeImportBytes = 64 << 10

type settingsView struct {
	Mode    enums.AppMode
	Target  enums.AppMode
	Colors  []theme.Field
	Saved   []theme.SavedTheme
	Presets []theme.Preset
	Palette []string
}

// settingsTarget is the mode whose palette the form edits, the active one
// unless ?mode= or the mode field names the other.
func settingsTarget(raw string, active enums.AppMode) enums.AppMode {
	if m := enums.AppMode(raw); m.IsValid() {
		return m
	}
	return active
}

// Settings shows the palette editor, the presets and the saved themes.
func (d *Deps) Settings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		active := req.b.Theme.Mode()
		target := settingsTarget(validators.QueryString(r, "mode", 20), active)
		view := settingsView{
			Mode:    active,
			Target:  target,
			Colors:  req.b.Theme.Themes()[target].Fields(),
			Saved:   req.b.Theme.SavedThemes(),
			Presets: theme.Presets(),
			Palette: theme.Palette(),
		}
		d.render(req, "settings", "settings.title", view)
	}
}

func settingsBack(target enums.AppMode) string {
	return "/settings?mode=" + string(target)
}

// UpdateColors merges the posted colours into the target palette. Blank
// fields keep their current value.
func (d *Deps) UpdateColors() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		target := settingsTarget(validators.FormString(r, "mode", 20), req.b.Theme.Mode())
		var partial theme.Colors
		for _, name := range theme.FieldNames {
			if v := validators.FormString(r, name, 64); v != "" {
				partial, _ = partial.With(name, v)
			}
		}
		if err := req.b.Theme.UpdateTheme(req.ctx, target, partial); err != nil {
			d.actionFailed(req, err, "settings.applyColors", settingsBack(target))
			return
		}
		d.success(req, "common.success")
		redirect(req, settingsBack(target))
	}
}

func (d *Deps) ResetTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		target := settingsTarget(validators.FormString(r, "mode", 20), req.b.Theme.Mode())
		if err := req.b.Theme.ResetTheme(req.ctx, target); err != nil {
			d.actionFailed(req, err, "settings.resetTheme", settingsBack(target))
			return
		}
		redirect(req, settingsBack(target))
	}
}

func (d *Deps) ApplyPreset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.b.Theme.ApplyPreset(req.ctx, validators.FormString(r, "name", 80)); err != nil {
			d.actionFailed(req, err, "settings.presets", "/settings")
			return
		}
		redirect(req, "/settings")
	}
}

// SaveTheme snapshots the active palette under the posted name.
func (d *Deps) SaveTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		name := validators.FormString(r, "name", 80)
		if _, err := req.b.Theme.SaveTheme(req.ctx, name, req.b.Theme.CurrentTheme()); err != nil {
			d.actionFailed(req, err, "settings.saveTheme", "/settings")
			return
		}
		redirect(req, "/settings")
	}
}

func (d *Deps) LoadTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		found, err := req.b.Theme.LoadTheme(req.ctx, chi.URLParam(r, "id"))
		if err == nil && !found {
			err = pkgerrors.New(pkgerrors.CodeNotFound, "saved theme not found")
		}
		if err != nil {
			d.actionFailed(req, err, "settings.load", "/settings")
			return
		}
		redirect(req, "/settings")
	}
}

func (d *Deps) DeleteTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		if err := req.b.Theme.DeleteTheme(req.ctx, chi.URLParam(r, "id")); err != nil {
			d.actionFailed(req, err, "common.delete", "/settings")
			return
		}
		redirect(req, "/settings")
	}
}

// ExportTheme downloads a saved theme as JSON.
func (d *Deps) ExportTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		export, found, err := req.b.Theme.ExportTheme(req.ctx, chi.URLParam(r, "id"))
		if err == nil && !found {
			err = pkgerrors.New(pkgerrors.CodeNotFound, "saved theme not found")
		}
		if err != nil {
			d.actionFailed(req, err, "settings.exportTheme", "/settings")
			return
		}
		responses.WriteAttachment(w, export.Filename, "application/json; charset=utf-8", export.Body)
	}
}

// ImportTheme adds the uploaded theme file to the saved themes.
func (d *Deps) ImportTheme() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := d.open(w, r)
		if !ok {
			return
		}
		fail := func(err error) {
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				d.logger().Error(req.ctx, "theme.import_failed", err)
			}
			req.b.Toasts.Push(req.ctx, toastFor("theme.toast.importFailed", "theme.toast.importFailedDescription", nil))
			redirect(req, "/settings")
		}
		if err := validators.ParseMultipart(w, r, themeImportBytes); err != nil {
			fail(err)
			return
		}
		file, _, found, err := validators.FormFile(r, "file")
		if err != nil {
			fail(err)
			return
		}
		if !found {
			fail(pkgerrors.New(pkgerrors.CodeValidation, "no theme file given"))
			return
		}
		raw, err := io.ReadAll(io.LimitReader(file, themeImportBytes+1))
		_ = file.Close()
		if err != nil {
			fail(pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read theme file"))
			return
		}
		if _, err := req.b.Theme.ImportTheme(req.ctx, raw); err != nil {
			fail(err)
			return
		}
		redirect(req, "/settings")
	}
}
