package theme

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/linarqa/linarqa-web/pkg/enums"
	pkgerrors "github.com/linarqa/linarqa-web/pkg/errors"
	"github.com/linarqa/linarqa-web/pkg/metrics"
	"github.com/linarqa/linarqa-web/pkg/storage"
)

// Local storage keys.
const (
	ModeKey        = "app-mode"
	ThemesKey      = "app-themes"
	SavedThemesKey = "saved-themes"
)

const maxImportBytes = 64 << 10

// Notifier receives the confirmation messages of theme operations. Title and
// description are catalog keys; params fill their placeholders.
type Notifier interface {
	Notify(ctx context.Context, title, description string, params ...string)
}

// Export is a saved theme serialised for download.
type Export struct {
	Filename string
	Body     []byte
}

var whitespace = regexp.MustCompile(`\s+`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Context owns one browser's mode, per-mode palettes and saved themes, and
// is the only writer of the document's colours.
type Context struct {
	mu      sync.Mutex
	local   *storage.Local
	doc     *Document
	notify  Notifier
	metrics *metrics.ThemeMetrics
	now     func() time.Time

	mode   enums.AppMode
	themes Config
	saved  []SavedTheme
}

type Option func(*Context)

func WithMetrics(m *metrics.ThemeMetrics) Option {
	return func(c *Context) {
		c.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Context) {
		if now != nil {
			c.now = now
		}
	}
}

// Open restores the persisted state, falling back to defaults for anything
// missing or unreadable, and applies the active palette once.
func Open(ctx context.Context, local *storage.Local, doc *Document, notify Notifier, opts ...Option) (*Context, error) {
	if local == nil || doc == nil {
		return nil, errors.New("theme context needs local storage and a document")
	}
	c := &Context{
		local:  local,
		doc:    doc,
		notify: notify,
		now:    time.Now,
		mode:   enums.AppModeKindergarten,
		themes: DefaultConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	var mode string
	if found, err := local.GetJSON(ctx, ModeKey, &mode); err == nil && found {
		if parsed, err := enums.ParseAppMode(mode); err == nil {
			c.mode = parsed
		}
	}

	var persisted map[enums.AppMode]Colors
	if found, err := local.GetJSON(ctx, ThemesKey, &persisted); err == nil && found {
		for m, colors := range persisted {
			if m.IsValid() {
				c.themes[m] = Defaults(m).Merge(colors)
			}
		}
	}

	var saved []SavedTheme
	if found, err := local.GetJSON(ctx, SavedThemesKey, &saved); err == nil && found {
		c.saved = saved
	}

	c.apply()
	return c, nil
}

// apply pushes the active palette and mode class to the document.
func (c *Context) apply() {
	c.doc.apply(c.mode, c.themes[c.mode])
}

func (c *Context) Document() *Document {
	return c.doc
}

func (c *Context) Mode() enums.AppMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Context) Themes() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.themes.clone()
}

func (c *Context) SavedThemes() []SavedTheme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SavedTheme(nil), c.saved...)
}

// CurrentTheme returns the palette of the active mode.
func (c *Context) CurrentTheme() Colors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.themes[c.mode]
}

// SetMode switches the active mode and re-applies its palette.
func (c *Context) SetMode(ctx context.Context, next enums.AppMode) (err error) {
	defer func() { c.metrics.Inc("set_mode", err) }()
	if !next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown mode %q", next))
	}

	c.mu.Lock()
	if err := c.local.SetJSON(ctx, ModeKey, next.String()); err != nil {
		c.mu.Unlock()
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist mode")
	}
	c.mode = next
	c.apply()
	c.mu.Unlock()

	if next == enums.AppModeKindergarten {
		c.emit(ctx, "theme.toast.switchedKids", "theme.toast.switchedKidsDescription")
	} else {
		c.emit(ctx, "theme.toast.switchedAcademy", "theme.toast.switchedAcademyDescription")
	}
	return nil
}

// ToggleMode flips between the two modes.
func (c *Context) ToggleMode(ctx context.Context) error {
	return c.SetMode(ctx, c.Mode().Other())
}

// UpdateTheme merges the non-empty fields of partial into target's palette.
// The document only changes when target is the active mode.
func (c *Context) UpdateTheme(ctx context.Context, target enums.AppMode, partial Colors) (err error) {
	defer func() { c.metrics.Inc("update", err) }()
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown mode %q", target))
	}
	if err := validatePartial(partial); err != nil {
		return err
	}
	return c.writeThemes(ctx, func(themes Config) {
		themes[target] = themes[target].Merge(partial)
	})
}

// ResetTheme restores the built-in palette of target.
func (c *Context) ResetTheme(ctx context.Context, target enums.AppMode) (err error) {
	defer func() { c.metrics.Inc("reset", err) }()
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown mode %q", target))
	}
	if err := c.writeThemes(ctx, func(themes Config) {
		themes[target] = Defaults(target)
	}); err != nil {
		return err
	}
	c.emit(ctx, "theme.toast.reset", "theme.toast.resetDescription", modeLabelKey(target))
	return nil
}

// ApplyPreset replaces both palettes with the named preset.
func (c *Context) ApplyPreset(ctx context.Context, name string) (err error) {
	defer func() { c.metrics.Inc("preset", err) }()
	preset, ok := FindPreset(name)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown preset %q", name))
	}
	if err := c.writeThemes(ctx, func(themes Config) {
		for mode, colors := range preset.Themes {
			themes[mode] = colors
		}
	}); err != nil {
		return err
	}
	c.emit(ctx, "theme.toast.presetApplied", "theme.toast.presetAppliedDescription", preset.Name)
	return nil
}

func (c *Context) writeThemes(ctx context.Context, mutate func(Config)) error {
	c.mu.Lock()
	next := c.themes.clone()
	mutate(next)
	if err := c.local.SetJSON(ctx, ThemesKey, next); err != nil {
		c.mu.Unlock()
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist themes")
	}
	c.themes = next
	c.apply()
	c.mu.Unlock()
	return nil
}

// SaveTheme snapshots colors under name for the active mode.
func (c *Context) SaveTheme(ctx context.Context, name string, colors Colors) (saved SavedTheme, err error) {
	defer func() { c.metrics.Inc("save", err) }()
	entry := SavedTheme{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Colors:    colors,
		Mode:      c.Mode(),
		CreatedAt: c.now().UTC(),
	}
	if err := validateSaved(entry); err != nil {
		return SavedTheme{}, err
	}
	if err := c.appendSaved(ctx, entry); err != nil {
		return SavedTheme{}, err
	}
	c.emit(ctx, "theme.toast.saved", "theme.toast.savedDescription", entry.Name)
	return entry, nil
}

// LoadTheme copies a saved theme's colours into the palette of the mode it
// was saved under, whichever mode is active. Unknown ids report false.
func (c *Context) LoadTheme(ctx context.Context, id string) (found bool, err error) {
	defer func() { c.metrics.Inc("load", err) }()
	entry, ok := c.findSaved(id)
	if !ok {
		return false, nil
	}
	if err := c.writeThemes(ctx, func(themes Config) {
		themes[entry.Mode] = themes[entry.Mode].Merge(entry.Colors)
	}); err != nil {
		return true, err
	}
	c.emit(ctx, "theme.toast.loaded", "theme.toast.loadedDescription", entry.Name)
	return true, nil
}

// DeleteTheme removes the saved theme with id. Unknown ids are not an error.
func (c *Context) DeleteTheme(ctx context.Context, id string) (err error) {
	defer func() { c.metrics.Inc("delete", err) }()
	c.mu.Lock()
	next := make([]SavedTheme, 0, len(c.saved))
	for _, t := range c.saved {
		if t.ID != id {
			next = append(next, t)
		}
	}
	if err := c.local.SetJSON(ctx, SavedThemesKey, next); err != nil {
		c.mu.Unlock()
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist saved themes")
	}
	c.saved = next
	c.mu.Unlock()
	c.emit(ctx, "theme.toast.deleted", "theme.toast.deletedDescription")
	return nil
}

// ExportTheme serialises a saved theme as indented JSON named
// <Name_With_Underscores>_theme.json.
func (c *Context) ExportTheme(ctx context.Context, id string) (export Export, found bool, err error) {
	defer func() { c.metrics.Inc("export", err) }()
	entry, ok := c.findSaved(id)
	if !ok {
		return Export{}, false, nil
	}
	body, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return Export{}, true, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode theme")
	}
	c.emit(ctx, "theme.toast.exported", "theme.toast.exportedDescription", entry.Name)
	return Export{Filename: ExportFilename(entry.Name), Body: body}, true, nil
}

// ExportFilename is the download name of a theme called name.
func ExportFilename(name string) string {
	return whitespace.ReplaceAllString(name, "_") + "_theme.json"
}

// ImportTheme decodes an exported theme, validates it and appends it under
// a fresh id. Malformed or incomplete data is rejected.
func (c *Context) ImportTheme(ctx context.Context, raw []byte) (imported SavedTheme, err error) {
	defer func() { c.metrics.Inc("import", err) }()
	if len(raw) > maxImportBytes {
		return SavedTheme{}, pkgerrors.New(pkgerrors.CodeValidation, "theme file is too large")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	var entry SavedTheme
	if err := dec.Decode(&entry); err != nil {
		return SavedTheme{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "theme file is not valid JSON")
	}
	entry.Name = strings.TrimSpace(entry.Name)
	if err := validateSaved(entry); err != nil {
		return SavedTheme{}, err
	}

	entry.ID = uuid.NewString()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now().UTC()
	}
	if err := c.appendSaved(ctx, entry); err != nil {
		return SavedTheme{}, err
	}
	c.emit(ctx, "theme.toast.imported", "theme.toast.importedDescription", entry.Name)
	return entry, nil
}

func (c *Context) appendSaved(ctx context.Context, entry SavedTheme) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := append(append([]SavedTheme(nil), c.saved...), entry)
	if err := c.local.SetJSON(ctx, SavedThemesKey, next); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist saved themes")
	}
	c.saved = next
	return nil
}

func (c *Context) findSaved(id string) (SavedTheme, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.saved {
		if t.ID == id {
			return t, true
		}
	}
	return SavedTheme{}, false
}

func (c *Context) emit(ctx context.Context, title, description string, params ...string) {
	if c.notify != nil {
		c.notify.Notify(ctx, title, description, params...)
	}
}

func modeLabelKey(mode enums.AppMode) string {
	if mode == enums.AppModeExtraCourses {
		return "mode.academy"
	}
	return "mode.kids"
}

func validateSaved(entry SavedTheme) error {
	if err := validate.Struct(entry); err != nil {
		return invalid("invalid theme", err)
	}
	return nil
}

// validatePartial checks only the fields that are set.
func validatePartial(partial Colors) error {
	for _, f := range partial.Fields() {
		if f.Value == "" {
			continue
		}
		if err := validate.Var(f.Value, "iscolor"); err != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid colour").
				WithDetails(map[string]string{f.Name: "iscolor"})
		}
	}
	return nil
}

func invalid(msg string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msg)
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[strings.TrimPrefix(fe.Namespace(), "SavedTheme.")] = fe.Tag()
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}
