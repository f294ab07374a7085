package theme

import (
	"time"

	"github.com/linarqa/linarqa-web/pkg/enums"
)

// Colors is one mode's palette. Every field becomes a --mode-<json name>
// custom property on the document.
type Colors struct {
	Primary       string `json:"primary" validate:"required,iscolor"`
	Secondary     string `json:"secondary" validate:"required,iscolor"`
	Accent        string `json:"accent" validate:"required,iscolor"`
	Background    string `json:"background" validate:"required,iscolor"`
	Surface       string `json:"surface" validate:"required,iscolor"`
	Sidebar       string `json:"sidebar" validate:"required,iscolor"`
	Card          string `json:"card" validate:"required,iscolor"`
	Text          string `json:"text" validate:"required,iscolor"`
	TextSecondary string `json:"textSecondary" validate:"required,iscolor"`
	Border        string `json:"border" validate:"required,iscolor"`
	Shadow        string `json:"shadow" validate:"required,iscolor"`
}

// Field is one named colour in document order.
type Field struct {
	Name  string
	Value string
}

// FieldNames lists the colour names in the order they are applied.
var FieldNames = []string{
	"primary", "secondary", "accent", "background", "surface", "sidebar",
	"card", "text", "textSecondary", "border", "shadow",
}

func (c *Colors) ptrs() []*string {
	return []*string{
		&c.Primary, &c.Secondary, &c.Accent, &c.Background, &c.Surface, &c.Sidebar,
		&c.Card, &c.Text, &c.TextSecondary, &c.Border, &c.Shadow,
	}
}

// Fields returns the palette as ordered name/value pairs.
func (c Colors) Fields() []Field {
	out := make([]Field, len(FieldNames))
	for i, p := range c.ptrs() {
		out[i] = Field{Name: FieldNames[i], Value: *p}
	}
	return out
}

// Get returns the colour called name.
func (c Colors) Get(name string) (string, bool) {
	for i, p := range c.ptrs() {
		if FieldNames[i] == name {
			return *p, true
		}
	}
	return "", false
}

// With returns a copy with the colour called name replaced.
func (c Colors) With(name, value string) (Colors, bool) {
	for i, p := range c.ptrs() {
		if FieldNames[i] == name {
			*p = value
			return c, true
		}
	}
	return c, false
}

// Merge overlays the non-empty fields of partial onto c.
func (c Colors) Merge(partial Colors) Colors {
	dst := c.ptrs()
	for i, p := range partial.ptrs() {
		if *p != "" {
			*dst[i] = *p
		}
	}
	return c
}

// Missing lists the names of the empty fields.
func (c Colors) Missing() []string {
	var out []string
	for i, p := range c.ptrs() {
		if *p == "" {
			out = append(out, FieldNames[i])
		}
	}
	return out
}

// Config holds one palette per mode.
type Config map[enums.AppMode]Colors

func (c Config) clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// SavedTheme is a named snapshot of a palette. Entries are appended and
// deleted, never edited.
type SavedTheme struct {
	ID        string        `json:"id" validate:"omitempty,max=64"`
	Name      string        `json:"name" validate:"required,max=80"`
	Colors    Colors        `json:"colors"`
	Mode      enums.AppMode `json:"mode" validate:"required,oneof=kindergarten extra-courses"`
	CreatedAt time.Time     `json:"createdAt"`
}

var defaults = Config{
	enums.AppModeKindergarten: {
		Primary:       "#f59e0b",
		Secondary:     "#f97316",
		Accent:        "#eab308",
		Background:    "#fefce8",
		Surface:       "#ffffff",
		Sidebar:       "#fef3c7",
		Card:          "#ffffff",
		Text:          "#1f2937",
		TextSecondary: "#6b7280",
		Border:        "#fde68a",
		Shadow:        "#fbbf24",
	},
	enums.AppModeExtraCourses: {
		Primary:       "#3b82f6",
		Secondary:     "#6366f1",
		Accent:        "#8b5cf6",
		Background:    "#f8fafc",
		Surface:       "#ffffff",
		Sidebar:       "#e2e8f0",
		Card:          "#ffffff",
		Text:          "#1f2937",
		TextSecondary: "#6b7280",
		Border:        "#cbd5e1",
		Shadow:        "#64748b",
	},
}

// Defaults returns the built-in palette of mode.
func Defaults(mode enums.AppMode) Colors {
	return defaults[mode]
}

// DefaultConfig returns a fresh copy of the built-in palettes.
func DefaultConfig() Config {
	return defaults.clone()
}
