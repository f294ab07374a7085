package theme

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/linarqa/linarqa-web/pkg/enums"
)

//go:embed presets.json
var presetsJSON []byte

// Preset is a named pair of palettes, one per mode.
type Preset struct {
	Name   string `json:"name"`
	Themes Config `json:"themes"`
}

var presets = mustLoadPresets(presetsJSON)

func mustLoadPresets(raw []byte) []Preset {
	var out []Preset
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("theme: decode presets: %v", err))
	}
	for _, p := range out {
		for _, mode := range enums.AppModes() {
			colors, ok := p.Themes[mode]
			if !ok || len(colors.Missing()) > 0 {
				panic(fmt.Sprintf("theme: preset %q is incomplete for %s", p.Name, mode))
			}
		}
	}
	return out
}

// Presets returns the built-in presets in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		out[i] = Preset{Name: p.Name, Themes: p.Themes.clone()}
	}
	return out
}

// FindPreset looks a preset up by its display name.
func FindPreset(name string) (Preset, bool) {
	for _, p := range presets {
		if p.Name == name {
			return Preset{Name: p.Name, Themes: p.Themes.clone()}, true
		}
	}
	return Preset{}, false
}
