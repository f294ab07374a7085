package theme

// palette is the swatch grid offered by the colour picker, grouped by hue.
var palette = []string{
	"#ef4444", "#dc2626", "#b91c1c", "#f97316", "#ea580c", "#c2410c",
	"#f59e0b", "#d97706", "#b45309", "#eab308", "#ca8a04", "#a16207",
	"#22c55e", "#16a34a", "#15803d", "#10b981", "#059669", "#047857",
	"#14b8a6", "#0d9488", "#0f766e", "#06b6d4", "#0891b2", "#0e7490",
	"#3b82f6", "#2563eb", "#1d4ed8", "#6366f1", "#4f46e5", "#4338ca",
	"#8b5cf6", "#7c3aed", "#6d28d9", "#a855f7", "#9333ea", "#7e22ce",
	"#d946ef", "#c026d3", "#a21caf", "#ec4899", "#db2777", "#be185d",
	"#f43f5e", "#e11d48", "#be123c", "#64748b", "#475569", "#334155",
	"#6b7280", "#4b5563", "#374151", "#71717a", "#52525b", "#3f3f46",
	"#78716c", "#57534e", "#44403c", "#0ea5e9", "#0284c7", "#0369a1",
	"#84cc16", "#65a30d", "#4d7c0f", "#00d4aa", "#00b894", "#00a085",
	"#ff6b6b", "#ff5252", "#e53935", "#b19cd9", "#9c7cd6", "#8e6dd3",
	"#ffb347", "#ffa726", "#ff9800", "#98fb98", "#90ee90", "#7ccd7c",
	"#b0e0e6", "#87ceeb", "#5dade2", "#fa8072", "#f08080", "#e9967a",
	"#ffd700", "#ffc107", "#ffb300", "#c0c0c0", "#a8a8a8", "#909090",
	"#cd7f32", "#b8860b", "#a0522d", "#b87333", "#8b4513", "#40e0d0",
	"#00ced1", "#20b2aa", "#ff00ff", "#e600e6", "#cc00cc", "#000080",
	"#191970", "#0000cd", "#228b22", "#006400", "#32cd32", "#dc143c",
	"#b22222", "#8b0000", "#d2691e", "#cd853f", "#daa520", "#fffff0",
	"#f5f5dc", "#f0e68c", "#fffdd0", "#f5deb3", "#deb887", "#d2b48c",
	"#bc9a6a", "#a67c52", "#bdb76b", "#9acd32", "#808000", "#6b8e23",
	"#556b2f", "#800000", "#800020", "#722f37", "#4a0e0e", "#2c0e0e",
	"#dda0dd", "#da70d6", "#ba55d3", "#9932cc", "#8a2be2", "#7b68ee",
	"#6a5acd", "#4b0082", "#483d8b", "#4169e1", "#0000ff", "#0047ab",
	"#1e90ff", "#00bfff", "#4682b4", "#5f9ea0", "#708090", "#696969",
	"#2f4f4f", "#36454f", "#1c1c1c", "#343434", "#2f2f2f", "#1a1a1a",
	"#0f0f0f", "#f8f8ff", "#f0f8ff", "#e6e6fa", "#fff8dc", "#fffafa",
	"#f5f5f5", "#f0f0f0", "#e8e8e8", "#ffffff", "#f8f8f8", "#000000",
}

// Palette returns a copy of the colour picker swatches.
func Palette() []string {
	return append([]string(nil), palette...)
}
