package model

// FallbackColor is used for tasks whose phase is unknown.
const FallbackColor = "#6b7280"

// Palette is cycled through to colour phases in load order. Adjacent
// entries are chosen to stay visually distinct.
var Palette = []string{
	"#f59e0b", // amber
	"#3b82f6", // blue
	"#8b5cf6", // violet
	"#10b981", // emerald
	"#ec4899", // pink
	"#ef4444", // red
	"#f97316", // orange
	"#06b6d4", // cyan
	"#84cc16", // lime
	"#6b7280", // gray
	"#a855f7", // purple
	"#14b8a6", // teal
	"#f43f5e", // rose
	"#eab308", // yellow
	"#64748b", // slate
}

// Phase groups tasks; its name is the task's category.
type Phase struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
	Date        Date   `json:"date"`
}

// AssignPhaseColors sets each phase's colour from Palette by position.
func AssignPhaseColors(phases []Phase) {
	for i := range phases {
		phases[i].Color = Palette[i%len(Palette)]
	}
}

// Categories maps phase name to colour.
func Categories(phases []Phase) map[string]string {
	out := make(map[string]string, len(phases))
	for _, p := range phases {
		out[p.Name] = p.Color
	}
	return out
}

// CategoryColor resolves a category colour with the fallback.
func CategoryColor(categories map[string]string, category string) string {
	if c, ok := categories[category]; ok && c != "" {
		return c
	}
	return FallbackColor
}
