package ui

// Layout breakpoints for responsive design.
const (
	// BreakpointNarrow is the width below which the dep map switches to the
	// compact geometry and the detail panel is hidden.
	BreakpointNarrow = 80

	// BreakpointMedium is the width above which the detail panel fits beside
	// the main view.
	BreakpointMedium = 120
)

// Dimension constraints.
const (
	// MinBoxWidth is the minimum width for bordered content boxes.
	MinBoxWidth = 20

	// StatsPanelPadding is the padding subtracted from width for stats panels.
	StatsPanelPadding = 4

	// MinContentHeight is the minimum height for scrollable content areas.
	MinContentHeight = 5

	// DetailPanelWidth is the width of the side panel on wide terminals.
	DetailPanelWidth = 44

	headerLines = 2 // title + tabs
	footerLines = 3 // divider + status + keybinds
)

// IsPrintableKey returns true if the key is a printable ASCII character.
func IsPrintableKey(key string) bool {
	return len(key) == 1 && key[0] >= 32 && key[0] < 127
}
