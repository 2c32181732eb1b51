package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Dracula-inspired with extended semantic colors
// ══════════════════════════════════════════════════════════════════════════════

var (
	// Base colors
	ColorBg          = lipgloss.Color("#282A36")
	ColorBgSubtle    = lipgloss.Color("#363949")
	ColorBgHighlight = lipgloss.Color("#44475A")
	ColorText        = lipgloss.Color("#F8F8F2")
	ColorSubtext     = lipgloss.Color("#BFBFBF")
	ColorMuted       = lipgloss.Color("#6272A4")
	ColorDimmed      = lipgloss.Color("#3B3F51")

	// Primary accent colors
	ColorPrimary = lipgloss.Color("#BD93F9")
	ColorInfo    = lipgloss.Color("#8BE9FD")
	ColorSuccess = lipgloss.Color("#50FA7B")
	ColorWarning = lipgloss.Color("#FFB86C")
	ColorDanger  = lipgloss.Color("#FF5555")

	// Status colors
	ColorStatusNotStarted = lipgloss.Color("#BFBFBF")
	ColorStatusInProgress = lipgloss.Color("#8BE9FD")
	ColorStatusWaiting    = lipgloss.Color("#FFB86C")
	ColorStatusDone       = lipgloss.Color("#50FA7B")

	// Status background colors (for badges)
	ColorStatusNotStartedBg = lipgloss.Color("#2A2A3D")
	ColorStatusInProgressBg = lipgloss.Color("#1A3344")
	ColorStatusWaitingBg    = lipgloss.Color("#3D2A1A")
	ColorStatusDoneBg       = lipgloss.Color("#1A3D2A")

	// Priority colors
	ColorPrioHigh   = lipgloss.Color("#FF5555")
	ColorPrioMedium = lipgloss.Color("#F1FA8C")
	ColorPrioLow    = lipgloss.Color("#50FA7B")

	ColorPrioHighBg   = lipgloss.Color("#3D1A1A")
	ColorPrioMediumBg = lipgloss.Color("#3D3D1A")
	ColorPrioLowBg    = lipgloss.Color("#1A3D2A")
)

// Theme binds the palette to a renderer so tests can render without a TTY.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Dimmed    lipgloss.AdaptiveColor
	Selected  lipgloss.AdaptiveColor
	Danger    lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
}

// DefaultTheme returns the dark-first theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: string(ColorPrimary)},
		Secondary: lipgloss.AdaptiveColor{Light: "#475569", Dark: string(ColorMuted)},
		Subtext:   lipgloss.AdaptiveColor{Light: "#334155", Dark: string(ColorSubtext)},
		Border:    lipgloss.AdaptiveColor{Light: "#CBD5E1", Dark: string(ColorBgHighlight)},
		Dimmed:    lipgloss.AdaptiveColor{Light: "#E2E8F0", Dark: string(ColorDimmed)},
		Selected:  lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"},
		Danger:    lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: string(ColorDanger)},
		Success:   lipgloss.AdaptiveColor{Light: "#15803D", Dark: string(ColorSuccess)},
		Warning:   lipgloss.AdaptiveColor{Light: "#C2410C", Dark: string(ColorWarning)},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PANEL STYLES - For split view layouts
// ══════════════════════════════════════════════════════════════════════════════

var (
	// PanelStyle is the default style for unfocused panels
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#44475A"))

	// FocusedPanelStyle is the style for focused panels
	FocusedPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#BD93F9"))
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGE RENDERING - Polished, consistent badge styles
// ══════════════════════════════════════════════════════════════════════════════

// RenderPriorityBadge returns a styled priority badge
func RenderPriorityBadge(p model.Priority) string {
	var fg, bg lipgloss.Color
	var label string

	switch p {
	case model.PriorityHigh:
		fg, bg, label = ColorPrioHigh, ColorPrioHighBg, "HIGH"
	case model.PriorityMedium:
		fg, bg, label = ColorPrioMedium, ColorPrioMediumBg, "MED "
	case model.PriorityLow:
		fg, bg, label = ColorPrioLow, ColorPrioLowBg, "LOW "
	default:
		fg, bg, label = ColorMuted, ColorBgSubtle, "??? "
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Bold(true).
		Render(label)
}

// RenderStatusBadge returns a styled status badge
func RenderStatusBadge(s model.Status) string {
	fg, bg, label := statusStyle(s)
	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Render(label)
}

func statusStyle(s model.Status) (fg, bg lipgloss.Color, label string) {
	switch s {
	case model.StatusNotStarted:
		return ColorStatusNotStarted, ColorStatusNotStartedBg, "TODO"
	case model.StatusInProgress:
		return ColorStatusInProgress, ColorStatusInProgressBg, "PROG"
	case model.StatusWaiting:
		return ColorStatusWaiting, ColorStatusWaitingBg, "WAIT"
	case model.StatusDone:
		return ColorStatusDone, ColorStatusDoneBg, "DONE"
	}
	return ColorMuted, ColorBgSubtle, "????"
}

// ══════════════════════════════════════════════════════════════════════════════
// METRIC VISUALIZATION
// ══════════════════════════════════════════════════════════════════════════════

// RenderMiniBar renders a mini horizontal bar for a value between 0 and 1
func RenderMiniBar(value float64, width int, t Theme) string {
	if width <= 0 {
		return ""
	}
	value = max(0, min(value, 1))
	filled := min(int(value*float64(width)), width)

	var barColor lipgloss.AdaptiveColor
	switch {
	case value >= 0.75:
		barColor = t.Success
	case value >= 0.25:
		barColor = t.Warning
	default:
		barColor = t.Secondary
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return t.Renderer.NewStyle().Foreground(barColor).Render(bar)
}

// ══════════════════════════════════════════════════════════════════════════════
// DIVIDERS AND SEPARATORS
// ══════════════════════════════════════════════════════════════════════════════

// RenderDivider renders a horizontal divider line
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
