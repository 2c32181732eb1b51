package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// StatusCounts holds counts for each task status.
type StatusCounts struct {
	NotStarted int
	InProgress int
	Waiting    int
	Done       int
	Total      int
}

// CountStatuses tallies tasks by status. Unknown statuses count as not
// started.
func CountStatuses(tasks []model.Task) StatusCounts {
	var sc StatusCounts
	for _, t := range tasks {
		switch t.Status {
		case model.StatusInProgress:
			sc.InProgress++
		case model.StatusWaiting:
			sc.Waiting++
		case model.StatusDone:
			sc.Done++
		default:
			sc.NotStarted++
		}
	}
	sc.Total = len(tasks)
	return sc
}

// RenderStatsHeaderBox renders a consistent header box for stats panels.
// typeLabel should be "PHASE:", "ROADMAP:", etc.
func RenderStatsHeaderBox(title, typeLabel string, width int, theme Theme, color lipgloss.TerminalColor) []string {
	headerStyle := theme.Renderer.NewStyle().Bold(true).Foreground(color)

	boxWidth := width - StatsPanelPadding
	if boxWidth < MinBoxWidth {
		boxWidth = MinBoxWidth
	}

	// Leave room for the borders, the type label and its separator.
	maxTitleLen := boxWidth - len(typeLabel) - 5
	if maxTitleLen < 5 {
		maxTitleLen = 5
	}
	if r := []rune(title); len(r) > maxTitleLen {
		title = string(r[:maxTitleLen-1]) + "…"
	}

	topBorder := "╔" + strings.Repeat("═", boxWidth-2) + "╗"
	bottomBorder := "╚" + strings.Repeat("═", boxWidth-2) + "╝"

	contentWidth := boxWidth - 4 // Account for "║ " and " ║"
	titleContent := []rune(fmt.Sprintf("%s %s", typeLabel, title))
	if len(titleContent) > contentWidth {
		titleContent = titleContent[:contentWidth]
	}
	titleLine := fmt.Sprintf("║ %-*s║", boxWidth-3, string(titleContent))

	return []string{
		headerStyle.Render(topBorder),
		headerStyle.Render(titleLine),
		headerStyle.Render(bottomBorder),
	}
}

// RenderStatusBars renders a status breakdown with mini bars.
func RenderStatusBars(counts StatusCounts, theme Theme) []string {
	t := theme
	total := counts.Total
	if total == 0 {
		total = 1
	}

	line := func(s model.Status, label string, n int) string {
		fg, _, _ := statusStyle(s)
		bar := RenderMiniBar(float64(n)/float64(total), 10, t)
		return fmt.Sprintf("   %s %-12s %2d %s", t.Renderer.NewStyle().Foreground(fg).Render("●"), label, n, bar)
	}
	return []string{
		line(model.StatusNotStarted, "Not started:", counts.NotStarted),
		line(model.StatusInProgress, "In progress:", counts.InProgress),
		line(model.StatusWaiting, "Waiting:", counts.Waiting),
		line(model.StatusDone, "Done:", counts.Done),
	}
}
