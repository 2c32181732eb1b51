package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/timeline"
)

const timelineNameWidth = 28

// timelineLine is one rendered line; Task is empty for headings.
type timelineLine struct {
	Task string
	Text string
}

// linkMarks maps task ids to the arrow shown next to direct neighbours of
// the focus: ↑ for blockers, ↓ for dependents.
func linkMarks(links []timeline.Link, focus string) map[string]string {
	out := make(map[string]string, len(links))
	for _, l := range links {
		if l.ToID == focus {
			out[l.FromID] = "↑"
		} else {
			out[l.ToID] = "↓"
		}
	}
	return out
}

// renderTimeline lays out the chart as text lines. Dimmed rows are faint,
// the cursor row is marked with ▸.
func renderTimeline(t Theme, c timeline.Chart, categories map[string]string, cursor string, marks map[string]string, width int) []timelineLine {
	trackW := max(width-timelineNameWidth-4, 10)
	var lines []timelineLine

	lines = append(lines, timelineLine{Text: strings.Repeat(" ", timelineNameWidth+4) + axisLine(t, c, trackW)})

	heading := t.Renderer.NewStyle().Foreground(t.Primary).Bold(true)
	for _, g := range c.Groups {
		lines = append(lines, timelineLine{Text: heading.Render(g.Month)})
		for _, r := range g.Rows {
			lines = append(lines, timelineLine{
				Task: r.Task.ID,
				Text: renderRow(t, c.Mode, r, categories, cursor == r.Task.ID, marks[r.Task.ID], trackW),
			})
		}
	}
	return lines
}

func axisLine(t Theme, c timeline.Chart, trackW int) string {
	axis := []rune(strings.Repeat(" ", trackW))
	for _, tick := range c.Ticks {
		x := trackPos(tick.Offset, trackW)
		label := []rune(strings.SplitN(tick.Label, " ", 2)[0])
		if len(label) > 3 {
			label = label[:3]
		}
		for i, r := range append([]rune{'┊'}, label...) {
			if x+i < trackW {
				axis[x+i] = r
			}
		}
	}
	return t.Renderer.NewStyle().Foreground(t.Secondary).Render(string(axis))
}

func trackPos(percent float64, trackW int) int {
	x := int(math.Round(percent / 100 * float64(trackW-1)))
	return min(max(x, 0), trackW-1)
}

func renderRow(t Theme, mode timeline.NodeMode, r timeline.Row, categories map[string]string, isCursor bool, mark string, trackW int) string {
	color := lipgloss.Color(model.CategoryColor(categories, r.Task.Category))

	pointer := "  "
	if isCursor {
		pointer = "▸ "
	}
	name := r.Task.Name
	if name == "" {
		name = r.Task.ID
	}
	if mark != "" {
		name = mark + " " + name
	}
	label := runewidth.FillRight(runewidth.Truncate(name, timelineNameWidth-2, "…"), timelineNameWidth-2)
	label = statusGlyph(r.Task.Status) + " " + label

	track := []rune(strings.Repeat("·", trackW))
	switch {
	case !r.Dated:
		copy(track, []rune("no date"))
	case mode == timeline.NodeRange && r.To > r.From:
		from, to := trackPos(r.From, trackW), trackPos(r.To, trackW)
		for x := from; x <= to; x++ {
			track[x] = '█'
		}
	default:
		glyph := '◆'
		if !r.Task.Milestone {
			glyph = '●'
		}
		track[trackPos(r.From, trackW)] = glyph
	}

	nameStyle := t.Renderer.NewStyle().Foreground(t.Subtext)
	trackStyle := t.Renderer.NewStyle().Foreground(color)
	switch {
	case r.Flags.Dimmed:
		nameStyle = t.Renderer.NewStyle().Foreground(t.Dimmed).Faint(true)
		trackStyle = nameStyle
	case r.Flags.Selected:
		nameStyle = nameStyle.Foreground(t.Selected).Bold(true)
	case r.Flags.Active:
		nameStyle = nameStyle.Foreground(color).Bold(true)
	}
	if isCursor {
		nameStyle = nameStyle.Underline(true)
	}
	return fmt.Sprintf("%s%s  %s", pointer, nameStyle.Render(label), trackStyle.Render(string(track)))
}
