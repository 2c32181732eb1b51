package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/filter"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/prefs"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/timeline"
)

// View renders the whole screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.help.IsVisible() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.help.View())
	}
	if m.editor != nil {
		return m.renderHeader() + "\n" + m.editor.View()
	}

	body := m.renderBody()
	if m.detailVisible() && m.state.LoadErr == nil && len(m.visible) > 0 {
		panel := FocusedPanelStyle.Width(DetailPanelWidth).Height(m.bodyHeight() - 2).Render(m.detail.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", panel)
	}
	return strings.Join([]string{m.renderHeader(), body, m.renderFooter()}, "\n")
}

func (m Model) renderHeader() string {
	t := m.theme
	title := t.Renderer.NewStyle().Bold(true).Foreground(t.Primary).Render("Roadmap")
	if m.source != "" {
		title += t.Renderer.NewStyle().Foreground(t.Secondary).Render("  " + m.source)
	}

	tab := func(label string, active bool) string {
		s := t.Renderer.NewStyle().Padding(0, 1)
		if active {
			return s.Bold(true).Foreground(ColorBg).Background(ColorPrimary).Render(label)
		}
		return s.Foreground(t.Subtext).Render(label)
	}
	tabs := tab("Timeline", m.settings.View != prefs.ViewDepMap) + tab("Dep map", m.settings.View == prefs.ViewDepMap)

	var info []string
	info = append(info, "phase: "+m.phase())
	if m.searching {
		info = append(info, m.search.View())
	} else if m.criteria.Search != "" {
		q := "search: " + m.criteria.Search
		if m.criteria.Fuzzy {
			q += " (fuzzy)"
		}
		info = append(info, q)
	}
	if total := len(m.state.Snapshot.Tasks); total > 0 {
		info = append(info, fmt.Sprintf("%d/%d tasks", len(m.visible), total))
	}
	infoLine := t.Renderer.NewStyle().Foreground(t.Secondary).Render(strings.Join(info, "  ·  "))
	return title + "  " + tabs + "\n" + infoLine
}

func (m Model) renderBody() string {
	t := m.theme
	h, w := m.bodyHeight(), m.bodyWidth()
	box := t.Renderer.NewStyle().Width(w).Height(h)

	switch {
	case m.state.LoadErr != nil:
		msg := t.Renderer.NewStyle().Foreground(t.Danger).Bold(true).Render("Could not load the roadmap") +
			"\n\n" + m.state.LoadErr.Error() +
			"\n\n" + t.Renderer.NewStyle().Foreground(t.Secondary).Render("Press r to retry, q to quit")
		return box.Render(PanelStyle.Padding(1, 2).Render(msg))
	case m.state.Generation == 0:
		return box.Render(m.spinner.View() + " Loading roadmap…")
	case len(m.visible) == 0:
		hint := "No tasks yet. Press n to add one."
		if !m.criteria.IsZero() {
			hint = "No tasks match the filter. Press esc to clear the search or p to change phase."
		}
		return box.Render(t.Renderer.NewStyle().Foreground(t.Secondary).Render(hint))
	}

	if m.settings.View == prefs.ViewDepMap {
		return box.Render(m.renderDepMap(w, h))
	}
	return box.Render(m.renderTimelineBody(w, h))
}

func (m Model) renderDepMap(w, h int) string {
	tasks := make(map[string]model.Task, len(m.visible))
	for _, task := range m.visible {
		tasks[task.ID] = task
	}
	d := buildDepMap(m.layout, tasks, m.categories, m.derived, m.cellGeometry())

	scrollX, scrollY := 0, 0
	if pos, ok := m.layout.Nodes[m.cursor]; ok {
		x, y, nw := d.nodeBox(pos)
		scrollX = clampScroll(x+nw/2-w/2, d.canvas.w, w)
		scrollY = clampScroll(y-h/2, d.canvas.h, h)
	}
	return d.render(m.theme, m.derived, m.cursor, scrollX, scrollY, w, h)
}

func clampScroll(want, total, view int) int {
	return max(0, min(want, total-view))
}

func (m Model) renderTimelineBody(w, h int) string {
	focus := m.derived.FocusNode
	marks := linkMarks(timeline.Links(focus, m.visible), focus)
	lines := renderTimeline(m.theme, m.chart, m.categories, m.cursor, marks, w)

	at := 0
	for i, l := range lines {
		if l.Task == m.cursor {
			at = i
			break
		}
	}
	offset := clampScroll(at-h/2, len(lines), h)
	end := min(offset+h, len(lines))

	out := make([]string, 0, end-offset)
	for _, l := range lines[offset:end] {
		out = append(out, l.Text)
	}
	return strings.Join(out, "\n")
}

func (m Model) renderFooter() string {
	t := m.theme
	var parts []string

	switch {
	case m.state.Saving:
		parts = append(parts, m.spinner.View()+" saving…")
	case m.state.Loading && m.state.Generation > 0:
		parts = append(parts, m.spinner.View()+" reloading…")
	}
	if err := m.state.LastWriteErr; err != nil {
		parts = append(parts, t.Renderer.NewStyle().Foreground(t.Warning).Render("last save failed, data reloaded"))
	}
	if m.statusMsg != "" {
		s := t.Renderer.NewStyle().Foreground(t.Success)
		if m.statusErr {
			s = s.Foreground(t.Danger)
		}
		parts = append(parts, s.Render(m.statusMsg))
	}
	if m.report.HasProblems() {
		var warn []string
		if n := len(m.report.Cycles); n > 0 {
			warn = append(warn, fmt.Sprintf("%d cycle(s)", n))
		}
		if n := len(m.report.SelfLoops); n > 0 {
			warn = append(warn, fmt.Sprintf("%d self-reference(s)", n))
		}
		if n := len(m.report.Dangling); n > 0 {
			warn = append(warn, fmt.Sprintf("%d missing dependency(ies)", n))
		}
		parts = append(parts, t.Renderer.NewStyle().Foreground(t.Warning).Render("⚠ "+strings.Join(warn, ", ")))
	}
	if f := m.derived.FocusNode; f != "" {
		task := m.byID[f]
		parts = append(parts, fmt.Sprintf("focus: %s %s%s (%s)", m.taskLabel(f),
			RenderStatusBadge(task.Status), RenderPriorityBadge(task.Priority), m.settings.HighlightMode))
	} else if k := m.derived.FocusEdge; !k.IsZero() {
		parts = append(parts, "edge: "+m.edgeLabel(k))
	}

	status := strings.Join(parts, "  ")
	hints := t.Renderer.NewStyle().Foreground(t.Secondary).Render(keyHints(m.settings.View, m.criteria))
	return RenderDivider(m.width) + "\n" + status + "\n" + hints
}

func keyHints(v prefs.View, c filter.Criteria) string {
	hints := []string{"tab view", "j/k move"}
	if v == prefs.ViewDepMap {
		hints = append(hints, "h/l column")
	}
	hints = append(hints, "enter select", "e deps", "/ search", "p phase", "E edit", "n new", "? help", "q quit")
	if !c.IsZero() {
		hints = append(hints, "esc clear")
	}
	return strings.Join(hints, " · ")
}
