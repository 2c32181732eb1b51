package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/filter"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/prefs"
)

// handleKeys dispatches keys in the main views.
func (m *Model) handleKeys(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key != "x" {
		m.confirmArchive = ""
	}

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return tea.Quit
	case "?":
		m.help.Toggle()
		return nil
	case "r":
		if m.sess == nil {
			return nil
		}
		m.setStatus("Reloading…")
		return m.reloadCmd()
	}

	// Everything below needs loaded data.
	if m.state.LoadErr != nil || m.state.Generation == 0 {
		return nil
	}

	switch key {
	case "tab":
		if m.settings.View == prefs.ViewDepMap {
			m.settings.View = prefs.ViewTimeline
		} else {
			m.settings.View = prefs.ViewDepMap
		}
		m.persist()
		m.recompute()
	case "/":
		m.searching = true
		m.search.Focus()
		return textinput.Blink
	case "p":
		m.criteria.Phase = filter.NextPhase(m.state.Snapshot.Phases, m.phase())
		m.settings.Phase = m.criteria.Phase
		m.filterChanged()
		m.persist()
	case "f":
		m.criteria.Fuzzy = !m.criteria.Fuzzy
		m.settings.Fuzzy = m.criteria.Fuzzy
		m.filterChanged()
		m.persist()
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "h", "left":
		m.moveColumn(-1)
	case "l", "right":
		m.moveColumn(1)
	case "enter", " ":
		if m.cursor != "" {
			m.hl = m.hl.Tap(m.cursor)
			m.recompute()
		}
	case "e":
		m.cycleEdge()
	case "esc":
		switch {
		case m.hl != (highlight.State{}):
			m.hl = m.hl.ClearBackground()
			m.recompute()
		case m.criteria.Search != "":
			m.search.SetValue("")
			m.criteria.Search = ""
			m.filterChanged()
		}
	case "m":
		m.settings.NodeMode = m.settings.NodeMode.Toggle()
		m.persist()
		m.recompute()
	case "c":
		if m.settings.HighlightMode == highlight.ChainDirect {
			m.settings.HighlightMode = highlight.ChainTransitive
		} else {
			m.settings.HighlightMode = highlight.ChainDirect
		}
		m.persist()
		m.recompute()
	case "d":
		m.showDetail = !m.showDetail
		m.detailKey = ""
		m.syncDetail()
	case "ctrl+d", "pgdown":
		if m.detailVisible() {
			m.detail.HalfPageDown()
		}
	case "ctrl+u", "pgup":
		if m.detailVisible() {
			m.detail.HalfPageUp()
		}
	case "y":
		if m.cursor != "" {
			m.copy(m.cursor, "Copied "+m.cursor)
		}
	case "Y":
		ids := m.derived.ActiveNodes()
		if len(ids) == 0 {
			m.setStatus("Nothing highlighted")
			return nil
		}
		m.copy(strings.Join(ids, "\n"), fmt.Sprintf("Copied %d chain ids", len(ids)))
	case "E":
		return m.openEditor()
	case "n":
		return m.addCmd()
	case "x":
		return m.archiveKey()
	}
	return nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		if m.criteria.Search != "" {
			m.criteria.Search = ""
			m.filterChanged()
		}
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.criteria.Search {
		m.criteria.Search = v
		m.filterChanged()
	}
	return cmd
}

// filterChanged drops the focus, which may have been filtered away.
func (m *Model) filterChanged() {
	m.hl = m.hl.FilterChanged()
	m.recompute()
}

func (m Model) phase() string {
	if m.criteria.Phase == "" {
		return filter.AllPhases
	}
	return m.criteria.Phase
}

// moveCursor steps through the view's task order and hovers the result.
// On the map it stays inside the current column.
func (m *Model) moveCursor(delta int) {
	order := m.cursorOrder()
	if m.settings.View == prefs.ViewDepMap {
		if pos, ok := m.layout.Nodes[m.cursor]; ok {
			order = m.layout.ColumnRows[pos.Column]
		}
	}
	if len(order) == 0 {
		return
	}
	i := indexIn(order, m.cursor)
	switch {
	case i < 0:
		i = 0
	default:
		i = min(max(i+delta, 0), len(order)-1)
	}
	m.pointAt(order[i])
}

// moveColumn jumps to the nearest row of the adjacent non-empty column.
func (m *Model) moveColumn(delta int) {
	if m.settings.View != prefs.ViewDepMap {
		return
	}
	pos, ok := m.layout.Nodes[m.cursor]
	if !ok {
		return
	}
	for c := pos.Column + delta; c >= 0 && c < len(m.layout.ColumnRows); c += delta {
		col := m.layout.ColumnRows[c]
		if len(col) == 0 {
			continue
		}
		m.pointAt(col[min(pos.Row, len(col)-1)])
		return
	}
}

func (m *Model) pointAt(id string) {
	if id != m.cursor {
		m.edgeCursor = -1
	}
	m.cursor = id
	m.hl = m.hl.Hover(id)
	m.recompute()
}

// cycleEdge selects the cursor task's dependencies one after another.
func (m *Model) cycleEdge() {
	edges := m.layout.EdgesOf(m.cursor)
	if len(edges) == 0 {
		m.setStatus("No dependencies")
		return
	}
	m.edgeCursor = (m.edgeCursor + 1) % len(edges)
	e := edges[m.edgeCursor]
	key := highlight.EdgeKey{From: e.FromID, To: e.ToID}
	m.hl = m.hl.TapEdge(key)
	m.setStatus(m.edgeLabel(key))
	m.recompute()
}

func (m Model) edgeLabel(k highlight.EdgeKey) string {
	return m.taskLabel(k.From) + " → " + m.taskLabel(k.To)
}

func (m *Model) copy(text, status string) {
	if err := m.copyText(text); err != nil {
		m.logger.Warn("clipboard write failed", "error", err)
		m.setError("clipboard unavailable: " + err.Error())
		return
	}
	m.setStatus(status)
}

func (m *Model) openEditor() tea.Cmd {
	t, ok := m.byID[m.cursor]
	if !ok || m.sess == nil {
		return nil
	}
	m.editor = newTaskEditor(t, m.state.Snapshot.Phases, m.width)
	return m.editor.Init()
}

func (m Model) updateEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && (k.String() == "esc" || k.String() == "ctrl+c") {
		m.editor = nil
		m.setStatus("Edit cancelled")
		return m, nil
	}
	cmd, done := m.editor.Update(msg)
	if !done {
		return m, cmd
	}
	ed := m.editor
	m.editor = nil
	if !ed.Completed() {
		m.setStatus("Edit cancelled")
		return m, nil
	}
	changes := ed.Changes()
	if len(changes) == 0 {
		m.setStatus("No changes")
		return m, nil
	}
	m.setStatus("Saving…")
	return m, m.saveCmd(ed.taskID, changes)
}

// saveCmd applies changes in order and stops at the first failure, which
// the session has already rolled back by reloading.
func (m Model) saveCmd(id string, changes []fieldChange) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		for _, c := range changes {
			if err := sess.Update(ctx, id, c.Field, c.Value); err != nil {
				return opDoneMsg{op: "edit", err: err}
			}
		}
		return opDoneMsg{op: "edit"}
	}
}

func (m Model) addCmd() tea.Cmd {
	if m.sess == nil {
		return nil
	}
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		t, err := sess.Add(ctx)
		return opDoneMsg{op: "add", task: t, err: err}
	}
}

// archiveKey asks for confirmation on the first x and archives on the
// second.
func (m *Model) archiveKey() tea.Cmd {
	if m.cursor == "" || m.sess == nil {
		return nil
	}
	if m.confirmArchive != m.cursor {
		m.confirmArchive = m.cursor
		m.setStatus("Press x again to archive " + m.taskLabel(m.cursor))
		return nil
	}
	id := m.confirmArchive
	m.confirmArchive = ""
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "archive", err: sess.Delete(ctx, id)}
	}
}

func (m Model) taskLabel(id string) string {
	if t, ok := m.byID[id]; ok && t.Name != "" {
		return t.Name
	}
	return id
}

func indexIn(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
