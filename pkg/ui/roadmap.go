// Package ui is the interactive terminal front end: a timeline and a
// dependency map over one session, with chain highlighting and editing.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/analysis"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/depgraph"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/filter"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/prefs"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/session"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/timeline"
)

// StateMsg carries a session change into the program. Wire it with
// sess.OnChange(func(s session.State) { p.Send(ui.StateMsg(s)) }).
type StateMsg session.State

// opDoneMsg reports the end of a store operation started from the UI.
type opDoneMsg struct {
	op   string
	task model.Task
	err  error
}

// Options configures a Model.
type Options struct {
	Session  *session.Session
	Prefs    prefs.KV
	Settings prefs.Settings
	// Search pre-fills the name filter.
	Search string
	// Focus selects a task once data is loaded.
	Focus string
	// Source describes the backend in the header.
	Source   string
	Logger   *slog.Logger
	Renderer *lipgloss.Renderer
	Context  context.Context
	// Clipboard replaces the system clipboard.
	Clipboard func(string) error
	// SkipInitialLoad leaves loading to the caller.
	SkipInitialLoad bool
}

// Model is the root bubbletea model.
type Model struct {
	ctx       context.Context
	sess      *session.Session
	kv        prefs.KV
	settings  prefs.Settings
	logger    *slog.Logger
	theme     Theme
	source    string
	copyText  func(string) error
	skipLoad  bool
	wantFocus string

	state      session.State
	criteria   filter.Criteria
	hl         highlight.State
	visible    []model.Task
	byID       map[string]model.Task
	categories map[string]string
	layout     depgraph.Layout
	derived    highlight.Highlight
	chart      timeline.Chart
	report     analysis.Report

	cursor     string
	edgeCursor int

	search     textinput.Model
	searching  bool
	editor     *taskEditor
	help       HelpOverlayModel
	detail     viewport.Model
	showDetail bool
	detailKey  string
	spinner    spinner.Model

	// confirmArchive holds the id awaiting a second x.
	confirmArchive string

	width     int
	height    int
	statusMsg string
	statusErr bool
	quitting  bool
}

// New builds the model. Data arrives through Init's load or StateMsg.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	r := opts.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	kv := opts.Prefs
	if kv == nil {
		kv = prefs.NewMemory()
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}
	theme := DefaultTheme(r)
	settings := opts.Settings
	if settings.View == "" {
		settings = prefs.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "search by name"
	ti.Prompt = "/ "
	ti.CharLimit = 120
	ti.SetValue(opts.Search)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	m := Model{
		ctx:       ctx,
		sess:      opts.Session,
		kv:        kv,
		settings:  settings,
		logger:    logger,
		theme:     theme,
		source:    opts.Source,
		copyText:  copyText,
		skipLoad:  opts.SkipInitialLoad,
		wantFocus: opts.Focus,
		criteria: filter.Criteria{
			Search: opts.Search,
			Phase:  settings.Phase,
			Fuzzy:  settings.Fuzzy,
		},
		edgeCursor: -1,
		search:     ti,
		help:       NewHelpOverlayModel(theme),
		detail:     viewport.New(DetailPanelWidth, 20),
		spinner:    sp,
		width:      BreakpointMedium,
		height:     40,
	}
	if opts.Session != nil {
		m.state = opts.Session.State()
	}
	m.recompute()
	return m
}

// Init starts the spinner and the first load.
func (m Model) Init() tea.Cmd {
	if m.skipLoad {
		return m.spinner.Tick
	}
	return tea.Batch(m.spinner.Tick, m.reloadCmd())
}

func (m Model) reloadCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: "reload", err: sess.Reload(ctx)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		m.detail.Width = DetailPanelWidth
		m.detail.Height = max(m.bodyHeight(), MinContentHeight)
		m.detailKey = ""
		m.recompute()
		return m, nil

	case StateMsg:
		m.state = session.State(msg)
		m.recompute()
		return m, nil

	case opDoneMsg:
		if m.sess != nil {
			m.state = m.sess.State()
		}
		m.finishOp(msg)
		m.recompute()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.editor != nil {
			return m.updateEditor(msg)
		}
		if m.help.IsVisible() {
			m.help, _ = m.help.Update(msg)
			return m, nil
		}
		if m.searching {
			return m, m.handleSearchKeys(msg)
		}
		return m, m.handleKeys(msg)
	}

	if m.editor != nil {
		return m.updateEditor(msg)
	}
	return m, nil
}

func (m *Model) finishOp(msg opDoneMsg) {
	if msg.err != nil {
		m.setError(fmt.Sprintf("%s failed: %v", msg.op, msg.err))
		return
	}
	switch msg.op {
	case "add":
		m.cursor = msg.task.ID
		m.hl = m.hl.Hover(msg.task.ID)
		m.setStatus("Added " + msg.task.Name)
	case "edit":
		m.setStatus("Saved")
	case "archive":
		m.setStatus("Archived")
	case "reload":
		if m.wantFocus != "" && m.state.LoadErr == nil {
			if _, ok := m.state.Snapshot.Task(m.wantFocus); ok {
				m.cursor = m.wantFocus
				m.hl = m.hl.Tap(m.wantFocus)
			}
			m.wantFocus = ""
		}
	}
}

func (m *Model) setStatus(s string) { m.statusMsg, m.statusErr = s, false }

func (m *Model) setError(s string) { m.statusMsg, m.statusErr = s, true }

// recompute derives every view input from the session state, the filter
// and the highlight state.
func (m *Model) recompute() {
	snap := m.state.Snapshot
	m.categories = model.Categories(snap.Phases)
	m.byID = make(map[string]model.Task, len(snap.Tasks))
	for _, t := range snap.Tasks {
		m.byID[t.ID] = t
	}
	m.visible = filter.Apply(snap.Tasks, m.criteria)
	m.derived = highlight.Derive(m.hl, m.visible, m.settings.HighlightMode)
	m.layout = depgraph.Build(m.visible, depgraph.Desktop)
	m.chart = timeline.Build(m.visible, m.settings.NodeMode, m.derived)
	m.report = analysis.Analyze(snap.Tasks)

	order := m.cursorOrder()
	if _, ok := m.layout.Nodes[m.cursor]; !ok {
		m.cursor = ""
		if len(order) > 0 {
			m.cursor = order[0]
		}
	}
	if n := len(m.layout.EdgesOf(m.cursor)); m.edgeCursor >= n {
		m.edgeCursor = -1
	}
	m.syncDetail()
}

// cursorOrder lists visible tasks in navigation order for the current
// view: column by column on the map, chart order on the timeline.
func (m Model) cursorOrder() []string {
	var out []string
	if m.settings.View == prefs.ViewDepMap {
		for _, col := range m.layout.ColumnRows {
			out = append(out, col...)
		}
		return out
	}
	for _, r := range m.chart.Rows() {
		out = append(out, r.Task.ID)
	}
	return out
}

func (m Model) cellGeometry() cellGeometry {
	if m.width < BreakpointNarrow {
		return compactCells
	}
	return desktopCells
}

func (m Model) detailVisible() bool {
	return m.showDetail && m.width >= BreakpointMedium
}

func (m Model) bodyHeight() int {
	return max(m.height-headerLines-footerLines, 1)
}

func (m Model) bodyWidth() int {
	if m.detailVisible() {
		return max(m.width-DetailPanelWidth-2, 20)
	}
	return max(m.width, 20)
}

// syncDetail re-renders the detail panel when its task or data changed.
func (m *Model) syncDetail() {
	if !m.showDetail || m.cursor == "" {
		return
	}
	t, ok := m.byID[m.cursor]
	if !ok {
		return
	}
	key := fmt.Sprintf("%s@%d/%d/%s/%d", t.ID, m.state.Generation, m.width, m.phase(), len(m.visible))
	if key == m.detailKey && !m.state.Saving {
		return
	}
	m.detailKey = key

	stats := RenderStatsHeaderBox(m.phase(), "PHASE:", DetailPanelWidth, m.theme, m.theme.Primary)
	stats = append(stats, RenderStatusBars(CountStatuses(m.visible), m.theme)...)

	ix := depgraph.NewIndex(m.state.Snapshot.Tasks)
	md := taskMarkdown(t, m.labels(ix.Preds[t.ID]), m.labels(ix.Succs[t.ID]))
	m.detail.SetContent(strings.Join(stats, "\n") + "\n\n" + renderMarkdown(md, DetailPanelWidth))
	m.detail.GotoTop()
}

func (m Model) labels(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if t, ok := m.byID[id]; ok && t.Name != "" {
			out = append(out, fmt.Sprintf("%s (`%s`)", t.Name, id))
		} else {
			out = append(out, "`"+id+"`")
		}
	}
	return out
}

// persist saves settings, reporting failures in the status bar.
func (m *Model) persist() {
	if err := prefs.Save(m.kv, m.settings); err != nil {
		m.logger.Warn("saving preferences failed", "error", err)
		m.setError("could not save preferences: " + err.Error())
	}
}

// Cursor returns the task under the cursor.
func (m Model) Cursor() string { return m.cursor }

// Highlight returns the current classification.
func (m Model) Highlight() highlight.Highlight { return m.derived }

// Criteria returns the active filter.
func (m Model) Criteria() filter.Criteria { return m.criteria }

// Settings returns the current view settings.
func (m Model) Settings() prefs.Settings { return m.settings }
