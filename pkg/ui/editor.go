package ui

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// fieldChange is one edited field in its text form.
type fieldChange struct {
	Field model.Field
	Value string
}

// editValues holds the form's bound values; huh writes through pointers
// so the struct lives on the heap for the form's lifetime.
type editValues struct {
	Name      string
	Date      string
	Status    string
	Priority  string
	Category  string
	Effort    string
	Milestone bool
	BlockedBy string
	Notes     string
}

func valuesOf(t model.Task) *editValues {
	return &editValues{
		Name:      t.Name,
		Date:      t.Date.String(),
		Status:    string(t.Status),
		Priority:  string(t.Priority),
		Category:  t.Category,
		Effort:    effortText(t.Effort),
		Milestone: t.Milestone,
		BlockedBy: strings.Join(t.BlockedBy, ", "),
		Notes:     t.Notes,
	}
}

func effortText(e *float64) string {
	if e == nil {
		return ""
	}
	return strconv.FormatFloat(*e, 'f', -1, 64)
}

// taskEditor wraps the edit form of one task.
type taskEditor struct {
	form     *huh.Form
	taskID   string
	original *editValues
	values   *editValues
}

func newTaskEditor(t model.Task, phases []model.Phase, width int) *taskEditor {
	e := &taskEditor{taskID: t.ID, original: valuesOf(t), values: valuesOf(t)}

	phaseNames := make([]string, 0, len(phases)+1)
	for _, p := range phases {
		phaseNames = append(phaseNames, p.Name)
	}
	if t.Category != "" && !slices.Contains(phaseNames, t.Category) {
		phaseNames = append(phaseNames, t.Category)
	}
	statuses := make([]string, len(model.Statuses))
	for i, s := range model.Statuses {
		statuses[i] = string(s)
	}
	priorities := make([]string, len(model.Priorities))
	for i, p := range model.Priorities {
		priorities[i] = string(p)
	}

	fields := []huh.Field{
		huh.NewInput().Title("Name").Value(&e.values.Name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("name cannot be empty")
				}
				return nil
			}),
		huh.NewInput().Title("Date").Placeholder("YYYY-MM-DD").Value(&e.values.Date).
			Validate(func(s string) error {
				_, err := model.ParseDate(strings.TrimSpace(s))
				return err
			}),
		huh.NewSelect[string]().Title("Status").Options(huh.NewOptions(statuses...)...).Value(&e.values.Status),
		huh.NewSelect[string]().Title("Priority").Options(huh.NewOptions(priorities...)...).Value(&e.values.Priority),
	}
	if len(phaseNames) > 0 {
		fields = append(fields, huh.NewSelect[string]().Title("Phase").Options(huh.NewOptions(phaseNames...)...).Value(&e.values.Category))
	}
	fields = append(fields,
		huh.NewInput().Title("Effort").Placeholder("days").Value(&e.values.Effort).
			Validate(func(s string) error {
				_, err := model.ParseEffort(s)
				return err
			}),
		huh.NewConfirm().Title("Milestone").Value(&e.values.Milestone),
		huh.NewInput().Title("Blocked by").Placeholder("comma-separated ids").Value(&e.values.BlockedBy),
		huh.NewText().Title("Notes").Lines(4).Value(&e.values.Notes),
	)

	e.form = huh.NewForm(huh.NewGroup(fields...)).
		WithTheme(huh.ThemeDracula()).
		WithShowHelp(true).
		WithWidth(max(width-4, 30))
	return e
}

func (e *taskEditor) Init() tea.Cmd { return e.form.Init() }

// Update forwards msg to the form. done reports completion or abort.
func (e *taskEditor) Update(msg tea.Msg) (cmd tea.Cmd, done bool) {
	m, cmd := e.form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		e.form = f
	}
	return cmd, e.form.State != huh.StateNormal
}

func (e *taskEditor) Completed() bool { return e.form.State == huh.StateCompleted }

func (e *taskEditor) View() string { return e.form.View() }

// Changes lists the fields whose value differs from the task as it was when
// the form opened, in form order.
func (e *taskEditor) Changes() []fieldChange {
	return diffValues(e.original, e.values)
}

func diffValues(before, after *editValues) []fieldChange {
	var out []fieldChange
	add := func(f model.Field, a, b string) {
		if strings.TrimSpace(a) != strings.TrimSpace(b) {
			out = append(out, fieldChange{Field: f, Value: strings.TrimSpace(b)})
		}
	}
	add(model.FieldName, before.Name, after.Name)
	add(model.FieldDate, before.Date, after.Date)
	add(model.FieldStatus, before.Status, after.Status)
	add(model.FieldPriority, before.Priority, after.Priority)
	add(model.FieldCategory, before.Category, after.Category)
	add(model.FieldEffort, before.Effort, after.Effort)
	add(model.FieldMilestone, strconv.FormatBool(before.Milestone), strconv.FormatBool(after.Milestone))
	if !slices.Equal(splitList(before.BlockedBy), splitList(after.BlockedBy)) {
		out = append(out, fieldChange{Field: model.FieldBlockedBy, Value: strings.Join(splitList(after.BlockedBy), ",")})
	}
	if before.Notes != after.Notes {
		out = append(out, fieldChange{Field: model.FieldNotes, Value: after.Notes})
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
