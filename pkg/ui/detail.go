package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// taskMarkdown describes a task for the detail panel.
func taskMarkdown(t model.Task, blockers, dependents []string) string {
	var b strings.Builder
	title := t.Name
	if title == "" {
		title = t.ID
	}
	if t.Milestone {
		title = "◆ " + title
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("| Field | Value |\n|---|---|\n")
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&b, "| %s | %s |\n", k, strings.ReplaceAll(v, "|", "\\|"))
		}
	}
	row("ID", "`"+t.ID+"`")
	row("Phase", t.Category)
	row("Status", string(t.Status))
	row("Priority", string(t.Priority))
	row("Date", t.Date.String())
	if !t.StartDate.IsZero() || !t.EndDate.IsZero() {
		row("Range", fmt.Sprintf("%s → %s", t.Start(), t.End()))
	}
	row("Owner", t.Owner)
	row("Effort", effortText(t.Effort))

	if len(blockers) > 0 {
		b.WriteString("\n## Blocked by\n\n")
		for _, id := range blockers {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}
	if len(dependents) > 0 {
		b.WriteString("\n## Unblocks\n\n")
		for _, id := range dependents {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}
	if t.Description != "" {
		fmt.Fprintf(&b, "\n## Description\n\n%s\n", t.Description)
	}
	if t.Notes != "" {
		fmt.Fprintf(&b, "\n## Notes\n\n%s\n", t.Notes)
	}
	return b.String()
}

// renderMarkdown renders md for a panel of the given width, falling back
// to the raw text when glamour fails.
func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-2, 20)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
