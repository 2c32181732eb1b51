package ui

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/timeline"
)

func TestTrackPosClamps(t *testing.T) {
	tests := []struct {
		percent float64
		want    int
	}{
		{0, 0},
		{100, 19},
		{50, 10},
		{-5, 0},
		{150, 19},
	}
	for _, tt := range tests {
		if got := trackPos(tt.percent, 20); got != tt.want {
			t.Errorf("trackPos(%v) = %d, want %d", tt.percent, got, tt.want)
		}
	}
}

func TestLinkMarks(t *testing.T) {
	links := []timeline.Link{{FromID: "a", ToID: "b"}, {FromID: "b", ToID: "d"}}
	got := linkMarks(links, "b")
	if got["a"] != "↑" || got["d"] != "↓" || got["b"] != "" {
		t.Errorf("marks = %v", got)
	}
}

func TestRenderTimelineModes(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", Name: "Kickoff", Date: model.MustDate("2026-01-01"), Milestone: true},
		{ID: "b", Name: "Build", Date: model.MustDate("2026-01-15"), StartDate: model.MustDate("2026-01-10"), EndDate: model.MustDate("2026-03-01")},
		{ID: "c", Name: "Someday"},
	}
	theme := DefaultTheme(lipgloss.NewRenderer(io.Discard))

	single := timeline.Build(tasks, timeline.NodeSingle, highlight.Highlight{})
	lines := renderTimeline(theme, single, nil, "b", nil, 80)
	text := joinLines(lines)
	for _, want := range []string{"January 2026", "◆", "●", "no date", "▸"} {
		if !strings.Contains(text, want) {
			t.Errorf("single mode missing %q:\n%s", want, text)
		}
	}

	ranged := timeline.Build(tasks, timeline.NodeRange, highlight.Highlight{})
	if !strings.Contains(joinLines(renderTimeline(theme, ranged, nil, "", nil, 80)), "██") {
		t.Errorf("range mode should draw a bar")
	}

	var taskLines int
	for _, l := range lines {
		if l.Task != "" {
			taskLines++
		}
	}
	if taskLines != 3 {
		t.Errorf("task lines = %d, want 3", taskLines)
	}
}

func joinLines(lines []timelineLine) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.Text)
		b.WriteByte('\n')
	}
	return b.String()
}
