package timeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

func dated(id, date string, deps ...string) model.Task {
	t := model.Task{ID: id, Name: id, BlockedBy: deps}
	if date != "" {
		t.Date = model.MustDate(date)
	}
	return t
}

func TestWindowOf(t *testing.T) {
	w, ok := WindowOf([]model.Task{dated("a", "2026-05-20"), dated("b", "2026-03-10"), dated("c", "")})
	if !ok {
		t.Fatal("expected a window")
	}
	if w.Start.String() != "2026-03-01" || w.End.String() != "2026-05-31" {
		t.Errorf("window = %s..%s", w.Start, w.End)
	}
	if _, ok := WindowOf([]model.Task{dated("x", "")}); ok {
		t.Error("undated tasks should give no window")
	}
}

func TestWindowOf_IncludesRangeEnds(t *testing.T) {
	tk := dated("a", "2026-03-10")
	tk.EndDate = model.MustDate("2026-07-02")
	w, _ := WindowOf([]model.Task{tk})
	if w.End.String() != "2026-07-31" {
		t.Errorf("end = %s, want 2026-07-31", w.End)
	}
}

func TestPercent(t *testing.T) {
	w := Window{Start: model.MustDate("2026-03-01"), End: model.MustDate("2026-03-11")}
	tests := []struct {
		date string
		want float64
	}{
		{"2026-03-01", 0},
		{"2026-03-06", 50},
		{"2026-03-11", 100},
		{"2026-01-01", 0},
		{"2027-01-01", 100},
	}
	for _, tt := range tests {
		if got := w.Percent(model.MustDate(tt.date)); got != tt.want {
			t.Errorf("Percent(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}
	if w.Percent(model.Date{}) != 0 {
		t.Error("absent date should map to 0")
	}
}

func TestTicks(t *testing.T) {
	w := Window{Start: model.MustDate("2026-03-01"), End: model.MustDate("2026-05-31")}
	ticks := w.Ticks()
	var labels []string
	for _, tk := range ticks {
		labels = append(labels, tk.Label)
	}
	if diff := cmp.Diff([]string{"March 2026", "April 2026", "May 2026"}, labels); diff != "" {
		t.Errorf("tick labels (-want +got):\n%s", diff)
	}
	if ticks[0].Offset != 0 {
		t.Errorf("first tick offset = %v", ticks[0].Offset)
	}
}

func TestBuild_GroupsChronologically(t *testing.T) {
	tasks := []model.Task{
		dated("may", "2026-05-02"),
		dated("none", ""),
		dated("mar1", "2026-03-20"),
		dated("mar2", "2026-03-05"),
	}
	c := Build(tasks, NodeSingle, highlight.Derive(highlight.State{}, tasks, highlight.ChainTransitive))

	var months []string
	for _, g := range c.Groups {
		months = append(months, g.Month)
	}
	if diff := cmp.Diff([]string{"March 2026", "May 2026", NoDateGroup}, months); diff != "" {
		t.Errorf("groups (-want +got):\n%s", diff)
	}
	// Rows inside a month keep input order.
	if c.Groups[0].Rows[0].Task.ID != "mar1" || c.Groups[0].Rows[1].Task.ID != "mar2" {
		t.Errorf("march rows out of input order")
	}
	if c.Groups[2].Rows[0].Dated {
		t.Error("undated row marked dated")
	}
	if len(c.Rows()) != 4 {
		t.Errorf("Rows() = %d", len(c.Rows()))
	}
}

func TestBuild_RangeMode(t *testing.T) {
	a := dated("a", "2026-03-01")
	a.EndDate = model.MustDate("2026-03-31")
	b := dated("b", "2026-03-31")
	c := Build([]model.Task{a, b}, NodeRange, highlight.Highlight{})

	rows := c.Rows()
	if rows[0].From != 0 || rows[0].To != 100 {
		t.Errorf("range row = %v..%v, want 0..100", rows[0].From, rows[0].To)
	}
	if rows[1].From != rows[1].To {
		t.Errorf("task without range should collapse: %v..%v", rows[1].From, rows[1].To)
	}
}

func TestBuild_RangeModeStartsAtStartDate(t *testing.T) {
	tk := dated("a", "2026-03-31")
	tk.StartDate = model.MustDate("2026-03-01")
	tk.EndDate = model.MustDate("2026-03-31")

	c := Build([]model.Task{tk}, NodeRange, highlight.Highlight{})
	if c.Window.Start.String() != "2026-03-01" {
		t.Errorf("window start = %s", c.Window.Start)
	}
	rows := c.Rows()
	if rows[0].From != 0 || rows[0].To != 100 {
		t.Errorf("range row = %v..%v, want 0..100", rows[0].From, rows[0].To)
	}
	if c.Groups[0].Month != model.MustDate("2026-03-31").MonthLabel() {
		t.Errorf("grouped under %q", c.Groups[0].Month)
	}

	single := Build([]model.Task{tk}, NodeSingle, highlight.Highlight{}).Rows()
	if single[0].From != 100 {
		t.Errorf("single mode should sit on the date, got %v", single[0].From)
	}
}

func TestWindowOf_IncludesStartBeforeDate(t *testing.T) {
	tk := dated("a", "2026-05-10")
	tk.StartDate = model.MustDate("2026-02-14")
	w, _ := WindowOf([]model.Task{tk})
	if w.Start.String() != "2026-02-01" {
		t.Errorf("start = %s, want 2026-02-01", w.Start)
	}
}

func TestBuild_DimsOutsideChain(t *testing.T) {
	tasks := []model.Task{dated("a", "2026-03-01"), dated("b", "2026-03-02", "a"), dated("c", "2026-03-03")}
	h := highlight.Derive(highlight.State{}.Tap("a"), tasks, highlight.ChainTransitive)
	rows := Build(tasks, NodeSingle, h).Rows()

	if rows[0].Opacity() != 1 || rows[1].Opacity() != 1 {
		t.Error("chain rows should be fully opaque")
	}
	if rows[2].Opacity() != RowOpacityDimmed {
		t.Errorf("unrelated row opacity = %v", rows[2].Opacity())
	}
}

func TestLinks(t *testing.T) {
	tasks := []model.Task{dated("a", ""), dated("b", "", "a"), dated("c", "", "b"), dated("d", "", "c", "hidden")}

	got := Links("c", tasks)
	want := []Link{{FromID: "b", ToID: "c"}, {FromID: "c", ToID: "d"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("links (-want +got):\n%s", diff)
	}
	if Links("hidden", tasks) != nil {
		t.Error("hidden focus should have no links")
	}
}

func TestParseNodeMode(t *testing.T) {
	if m, err := ParseNodeMode(""); err != nil || m != NodeSingle {
		t.Errorf("default = %q, %v", m, err)
	}
	if m, _ := ParseNodeMode("range"); m.Toggle() != NodeSingle {
		t.Error("toggle from range should give single")
	}
	if _, err := ParseNodeMode("bars"); err == nil {
		t.Error("expected error")
	}
}
