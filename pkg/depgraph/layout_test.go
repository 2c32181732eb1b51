package depgraph

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBuild_Empty(t *testing.T) {
	l := Build(nil, Desktop)
	if len(l.Nodes) != 0 || len(l.Edges) != 0 {
		t.Fatalf("expected empty layout, got %d nodes %d edges", len(l.Nodes), len(l.Edges))
	}
	if l.Width != 40 || l.Height != 40 {
		t.Errorf("empty extent = %vx%v, want 40x40", l.Width, l.Height)
	}
}

func TestBuild_SingleNode(t *testing.T) {
	l := Build([]model.Task{task("A")}, Desktop)
	pos := l.Nodes["A"]
	if pos.X != 20 || pos.Y != 20 || pos.Column != 0 || pos.Row != 0 {
		t.Errorf("unexpected position %+v", pos)
	}
	if l.Width != 300 || l.Height != 110 {
		t.Errorf("extent = %vx%v, want 300x110", l.Width, l.Height)
	}
}

func TestBuild_LinearChain(t *testing.T) {
	l := Build([]model.Task{task("A"), task("B", "A"), task("C", "B")}, Desktop)

	wantX := map[string]float64{"A": 20, "B": 280, "C": 540}
	for id, x := range wantX {
		if l.Nodes[id].X != x || l.Nodes[id].Row != 0 {
			t.Errorf("%s at %+v, want x=%v row 0", id, l.Nodes[id], x)
		}
	}
	if len(l.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(l.Edges))
	}
	e := l.Edges[0]
	if e.FromID != "A" || e.ToID != "B" {
		t.Fatalf("first edge = %v", e.Key())
	}
	if e.TrackCount != 1 || !near(e.TrackX, 230) {
		t.Errorf("single track should be centred: count=%d x=%v", e.TrackCount, e.TrackX)
	}
	if e.ExitFrac != 0.5 || e.EntryFrac != 0.5 {
		t.Errorf("lone edge fractions = %v/%v, want 0.5", e.ExitFrac, e.EntryFrac)
	}
	if !e.Path.IsStraight() {
		t.Errorf("level edge should be straight: %s", e.Path.SVG())
	}
	if e.From != (Point{180, 43}) || e.To != (Point{280, 43}) {
		t.Errorf("endpoints %+v -> %+v", e.From, e.To)
	}
}

func TestBuild_Diamond(t *testing.T) {
	l := Build([]model.Task{task("A"), task("B", "A"), task("C", "A"), task("D", "B", "C")}, Desktop)

	if diff := cmp.Diff([][]string{{"A"}, {"B", "C"}, {"D"}}, l.ColumnRows); diff != "" {
		t.Errorf("column rows mismatch (-want +got):\n%s", diff)
	}

	into := l.EdgesInto("D")
	if len(into) != 2 {
		t.Fatalf("expected 2 edges into D, got %d", len(into))
	}
	if !near(into[0].EntryFrac, 0.2) || !near(into[1].EntryFrac, 0.8) {
		t.Errorf("entry fractions = %v, %v; want 0.2, 0.8", into[0].EntryFrac, into[1].EntryFrac)
	}

	from := l.EdgesFrom("A")
	if len(from) != 2 {
		t.Fatalf("expected 2 edges from A, got %d", len(from))
	}
	if !near(from[0].ExitFrac, 0.2) || !near(from[1].ExitFrac, 0.8) {
		t.Errorf("exit fractions = %v, %v; want 0.2, 0.8", from[0].ExitFrac, from[1].ExitFrac)
	}
	if !near(from[0].TrackX, 226) || !near(from[1].TrackX, 234) {
		t.Errorf("tracks = %v, %v; want 226, 234", from[0].TrackX, from[1].TrackX)
	}
	if got := len(l.EdgesOf("B")); got != 2 {
		t.Errorf("EdgesOf(B) = %d, want 2", got)
	}
}

func TestBuild_RowsSortedByDateAbsentLast(t *testing.T) {
	a := task("undated", "root")
	b := task("late", "root")
	b.Date = model.MustDate("2025-03-01")
	c := task("early", "root")
	c.Date = model.MustDate("2025-01-15")

	l := Build([]model.Task{task("root"), a, b, c}, Desktop)
	want := []string{"early", "late", "undated"}
	if diff := cmp.Diff(want, l.ColumnRows[1]); diff != "" {
		t.Errorf("row order mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_ManyTracksStayInsideCorridor(t *testing.T) {
	tasks := []model.Task{task("root")}
	for i := 0; i < 20; i++ {
		tasks = append(tasks, task(string(rune('a'+i)), "root"))
	}
	l := Build(tasks, Desktop)

	left, right := 20+160+6.0, 260+20-6.0
	prev := math.Inf(-1)
	for _, e := range l.Edges {
		if e.TrackCount != 20 {
			t.Fatalf("track count = %d, want 20", e.TrackCount)
		}
		if e.TrackX < left || e.TrackX > right {
			t.Errorf("track %d at %v escapes corridor [%v,%v]", e.TrackIndex, e.TrackX, left, right)
		}
		if e.TrackX <= prev {
			t.Errorf("tracks not increasing at %d", e.TrackIndex)
		}
		prev = e.TrackX
	}
}

func TestBuild_TracksAreUniquePerCorridor(t *testing.T) {
	tasks := []model.Task{
		task("A"), task("B"), task("C", "A", "B"), task("D", "A"), task("E", "C", "D"),
	}
	l := Build(tasks, Desktop)
	seen := make(map[[2]int]bool)
	for _, e := range l.Edges {
		k := [2]int{l.Nodes[e.FromID].Column, e.TrackIndex}
		if seen[k] {
			t.Errorf("corridor %d reuses track %d", k[0], k[1])
		}
		seen[k] = true
		if e.TrackIndex >= e.TrackCount {
			t.Errorf("track index %d out of %d", e.TrackIndex, e.TrackCount)
		}
	}
}

func TestBuild_DanglingReferencesDrawNothing(t *testing.T) {
	l := Build([]model.Task{task("A", "hidden"), task("B", "A")}, Desktop)
	for _, e := range l.Edges {
		if e.FromID == "hidden" || e.ToID == "hidden" {
			t.Errorf("edge touches hidden task: %v", e.Key())
		}
	}
	if len(l.Edges) != 1 {
		t.Errorf("expected 1 edge, got %d", len(l.Edges))
	}
}

func TestBuild_Idempotent(t *testing.T) {
	tasks := []model.Task{
		task("A"), task("B", "A"), task("C", "A"), task("D", "B", "C"), task("E", "D", "A"),
	}
	first := Build(tasks, Compact)
	second := Build(tasks, Compact)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("layout not deterministic (-first +second):\n%s", diff)
	}
}

func TestGeometryFor(t *testing.T) {
	if g, err := GeometryFor("compact"); err != nil || g.NodeWidth != 130 {
		t.Errorf("compact = %+v, %v", g, err)
	}
	if g, err := GeometryFor(""); err != nil || g.NodeWidth != 160 {
		t.Errorf("default = %+v, %v", g, err)
	}
	if _, err := GeometryFor("tiny"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestAttachFraction(t *testing.T) {
	if AttachFraction(0, 1) != 0.5 {
		t.Error("single edge should attach at midpoint")
	}
	if !near(AttachFraction(1, 3), 0.5) || !near(AttachFraction(2, 3), 0.8) {
		t.Error("unexpected spread for three edges")
	}
}
