package highlight

import "testing"

func TestTap_TogglesBackToIdle(t *testing.T) {
	var s State
	s = s.Tap("B")
	if s.Mode() != ModeNodeSelected || s.SelectedNode != "B" {
		t.Fatalf("after first tap: %+v", s)
	}
	s = s.Tap("B")
	if s.Mode() != ModeIdle {
		t.Fatalf("after second tap mode = %s, want idle", s.Mode())
	}
	if s != (State{}) {
		t.Errorf("expected zero state, got %+v", s)
	}
}

func TestTap_ReplacesSelectionAndClearsHover(t *testing.T) {
	s := State{}.Hover("A").Tap("B")
	if s.HoveredNode != "" {
		t.Errorf("tap should clear hover, got %q", s.HoveredNode)
	}
	s = s.Tap("C")
	if s.SelectedNode != "C" {
		t.Errorf("selected = %q, want C", s.SelectedNode)
	}
}

func TestHover_IgnoredDuringSelection(t *testing.T) {
	s := State{}.Tap("A").Hover("B")
	if s.HoveredNode != "" || s.Mode() != ModeNodeSelected {
		t.Errorf("hover leaked through a selection: %+v", s)
	}

	s = State{}.TapEdge(EdgeKey{"A", "B"}).Hover("C")
	if s.HoveredNode != "" {
		t.Errorf("hover leaked through an edge selection: %+v", s)
	}
	s = s.HoverEdge(EdgeKey{"B", "C"})
	if !s.HoveredEdge.IsZero() {
		t.Errorf("edge hover leaked through selection: %+v", s)
	}
}

func TestHover_NodeAndEdgeAreExclusive(t *testing.T) {
	s := State{}.HoverEdge(EdgeKey{"A", "B"})
	if s.Mode() != ModeEdgeHovered {
		t.Fatalf("mode = %s", s.Mode())
	}
	s = s.Hover("C")
	if !s.HoveredEdge.IsZero() || s.Mode() != ModeNodeHovered {
		t.Errorf("node hover should clear edge hover: %+v", s)
	}
	s = s.HoverEdge(EdgeKey{"A", "B"})
	if s.HoveredNode != "" {
		t.Errorf("edge hover should clear node hover: %+v", s)
	}
	if s.Hover("").Mode() != ModeIdle {
		t.Error("ending a hover should return to idle")
	}
}

func TestTapEdge_MutualExclusion(t *testing.T) {
	k := EdgeKey{From: "A", To: "B"}
	s := State{}.Tap("C").TapEdge(k)
	if s.SelectedNode != "" {
		t.Errorf("edge selection must clear node selection: %+v", s)
	}
	if s.Mode() != ModeEdgeSelected {
		t.Errorf("mode = %s", s.Mode())
	}

	s = s.Tap("C")
	if !s.SelectedEdge.IsZero() || s.SelectedNode != "C" {
		t.Errorf("node selection must clear edge selection: %+v", s)
	}

	s = State{}.TapEdge(k).TapEdge(k)
	if s.Mode() != ModeIdle {
		t.Errorf("second edge tap should toggle off, mode = %s", s.Mode())
	}
}

func TestClearing(t *testing.T) {
	busy := State{}.Hover("A").Tap("B")
	tests := []struct {
		name string
		fn   func(State) State
	}{
		{"background", State.ClearBackground},
		{"filter change", State.FilterChanged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(busy); got.Mode() != ModeIdle {
				t.Errorf("mode = %s, want idle", got.Mode())
			}
		})
	}
}

func TestEmptyTargetsAreNoOps(t *testing.T) {
	s := State{}.Tap("A")
	if s.Tap("") != s || s.TapEdge(EdgeKey{}) != s {
		t.Error("empty tap targets should not change state")
	}
}

func TestEdgeKeyString(t *testing.T) {
	if got := (EdgeKey{"A", "B"}).String(); got != "A->B" {
		t.Errorf("String() = %q", got)
	}
	if (EdgeKey{}).String() != "" {
		t.Error("zero key should print empty")
	}
}
