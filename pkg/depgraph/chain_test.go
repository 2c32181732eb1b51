package depgraph

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

func task(id string, deps ...string) model.Task {
	return model.Task{ID: id, Name: "Task " + id, BlockedBy: deps}
}

func TestResolveChain_Empty(t *testing.T) {
	tasks := []model.Task{task("A"), task("B", "A")}
	if got := ResolveChain("", tasks); got.Len() != 0 {
		t.Errorf("expected empty chain for no focus, got %v", got.Sorted())
	}
	if got := ResolveChain("missing", tasks); got.Len() != 0 {
		t.Errorf("expected empty chain for invisible focus, got %v", got.Sorted())
	}
}

func TestResolveChain_LinearChain(t *testing.T) {
	tasks := []model.Task{task("A"), task("B", "A"), task("C", "B")}

	got := ResolveChain("B", tasks).Sorted()
	if diff := cmp.Diff([]string{"A", "B", "C"}, got); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveChain_ExcludesSiblingBranches(t *testing.T) {
	// A -> B -> D, A -> C; chain of B must not contain C.
	tasks := []model.Task{task("A"), task("B", "A"), task("C", "A"), task("D", "B")}

	got := ResolveChain("B", tasks).Sorted()
	if diff := cmp.Diff([]string{"A", "B", "D"}, got); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveChain_CycleTerminates(t *testing.T) {
	tasks := []model.Task{task("X", "Y"), task("Y", "X")}

	got := ResolveChain("X", tasks).Sorted()
	if diff := cmp.Diff([]string{"X", "Y"}, got); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveChain_IgnoresDanglingReferences(t *testing.T) {
	tasks := []model.Task{task("A", "ghost"), task("B", "A")}

	got := ResolveChain("B", tasks)
	if got.Has("ghost") {
		t.Error("dangling reference leaked into chain")
	}
	if got.Len() != 2 {
		t.Errorf("expected {A,B}, got %v", got.Sorted())
	}
}

func TestResolveChain_Symmetry(t *testing.T) {
	tasks := []model.Task{
		task("A"), task("B", "A"), task("C", "A"), task("D", "B", "C"),
		task("E"), task("F", "E", "D"), task("G", "G"),
	}
	ix := NewIndex(tasks)
	for _, b := range ix.Order {
		for a := range ix.Chain(b) {
			if !ix.Chain(a).Has(b) && ix.Ancestors(b).Has(a) {
				t.Errorf("%s is an ancestor of %s but chain(%s) lacks %s", a, b, a, b)
			}
			if ix.Ancestors(b).Has(a) && !ix.Descendants(a).Has(b) {
				t.Errorf("%s ancestor of %s, but %s not a descendant of %s", a, b, b, a)
			}
		}
	}
}

func TestResolveChain_DoesNotMutateInput(t *testing.T) {
	tasks := []model.Task{task("A"), task("B", "A", "A")}
	before := tasks[1].Clone()

	ResolveChain("A", tasks)

	if diff := cmp.Diff(before, tasks[1]); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
}

func TestDirectNeighbors(t *testing.T) {
	tasks := []model.Task{task("A"), task("B", "A"), task("C", "B"), task("D", "C")}

	got := DirectNeighbors("B", tasks).Sorted()
	if diff := cmp.Diff([]string{"A", "B", "C"}, got); diff != "" {
		t.Errorf("neighbors mismatch (-want +got):\n%s", diff)
	}
	if DirectNeighbors("", tasks).Len() != 0 {
		t.Error("expected empty neighbor set without focus")
	}
}

func TestNewIndex_DedupesAndDropsSelfEdges(t *testing.T) {
	ix := NewIndex([]model.Task{task("A", "A"), task("B", "A", "A", "zzz")})

	if got := ix.Preds["A"]; len(got) != 0 {
		t.Errorf("self edge kept: %v", got)
	}
	if diff := cmp.Diff([]string{"A"}, ix.Preds["B"]); diff != "" {
		t.Errorf("preds mismatch (-want +got):\n%s", diff)
	}
	if ix.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", ix.EdgeCount())
	}
}
