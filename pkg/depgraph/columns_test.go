package depgraph

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

func TestAssignColumns_Scenarios(t *testing.T) {
	tests := []struct {
		name  string
		tasks []model.Task
		want  map[string]int
	}{
		{
			name:  "linear chain",
			tasks: []model.Task{task("A"), task("B", "A"), task("C", "B")},
			want:  map[string]int{"A": 0, "B": 1, "C": 2},
		},
		{
			name:  "diamond",
			tasks: []model.Task{task("A"), task("B", "A"), task("C", "A"), task("D", "B", "C")},
			want:  map[string]int{"A": 0, "B": 1, "C": 1, "D": 2},
		},
		{
			name:  "longest path wins",
			tasks: []model.Task{task("D", "A", "C"), task("A"), task("B", "A"), task("C", "B")},
			want:  map[string]int{"A": 0, "B": 1, "C": 2, "D": 3},
		},
		{
			name:  "dangling reference ignored",
			tasks: []model.Task{task("A", "filtered-out"), task("B", "A")},
			want:  map[string]int{"A": 0, "B": 1},
		},
		{
			name:  "single task",
			tasks: []model.Task{task("solo")},
			want:  map[string]int{"solo": 0},
		},
		{
			name:  "empty",
			tasks: nil,
			want:  map[string]int{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignColumns(tt.tasks)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("columns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssignColumns_CycleTerminatesDeterministically(t *testing.T) {
	tasks := []model.Task{task("X", "Y"), task("Y", "X")}

	got := AssignColumns(tasks)
	// Resolving X first leaves Y's edge back to X as the ignored back-edge.
	want := map[string]int{"X": 1, "Y": 0}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignColumns_LongerCycleWithTail(t *testing.T) {
	tasks := []model.Task{task("A", "C"), task("B", "A"), task("C", "B"), task("D", "C")}

	got := AssignColumns(tasks)
	if len(got) != 4 {
		t.Fatalf("expected all 4 tasks assigned, got %v", got)
	}
	if got["D"] <= got["C"] {
		t.Errorf("D must sit right of C: %v", got)
	}
}

func TestAssignColumns_Monotonic(t *testing.T) {
	tasks := []model.Task{
		task("A"), task("B", "A"), task("C", "A", "B"), task("D", "C"),
		task("E", "B", "D"), task("F"), task("G", "F", "E"),
	}
	cols := AssignColumns(tasks)
	for _, tk := range tasks {
		for _, dep := range tk.BlockedBy {
			if cols[dep] >= cols[tk.ID] {
				t.Errorf("edge %s->%s not monotonic: %d >= %d", dep, tk.ID, cols[dep], cols[tk.ID])
			}
		}
	}
}

func TestAssignColumns_StableUnderIrrelevantFiltering(t *testing.T) {
	full := []model.Task{task("A"), task("lonely"), task("B", "A"), task("C", "B")}
	filtered := []model.Task{full[0], full[2], full[3]}

	before := AssignColumns(full)
	after := AssignColumns(filtered)
	for id, col := range after {
		if before[id] != col {
			t.Errorf("column of %s changed from %d to %d", id, before[id], col)
		}
	}
}

func TestAssignColumns_FilteringPrunesConstraints(t *testing.T) {
	// Hiding B detaches C from A entirely.
	tasks := []model.Task{task("A"), task("C", "B")}
	got := AssignColumns(tasks)
	if got["C"] != 0 {
		t.Errorf("C should fall back to column 0 when B is hidden, got %d", got["C"])
	}
}
