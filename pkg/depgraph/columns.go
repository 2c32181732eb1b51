package depgraph

import "github.com/Dicklesworthstone/roadmap_viewer/pkg/model"

type visitState uint8

const (
	visitNew visitState = iota
	visitActive
	visitDone
)

// AssignColumns maps every visible task to its topological column: 0 when
// it has no visible predecessors, otherwise one more than the largest
// column among them.
//
// When a predecessor is still on the resolution stack the edge closes a
// cycle and is ignored. Tasks are resolved in input order, so the edge that
// gets dropped is deterministic for a given task slice.
func AssignColumns(tasks []model.Task) map[string]int {
	return NewIndex(tasks).Columns()
}

// Columns is AssignColumns over a prebuilt index.
func (ix *Index) Columns() map[string]int {
	cols := make(map[string]int, len(ix.Order))
	state := make(map[string]visitState, len(ix.Order))
	for _, id := range ix.Order {
		ix.resolveColumn(id, cols, state)
	}
	return cols
}

// resolveColumn returns -1 for a task that is mid-resolution (a back-edge).
func (ix *Index) resolveColumn(id string, cols map[string]int, state map[string]visitState) int {
	switch state[id] {
	case visitDone:
		return cols[id]
	case visitActive:
		return -1
	}
	state[id] = visitActive
	col := 0
	for _, dep := range ix.Preds[id] {
		if c := ix.resolveColumn(dep, cols, state); c >= 0 && c+1 > col {
			col = c + 1
		}
	}
	state[id] = visitDone
	cols[id] = col
	return col
}
