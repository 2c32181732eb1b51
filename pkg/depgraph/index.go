package depgraph

import (
	"sort"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// Set is an unordered set of task ids.
type Set map[string]struct{}

// NewSet builds a set from ids.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership. A nil set contains nothing.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids.
func (s Set) Len() int { return len(s) }

// Sorted returns the ids in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Index is the visible dependency graph of a task slice.
//
// Preds keeps each task's BlockedBy order, restricted to visible ids with
// duplicates and self-references dropped. Succs lists dependents in the
// order they are discovered when walking the tasks in input order.
type Index struct {
	Order []string
	Tasks map[string]model.Task
	Preds map[string][]string
	Succs map[string][]string
}

// NewIndex builds the visible graph for tasks.
func NewIndex(tasks []model.Task) *Index {
	ix := &Index{
		Order: make([]string, 0, len(tasks)),
		Tasks: make(map[string]model.Task, len(tasks)),
		Preds: make(map[string][]string, len(tasks)),
		Succs: make(map[string][]string),
	}
	for _, t := range tasks {
		if _, dup := ix.Tasks[t.ID]; dup {
			continue
		}
		ix.Order = append(ix.Order, t.ID)
		ix.Tasks[t.ID] = t
	}
	for _, id := range ix.Order {
		seen := make(map[string]bool)
		for _, dep := range ix.Tasks[id].BlockedBy {
			if dep == id || seen[dep] {
				continue
			}
			if _, ok := ix.Tasks[dep]; !ok {
				continue
			}
			seen[dep] = true
			ix.Preds[id] = append(ix.Preds[id], dep)
			ix.Succs[dep] = append(ix.Succs[dep], id)
		}
	}
	return ix
}

// Has reports whether id is visible.
func (ix *Index) Has(id string) bool {
	_, ok := ix.Tasks[id]
	return ok
}

// EdgeCount returns the number of visible dependency edges.
func (ix *Index) EdgeCount() int {
	n := 0
	for _, p := range ix.Preds {
		n += len(p)
	}
	return n
}
