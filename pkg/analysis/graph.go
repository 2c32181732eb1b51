// Package analysis reports structural facts about the dependency graph:
// cycles, dangling references, roots and leaves, and cross-phase flow.
// Layout never depends on it; the results feed robot output and the
// status bar.
package analysis

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// ============================================================================
// Graph construction
// ============================================================================

// DependencyGraph wraps a gonum directed graph over task ids. Edges run
// from the blocking task to the blocked one.
type DependencyGraph struct {
	g     *simple.DirectedGraph
	ids   []string         // node id -> task id
	nodes map[string]int64 // task id -> node id

	// Dangling holds references to ids that are not in the task set.
	Dangling []DanglingRef
	// SelfLoops holds tasks that list themselves in BlockedBy.
	SelfLoops []string
}

// DanglingRef is a blockedBy entry that names no known task.
type DanglingRef struct {
	TaskID  string `json:"task_id"` // Task carrying the reference
	Missing string `json:"missing"` // Referenced id that does not exist
}

// NewDependencyGraph builds the graph for tasks. Duplicate references
// collapse to one edge.
func NewDependencyGraph(tasks []model.Task) *DependencyGraph {
	dg := &DependencyGraph{
		g:     simple.NewDirectedGraph(),
		nodes: make(map[string]int64, len(tasks)),
	}
	for _, t := range tasks {
		if _, ok := dg.nodes[t.ID]; ok {
			continue
		}
		id := int64(len(dg.ids))
		dg.ids = append(dg.ids, t.ID)
		dg.nodes[t.ID] = id
		dg.g.AddNode(simple.Node(id))
	}
	for _, t := range tasks {
		to := dg.nodes[t.ID]
		for _, dep := range t.BlockedBy {
			if dep == t.ID {
				dg.SelfLoops = append(dg.SelfLoops, t.ID)
				continue
			}
			from, ok := dg.nodes[dep]
			if !ok {
				dg.Dangling = append(dg.Dangling, DanglingRef{TaskID: t.ID, Missing: dep})
				continue
			}
			if dg.g.HasEdgeFromTo(from, to) {
				continue
			}
			dg.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}
	return dg
}

// Len returns the number of tasks in the graph.
func (dg *DependencyGraph) Len() int {
	return len(dg.ids)
}

// EdgeCount returns the number of distinct dependency edges.
func (dg *DependencyGraph) EdgeCount() int {
	return dg.g.Edges().Len()
}

// Reaches reports whether to transitively depends on from.
func (dg *DependencyGraph) Reaches(from, to string) bool {
	f, ok1 := dg.nodes[from]
	t, ok2 := dg.nodes[to]
	if !ok1 || !ok2 || from == to {
		return false
	}
	return topo.PathExistsIn(dg.g, simple.Node(f), simple.Node(t))
}

// Cycles lists every elementary dependency cycle. Each cycle starts at its
// member that comes first in load order; cycles are sorted by that start
// and then by length.
func (dg *DependencyGraph) Cycles() [][]string {
	raw := topo.DirectedCyclesIn(dg.g)
	out := make([][]string, 0, len(raw))
	for _, c := range raw {
		// gonum repeats the first node at the end.
		if len(c) > 1 && c[0].ID() == c[len(c)-1].ID() {
			c = c[:len(c)-1]
		}
		out = append(out, dg.rotate(c))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := dg.nodes[out[i][0]], dg.nodes[out[j][0]]
		if a != b {
			return a < b
		}
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		for k := range out[i] {
			if out[i][k] != out[j][k] {
				return dg.nodes[out[i][k]] < dg.nodes[out[j][k]]
			}
		}
		return false
	})
	return out
}

func (dg *DependencyGraph) rotate(c []graph.Node) []string {
	start := 0
	for i, n := range c {
		if n.ID() < c[start].ID() {
			start = i
		}
	}
	ids := make([]string, 0, len(c))
	for i := range c {
		ids = append(ids, dg.ids[c[(start+i)%len(c)].ID()])
	}
	return ids
}

// ErrCyclic is returned by TopoOrder when the graph has a cycle.
var ErrCyclic = errors.New("dependency graph contains a cycle")

// TopoOrder returns task ids so that every task follows its blockers.
// Independent tasks keep load order.
func (dg *DependencyGraph) TopoOrder() ([]string, error) {
	sorted, err := topo.SortStabilized(dg.g, byID)
	if err != nil {
		var unorderable topo.Unorderable
		if errors.As(err, &unorderable) {
			return nil, ErrCyclic
		}
		return nil, err
	}
	out := make([]string, len(sorted))
	for i, n := range sorted {
		out[i] = dg.ids[n.ID()]
	}
	return out, nil
}

func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

// Roots returns tasks with no known blockers, in load order.
func (dg *DependencyGraph) Roots() []string {
	var out []string
	for i, id := range dg.ids {
		if dg.g.To(int64(i)).Len() == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Leaves returns tasks that block nothing, in load order.
func (dg *DependencyGraph) Leaves() []string {
	var out []string
	for i, id := range dg.ids {
		if dg.g.From(int64(i)).Len() == 0 {
			out = append(out, id)
		}
	}
	return out
}

// ============================================================================
// Report
// ============================================================================

// Report summarises graph health for robot output.
type Report struct {
	TaskCount int           `json:"task_count"`
	EdgeCount int           `json:"edge_count"`
	Roots     []string      `json:"roots"`
	Leaves    []string      `json:"leaves"`
	Cycles    [][]string    `json:"cycles"`
	SelfLoops []string      `json:"self_loops,omitempty"`
	Dangling  []DanglingRef `json:"dangling,omitempty"`
	// Order is a valid execution order; empty when the graph is cyclic.
	Order []string `json:"order,omitempty"`
}

// HasProblems reports whether anything in the report needs attention.
func (r Report) HasProblems() bool {
	return len(r.Cycles) > 0 || len(r.SelfLoops) > 0 || len(r.Dangling) > 0
}

// Analyze builds the full report for tasks.
func Analyze(tasks []model.Task) Report {
	dg := NewDependencyGraph(tasks)
	r := Report{
		TaskCount: dg.Len(),
		EdgeCount: dg.EdgeCount(),
		Roots:     nonNil(dg.Roots()),
		Leaves:    nonNil(dg.Leaves()),
		Cycles:    dg.Cycles(),
		SelfLoops: dg.SelfLoops,
		Dangling:  dg.Dangling,
	}
	if order, err := dg.TopoOrder(); err == nil {
		r.Order = order
	}
	return r
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
