package analysis

import (
	"sort"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// ============================================================================
// Phase statistics
// ============================================================================

// PhaseStats aggregates the tasks of one phase.
type PhaseStats struct {
	Phase      string                 `json:"phase"`
	TotalCount int                    `json:"total_count"`
	DoneCount  int                    `json:"done_count"`
	InProgress int                    `json:"in_progress"`
	Waiting    int                    `json:"waiting"`
	Blocked    int                    `json:"blocked"` // Not done, with an unfinished blocker
	Milestones int                    `json:"milestones"`
	ByPriority map[model.Priority]int `json:"by_priority"`
	TaskIDs    []string               `json:"task_ids"`
}

// Progress returns the done share in [0,1]; empty phases report 0.
func (s PhaseStats) Progress() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.DoneCount) / float64(s.TotalCount)
}

// ExtractPhaseStats groups tasks by phase. Phases appear in the order given
// by phases, then any category seen only on tasks (sorted). Tasks without a
// category are grouped under "".
func ExtractPhaseStats(tasks []model.Task, phases []model.Phase) []PhaseStats {
	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	stats := make(map[string]*PhaseStats)
	get := func(name string) *PhaseStats {
		s, ok := stats[name]
		if !ok {
			s = &PhaseStats{
				Phase:      name,
				ByPriority: make(map[model.Priority]int),
				TaskIDs:    []string{},
			}
			stats[name] = s
		}
		return s
	}
	for _, p := range phases {
		get(p.Name)
	}

	for _, t := range tasks {
		s := get(t.Category)
		s.TotalCount++
		s.TaskIDs = append(s.TaskIDs, t.ID)
		s.ByPriority[t.Priority]++
		if t.Milestone {
			s.Milestones++
		}
		switch t.Status {
		case model.StatusDone:
			s.DoneCount++
		case model.StatusInProgress:
			s.InProgress++
		case model.StatusWaiting:
			s.Waiting++
		}
		if !t.Status.IsDone() && hasOpenBlocker(t, byID) {
			s.Blocked++
		}
	}

	out := make([]PhaseStats, 0, len(stats))
	seen := make(map[string]bool)
	for _, p := range phases {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, *stats[p.Name])
	}
	var extra []string
	for name := range stats {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out = append(out, *stats[name])
	}
	return out
}

func hasOpenBlocker(t model.Task, byID map[string]model.Task) bool {
	for _, dep := range t.BlockedBy {
		if b, ok := byID[dep]; ok && dep != t.ID && !b.Status.IsDone() {
			return true
		}
	}
	return false
}

// ============================================================================
// Cross-phase flow
// ============================================================================

// BlockingPair is one dependency crossing a phase boundary.
type BlockingPair struct {
	BlockerID    string `json:"blocker_id"`    // Task doing the blocking
	BlockedID    string `json:"blocked_id"`    // Task being blocked
	BlockerPhase string `json:"blocker_phase"` // Phase of blocker
	BlockedPhase string `json:"blocked_phase"` // Phase of blocked
}

// PhaseDependency aggregates the pairs between two phases.
type PhaseDependency struct {
	FromPhase string         `json:"from_phase"`
	ToPhase   string         `json:"to_phase"`
	Count     int            `json:"count"`
	Pairs     []BlockingPair `json:"pairs,omitempty"`
}

// CrossPhaseFlow captures how work in one phase waits on another.
type CrossPhaseFlow struct {
	Phases       []string          `json:"phases"`      // Row/column labels of the matrix
	FlowMatrix   [][]int           `json:"flow_matrix"` // [from][to] dependency counts
	Dependencies []PhaseDependency `json:"dependencies"`
	TotalCross   int               `json:"total_cross_phase_deps"`
}

// ComputeCrossPhaseFlow counts dependencies whose endpoints sit in
// different phases. Dangling references are skipped.
func ComputeCrossPhaseFlow(tasks []model.Task, phases []model.Phase) CrossPhaseFlow {
	stats := ExtractPhaseStats(tasks, phases)
	flow := CrossPhaseFlow{
		Phases:       make([]string, len(stats)),
		FlowMatrix:   make([][]int, len(stats)),
		Dependencies: []PhaseDependency{},
	}
	index := make(map[string]int, len(stats))
	for i, s := range stats {
		flow.Phases[i] = s.Phase
		flow.FlowMatrix[i] = make([]int, len(stats))
		index[s.Phase] = i
	}

	byID := make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	deps := make(map[[2]int]*PhaseDependency)
	for _, t := range tasks {
		for _, dep := range t.BlockedBy {
			blocker, ok := byID[dep]
			if !ok || blocker.Category == t.Category {
				continue
			}
			from, to := index[blocker.Category], index[t.Category]
			flow.FlowMatrix[from][to]++
			flow.TotalCross++

			key := [2]int{from, to}
			d, ok := deps[key]
			if !ok {
				d = &PhaseDependency{FromPhase: blocker.Category, ToPhase: t.Category}
				deps[key] = d
			}
			d.Count++
			d.Pairs = append(d.Pairs, BlockingPair{
				BlockerID:    blocker.ID,
				BlockedID:    t.ID,
				BlockerPhase: blocker.Category,
				BlockedPhase: t.Category,
			})
		}
	}

	keys := make([][2]int, 0, len(deps))
	for k := range deps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if deps[keys[i]].Count != deps[keys[j]].Count {
			return deps[keys[i]].Count > deps[keys[j]].Count
		}
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, k := range keys {
		flow.Dependencies = append(flow.Dependencies, *deps[k])
	}
	return flow
}
