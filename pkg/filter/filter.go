// Package filter narrows the task list by name search and phase.
package filter

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// AllPhases disables phase filtering.
const AllPhases = "All"

// Criteria selects the visible tasks.
type Criteria struct {
	Search string `json:"search,omitempty" yaml:"search,omitempty"`
	// Phase is a phase name or AllPhases; empty means AllPhases.
	Phase string `json:"phase,omitempty" yaml:"phase,omitempty"`
	// Fuzzy switches name matching from substring to fuzzy.
	Fuzzy bool `json:"fuzzy,omitempty" yaml:"fuzzy,omitempty"`
}

// IsZero reports whether the criteria keep every task.
func (c Criteria) IsZero() bool {
	return strings.TrimSpace(c.Search) == "" && (c.Phase == "" || c.Phase == AllPhases)
}

// Equal compares criteria after normalising the phase.
func (c Criteria) Equal(o Criteria) bool {
	return c.Search == o.Search && c.Fuzzy == o.Fuzzy && c.phase() == o.phase()
}

func (c Criteria) phase() string {
	if c.Phase == "" {
		return AllPhases
	}
	return c.Phase
}

// Apply returns the tasks matching c in their original order.
func Apply(tasks []model.Task, c Criteria) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	if c.IsZero() {
		return append(out, tasks...)
	}

	query := strings.TrimSpace(c.Search)
	var fuzzyHits map[int]bool
	if query != "" && c.Fuzzy {
		fuzzyHits = make(map[int]bool)
		for _, m := range fuzzy.FindFrom(query, names(tasks)) {
			fuzzyHits[m.Index] = true
		}
	}
	lower := strings.ToLower(query)

	for i, t := range tasks {
		if p := c.phase(); p != AllPhases && t.Category != p {
			continue
		}
		if query != "" {
			if fuzzyHits != nil {
				if !fuzzyHits[i] {
					continue
				}
			} else if !strings.Contains(strings.ToLower(t.Name), lower) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

type names []model.Task

func (n names) String(i int) string { return n[i].Name }
func (n names) Len() int            { return len(n) }

// PhaseOptions lists "All" followed by the phase names, for a selector.
func PhaseOptions(phases []model.Phase) []string {
	out := make([]string, 0, len(phases)+1)
	out = append(out, AllPhases)
	for _, p := range phases {
		out = append(out, p.Name)
	}
	return out
}

// NextPhase cycles through PhaseOptions after current.
func NextPhase(phases []model.Phase, current string) string {
	opts := PhaseOptions(phases)
	for i, o := range opts {
		if o == current {
			return opts[(i+1)%len(opts)]
		}
	}
	return AllPhases
}
