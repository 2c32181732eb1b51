package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/analysis"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/depgraph"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/filter"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/session"
)

// ChainDoc is the --robot-chain output.
type ChainDoc struct {
	Focus string              `json:"focus"`
	Name  string              `json:"name"`
	Mode  highlight.ChainMode `json:"mode"`
	// Highlighted is what the viewer lights up in Mode.
	Highlighted []string `json:"highlighted"`
	Ancestors   []string `json:"ancestors"`
	Descendants []string `json:"descendants"`
	Blockers    []string `json:"blockers"`
	Dependents  []string `json:"dependents"`
}

// CyclesDoc is the --robot-cycles output.
type CyclesDoc struct {
	analysis.Report
	Problems bool                    `json:"problems"`
	Phases   []analysis.PhaseStats   `json:"phases"`
	Flow     analysis.CrossPhaseFlow `json:"cross_phase_flow"`
}

// chainReport resolves the chain of id among the tasks matching c.
func chainReport(snap model.Snapshot, id string, c filter.Criteria, mode string) (ChainDoc, error) {
	cm, err := highlight.ParseChainMode(mode)
	if err != nil {
		return ChainDoc{}, err
	}
	visible := filter.Apply(snap.Tasks, c)
	ix := depgraph.NewIndex(visible)
	if !ix.Has(id) {
		if _, ok := snap.Task(id); ok {
			return ChainDoc{}, fmt.Errorf("task %q is hidden by the current filter", id)
		}
		return ChainDoc{}, fmt.Errorf("task %q not found", id)
	}

	hl := ix.Chain(id)
	if cm == highlight.ChainDirect {
		hl = ix.Neighbors(id)
	}
	t, _ := snap.Task(id)
	return ChainDoc{
		Focus:       id,
		Name:        t.Name,
		Mode:        cm,
		Highlighted: hl.Sorted(),
		Ancestors:   ix.Ancestors(id).Sorted(),
		Descendants: ix.Descendants(id).Sorted(),
		Blockers:    depgraph.NewSet(ix.Preds[id]...).Sorted(),
		Dependents:  depgraph.NewSet(ix.Succs[id]...).Sorted(),
	}, nil
}

// cyclesReport runs the graph diagnostics over every task, filtered or not.
func cyclesReport(snap model.Snapshot) CyclesDoc {
	r := analysis.Analyze(snap.Tasks)
	return CyclesDoc{
		Report:   r,
		Problems: r.HasProblems(),
		Phases:   analysis.ExtractPhaseStats(snap.Tasks, snap.Phases),
		Flow:     analysis.ComputeCrossPhaseFlow(snap.Tasks, snap.Phases),
	}
}

// loadedSnapshot refuses to hand out data that is not fully loaded.
func loadedSnapshot(s session.State) (model.Snapshot, error) {
	switch {
	case s.LoadErr != nil:
		return model.Snapshot{}, s.LoadErr
	case !s.Ready():
		return model.Snapshot{}, errors.New("roadmap is still loading")
	}
	return s.Snapshot, nil
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "rmv: encoding output: %v\n", err)
		return exitError
	}
	return exitOK
}
