// Package export renders the dependency map outside the terminal: SVG and
// PNG snapshots, the JSON rendering boundary, and a live preview server.
package export

import (
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/depgraph"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/filter"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// Scene is everything a renderer needs for one frame.
type Scene struct {
	Title      string
	Layout     depgraph.Layout
	Highlight  highlight.Highlight
	Tasks      map[string]model.Task
	Categories map[string]string
}

// SceneOptions select what is drawn and what is focused.
type SceneOptions struct {
	Criteria  filter.Criteria
	State     highlight.State
	ChainMode highlight.ChainMode
	// Geometry defaults to depgraph.Desktop when zero.
	Geometry depgraph.Geometry
	Title    string
}

// NewScene filters the snapshot, lays it out and classifies it.
func NewScene(snap model.Snapshot, opts SceneOptions) Scene {
	g := opts.Geometry
	if g.NodeWidth == 0 {
		g = depgraph.Desktop
	}
	visible := filter.Apply(snap.Tasks, opts.Criteria)
	tasks := make(map[string]model.Task, len(visible))
	for _, t := range visible {
		tasks[t.ID] = t
	}
	return Scene{
		Title:      opts.Title,
		Layout:     depgraph.Build(visible, g),
		Highlight:  highlight.Derive(opts.State, visible, opts.ChainMode),
		Tasks:      tasks,
		Categories: snap.Categories(),
	}
}

func (s Scene) color(category string) string {
	return model.CategoryColor(s.Categories, category)
}

// NodeDoc is one node of the JSON rendering boundary.
type NodeDoc struct {
	depgraph.NodePos
	Name      string `json:"name"`
	Category  string `json:"category"`
	Color     string `json:"color"`
	Status    string `json:"status"`
	Priority  string `json:"priority"`
	Date      string `json:"date,omitempty"`
	Milestone bool   `json:"milestone,omitempty"`
	highlight.NodeFlags
	Opacity float64 `json:"opacity"`
}

// EdgeDoc is one edge of the JSON rendering boundary.
type EdgeDoc struct {
	FromID   string  `json:"fromId"`
	ToID     string  `json:"toId"`
	Category string  `json:"category"`
	Color    string  `json:"color"`
	Path     string  `json:"path"`
	TrackX   float64 `json:"trackX"`
	highlight.EdgeFlags
	Opacity float64 `json:"opacity"`
}

// LayoutDoc is the full rendering boundary, as served by /api/layout and
// printed by --robot-layout.
type LayoutDoc struct {
	Width     float64             `json:"width"`
	Height    float64             `json:"height"`
	Mode      highlight.Mode      `json:"mode"`
	ChainMode highlight.ChainMode `json:"chainMode"`
	Focus     string              `json:"focus,omitempty"`
	FocusEdge *highlight.EdgeKey  `json:"focusEdge,omitempty"`
	Chain     []string            `json:"chain"`
	Nodes     []NodeDoc           `json:"nodes"`
	Edges     []EdgeDoc           `json:"edges"`
}

// Doc flattens the scene into its JSON form. Nodes follow input order.
func (s Scene) Doc() LayoutDoc {
	h := s.Highlight
	doc := LayoutDoc{
		Width:     s.Layout.Width,
		Height:    s.Layout.Height,
		Mode:      h.Mode,
		ChainMode: h.ChainMode,
		Focus:     h.FocusNode,
		Chain:     h.Chain.Sorted(),
		Nodes:     make([]NodeDoc, 0, len(s.Layout.Order)),
		Edges:     make([]EdgeDoc, 0, len(s.Layout.Edges)),
	}
	if !h.FocusEdge.IsZero() {
		k := h.FocusEdge
		doc.FocusEdge = &k
	}
	for _, id := range s.Layout.Order {
		t := s.Tasks[id]
		flags := h.Node(id)
		doc.Nodes = append(doc.Nodes, NodeDoc{
			NodePos:   s.Layout.Nodes[id],
			Name:      t.Name,
			Category:  t.Category,
			Color:     s.color(t.Category),
			Status:    string(t.Status),
			Priority:  string(t.Priority),
			Date:      t.Date.String(),
			Milestone: t.Milestone,
			NodeFlags: flags,
			Opacity:   flags.Opacity(),
		})
	}
	for _, e := range s.Layout.Edges {
		flags := h.Edge(e.FromID, e.ToID)
		doc.Edges = append(doc.Edges, EdgeDoc{
			FromID:    e.FromID,
			ToID:      e.ToID,
			Category:  e.Category,
			Color:     s.color(e.Category),
			Path:      e.Path.SVG(),
			TrackX:    e.TrackX,
			EdgeFlags: flags,
			Opacity:   flags.Opacity(),
		})
	}
	return doc
}
