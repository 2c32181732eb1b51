// Package highlight tracks which task or dependency the user is pointing at
// and derives the active/dimmed classification every renderer consumes.
package highlight

import "fmt"

// EdgeKey identifies a dependency edge: From must finish before To.
type EdgeKey struct {
	From string `json:"fromId"`
	To   string `json:"toId"`
}

// IsZero reports whether the key names no edge.
func (k EdgeKey) IsZero() bool {
	return k.From == "" && k.To == ""
}

func (k EdgeKey) String() string {
	if k.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s->%s", k.From, k.To)
}

// Mode is the externally visible interaction state.
type Mode string

const (
	ModeIdle         Mode = "idle"
	ModeNodeHovered  Mode = "node-hovered"
	ModeNodeSelected Mode = "node-selected"
	ModeEdgeHovered  Mode = "edge-hovered"
	ModeEdgeSelected Mode = "edge-selected"
)

// State is the raw hover/selection state. Transitions return a new value;
// the zero State is idle.
type State struct {
	HoveredNode  string  `json:"hoveredNode,omitempty"`
	SelectedNode string  `json:"selectedNode,omitempty"`
	HoveredEdge  EdgeKey `json:"hoveredEdge,omitempty"`
	SelectedEdge EdgeKey `json:"selectedEdge,omitempty"`
}

// Mode resolves the state, selection taking precedence over hover.
func (s State) Mode() Mode {
	switch {
	case s.SelectedNode != "":
		return ModeNodeSelected
	case !s.SelectedEdge.IsZero():
		return ModeEdgeSelected
	case s.HoveredNode != "":
		return ModeNodeHovered
	case !s.HoveredEdge.IsZero():
		return ModeEdgeHovered
	}
	return ModeIdle
}

// HasSelection reports whether a node or an edge is selected.
func (s State) HasSelection() bool {
	return s.SelectedNode != "" || !s.SelectedEdge.IsZero()
}

// Hover points at a node. It is ignored while anything is selected. An
// empty id ends the hover.
func (s State) Hover(id string) State {
	if s.HasSelection() {
		return s
	}
	s.HoveredNode = id
	s.HoveredEdge = EdgeKey{}
	return s
}

// HoverEdge points at an edge. It is ignored while anything is selected.
func (s State) HoverEdge(k EdgeKey) State {
	if s.HasSelection() {
		return s
	}
	s.HoveredEdge = k
	s.HoveredNode = ""
	return s
}

// Tap toggles the selection of a node. Selecting a node drops any selected
// edge; either way hover is cleared.
func (s State) Tap(id string) State {
	if id == "" {
		return s
	}
	if s.SelectedNode == id {
		s.SelectedNode = ""
	} else {
		s.SelectedNode = id
		s.SelectedEdge = EdgeKey{}
	}
	s.HoveredNode = ""
	s.HoveredEdge = EdgeKey{}
	return s
}

// TapEdge toggles the selection of an edge and drops any selected node.
func (s State) TapEdge(k EdgeKey) State {
	if k.IsZero() {
		return s
	}
	if s.SelectedEdge == k {
		s.SelectedEdge = EdgeKey{}
	} else {
		s.SelectedEdge = k
	}
	s.SelectedNode = ""
	s.HoveredNode = ""
	s.HoveredEdge = EdgeKey{}
	return s
}

// ClearBackground drops every selection and hover.
func (s State) ClearBackground() State {
	return State{}
}

// FilterChanged drops every selection and hover, since the focus may have
// been filtered away.
func (s State) FilterChanged() State {
	return State{}
}
