package highlight

import (
	"fmt"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/depgraph"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// ChainMode selects how far a node focus reaches.
type ChainMode string

const (
	// ChainTransitive highlights every ancestor and descendant.
	ChainTransitive ChainMode = "chain"
	// ChainDirect highlights one hop in each direction.
	ChainDirect ChainMode = "direct"
)

// IsValid reports whether m is a known mode.
func (m ChainMode) IsValid() bool {
	return m == ChainTransitive || m == ChainDirect
}

// ParseChainMode accepts "chain" (or empty) and "direct".
func ParseChainMode(s string) (ChainMode, error) {
	switch ChainMode(s) {
	case "", ChainTransitive:
		return ChainTransitive, nil
	case ChainDirect:
		return ChainDirect, nil
	}
	return "", fmt.Errorf("unknown highlight mode %q", s)
}

// Display opacities.
const (
	EdgeOpacityDimmed  = 0.08
	EdgeOpacityActive  = 1.0
	EdgeOpacityNeutral = 0.4
	NodeOpacityDimmed  = 0.2
	NodeOpacityNormal  = 1.0
)

// NodeFlags classifies one visible task.
type NodeFlags struct {
	InChain  bool `json:"inChain"`
	Active   bool `json:"isActive"`
	Dimmed   bool `json:"isDimmed"`
	Selected bool `json:"isSelected"`
	Hovered  bool `json:"isHovered"`
	// Endpoint marks the two ends of a focused edge.
	Endpoint bool `json:"isEndpoint,omitempty"`
}

// Opacity maps the flags to a display opacity.
func (f NodeFlags) Opacity() float64 {
	if f.Dimmed {
		return NodeOpacityDimmed
	}
	return NodeOpacityNormal
}

// EdgeFlags classifies one visible edge.
type EdgeFlags struct {
	Active   bool `json:"isActive"`
	Dimmed   bool `json:"isDimmed"`
	Selected bool `json:"isSelected"`
	Hovered  bool `json:"isHovered"`
}

// Opacity maps the flags to a display opacity.
func (f EdgeFlags) Opacity() float64 {
	switch {
	case f.Active:
		return EdgeOpacityActive
	case f.Dimmed:
		return EdgeOpacityDimmed
	}
	return EdgeOpacityNeutral
}

// Highlight is the classification derived from a State over the visible
// tasks.
type Highlight struct {
	Mode      Mode      `json:"mode"`
	ChainMode ChainMode `json:"chainMode"`
	// FocusNode is the node focus (selection before hover), if visible.
	FocusNode string `json:"focusNode,omitempty"`
	// FocusEdge is the edge focus, if both ends are visible.
	FocusEdge EdgeKey      `json:"focusEdge,omitempty"`
	Chain     depgraph.Set `json:"-"`
	Endpoints depgraph.Set `json:"-"`

	Nodes map[string]NodeFlags `json:"nodes"`
	Edges map[EdgeKey]EdgeFlags `json:"-"`
}

// HasFocus reports whether anything is focused, i.e. whether inactive
// elements are dimmed.
func (h Highlight) HasFocus() bool {
	return h.Chain.Len() > 0 || h.Endpoints.Len() > 0
}

// Node returns the flags of a task; unknown ids get zero flags.
func (h Highlight) Node(id string) NodeFlags {
	return h.Nodes[id]
}

// Edge returns the flags of an edge; unknown edges get zero flags.
func (h Highlight) Edge(from, to string) EdgeFlags {
	return h.Edges[EdgeKey{From: from, To: to}]
}

// ActiveNodes lists active task ids, sorted.
func (h Highlight) ActiveNodes() []string {
	set := depgraph.NewSet()
	for id, f := range h.Nodes {
		if f.Active {
			set[id] = struct{}{}
		}
	}
	return set.Sorted()
}

// Derive classifies every visible task and edge. It is a pure function of
// its inputs.
func Derive(s State, tasks []model.Task, mode ChainMode) Highlight {
	return DeriveIndex(s, depgraph.NewIndex(tasks), mode)
}

// DeriveIndex is Derive over a prebuilt index.
func DeriveIndex(s State, ix *depgraph.Index, mode ChainMode) Highlight {
	if !mode.IsValid() {
		mode = ChainTransitive
	}
	h := Highlight{
		Mode:      s.Mode(),
		ChainMode: mode,
		Chain:     depgraph.NewSet(),
		Endpoints: depgraph.NewSet(),
		Nodes:     make(map[string]NodeFlags, len(ix.Order)),
		Edges:     make(map[EdgeKey]EdgeFlags, ix.EdgeCount()),
	}

	switch h.Mode {
	case ModeNodeSelected:
		h.FocusNode = s.SelectedNode
	case ModeNodeHovered:
		h.FocusNode = s.HoveredNode
	case ModeEdgeSelected:
		h.FocusEdge = s.SelectedEdge
	case ModeEdgeHovered:
		h.FocusEdge = s.HoveredEdge
	}
	if !ix.Has(h.FocusNode) {
		h.FocusNode = ""
	}
	if !ix.Has(h.FocusEdge.From) || !ix.Has(h.FocusEdge.To) {
		h.FocusEdge = EdgeKey{}
	}

	if h.FocusNode != "" {
		if mode == ChainDirect {
			h.Chain = ix.Neighbors(h.FocusNode)
		} else {
			h.Chain = ix.Chain(h.FocusNode)
		}
	}
	if !h.FocusEdge.IsZero() {
		h.Endpoints = depgraph.NewSet(h.FocusEdge.From, h.FocusEdge.To)
	}
	focused := h.HasFocus()

	for _, id := range ix.Order {
		active := focused && (h.Chain.Has(id) || h.Endpoints.Has(id))
		h.Nodes[id] = NodeFlags{
			InChain:  h.Chain.Len() == 0 || h.Chain.Has(id),
			Active:   active,
			Dimmed:   focused && !active,
			Selected: id == s.SelectedNode,
			Hovered:  id == s.HoveredNode,
			Endpoint: h.Endpoints.Has(id),
		}
	}

	for _, to := range ix.Order {
		for _, from := range ix.Preds[to] {
			k := EdgeKey{From: from, To: to}
			active := k == h.FocusEdge ||
				(h.Endpoints.Has(from) && h.Endpoints.Has(to)) ||
				(h.FocusNode != "" && h.Chain.Has(from) && h.Chain.Has(to) &&
					(mode != ChainDirect || from == h.FocusNode || to == h.FocusNode))
			h.Edges[k] = EdgeFlags{
				Active:   active,
				Dimmed:   focused && !active,
				Selected: k == s.SelectedEdge,
				Hovered:  k == s.HoveredEdge,
			}
		}
	}
	return h
}
