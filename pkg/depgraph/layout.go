package depgraph

import (
	"sort"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// NodePos places one task on the map.
type NodePos struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Column int     `json:"column"`
	Row    int     `json:"row"`
}

// Edge is one routed dependency: FromID must finish before ToID.
type Edge struct {
	FromID string `json:"fromId"`
	ToID   string `json:"toId"`
	// Category is the source task's phase, used to colour the edge.
	Category   string  `json:"category"`
	TrackIndex int     `json:"trackIndex"`
	TrackCount int     `json:"trackCount"`
	TrackX     float64 `json:"trackX"`
	ExitFrac   float64 `json:"exitFrac"`
	EntryFrac  float64 `json:"entryFrac"`
	From       Point   `json:"from"`
	To         Point   `json:"to"`
	Path       Path    `json:"path"`
}

// Key identifies the edge.
func (e Edge) Key() [2]string {
	return [2]string{e.FromID, e.ToID}
}

// Layout is the full geometry of one render pass.
type Layout struct {
	Geometry Geometry           `json:"geometry"`
	Nodes    map[string]NodePos `json:"nodes"`
	// Order lists visible task ids in input order.
	Order []string `json:"order"`
	// ColumnRows lists task ids per column, top to bottom.
	ColumnRows [][]string `json:"columnRows"`
	Edges      []Edge     `json:"edges"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
}

// Build assigns columns and lays out tasks in one call.
func Build(tasks []model.Task, g Geometry) Layout {
	ix := NewIndex(tasks)
	return arrange(ix, ix.Columns(), g)
}

// Arrange lays out tasks given a column assignment. Tasks missing from
// columnOf are placed in column 0.
func Arrange(tasks []model.Task, columnOf map[string]int, g Geometry) Layout {
	return arrange(NewIndex(tasks), columnOf, g)
}

func arrange(ix *Index, columnOf map[string]int, g Geometry) Layout {
	out := Layout{
		Geometry: g,
		Nodes:    make(map[string]NodePos, len(ix.Order)),
		Order:    append([]string(nil), ix.Order...),
		Edges:    []Edge{},
	}

	numCols := 0
	for _, id := range ix.Order {
		if c := columnOf[id]; c+1 > numCols {
			numCols = c + 1
		}
	}
	out.ColumnRows = make([][]string, numCols)
	for _, id := range ix.Order {
		c := max(columnOf[id], 0)
		out.ColumnRows[c] = append(out.ColumnRows[c], id)
	}

	maxRow := -1
	for col, ids := range out.ColumnRows {
		sort.SliceStable(ids, func(i, j int) bool {
			return ix.Tasks[ids[i]].Date.Compare(ix.Tasks[ids[j]].Date) < 0
		})
		for row, id := range ids {
			out.Nodes[id] = NodePos{
				ID:     id,
				X:      float64(col)*g.ColumnPitch() + g.PadX,
				Y:      float64(row)*g.RowHeight + g.PadY,
				Column: col,
				Row:    row,
			}
			maxRow = max(maxRow, row)
		}
	}

	out.Width = float64(numCols)*g.ColumnPitch() + g.PadX*2
	out.Height = float64(maxRow+1)*g.RowHeight + g.PadY*2

	corridorTotal := make(map[int]int)
	for _, id := range ix.Order {
		for _, dep := range ix.Preds[id] {
			corridorTotal[out.Nodes[dep].Column]++
		}
	}

	corridorNext := make(map[int]int)
	for _, id := range ix.Order {
		preds := ix.Preds[id]
		tp := out.Nodes[id]
		for incomingIdx, dep := range preds {
			fp := out.Nodes[dep]
			corridor := fp.Column
			trackIdx := corridorNext[corridor]
			corridorNext[corridor]++
			total := corridorTotal[corridor]

			outgoing := ix.Succs[dep]
			exitFrac := AttachFraction(indexOf(outgoing, id), len(outgoing))
			entryFrac := AttachFraction(incomingIdx, len(preds))

			e := Edge{
				FromID:     dep,
				ToID:       id,
				Category:   ix.Tasks[dep].Category,
				TrackIndex: trackIdx,
				TrackCount: total,
				TrackX:     g.TrackX(corridor, trackIdx, total),
				ExitFrac:   exitFrac,
				EntryFrac:  entryFrac,
				From:       Point{X: fp.X + g.NodeWidth, Y: fp.Y + exitFrac*g.NodeHeight},
				To:         Point{X: tp.X, Y: tp.Y + entryFrac*g.NodeHeight},
			}
			e.Path = BuildPath(e.From.X, e.From.Y, e.To.X, e.To.Y, e.TrackX, g.CornerRadius)
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// Columns returns the number of populated column slots.
func (l Layout) Columns() int {
	return len(l.ColumnRows)
}

// EdgesInto returns the edges ending at id, in attachment order.
func (l Layout) EdgesInto(id string) []Edge {
	var out []Edge
	for _, e := range l.Edges {
		if e.ToID == id {
			out = append(out, e)
		}
	}
	return out
}

// EdgesFrom returns the edges starting at id.
func (l Layout) EdgesFrom(id string) []Edge {
	var out []Edge
	for _, e := range l.Edges {
		if e.FromID == id {
			out = append(out, e)
		}
	}
	return out
}

// EdgesOf returns every edge touching id: incoming first, then outgoing.
func (l Layout) EdgesOf(id string) []Edge {
	return append(l.EdgesInto(id), l.EdgesFrom(id)...)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
