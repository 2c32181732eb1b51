package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/depgraph"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/highlight"
	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

// Cell geometry of the character dep map. Rows sit two lines apart so
// vertical runs have a free line between nodes.
type cellGeometry struct {
	NodeW     int
	CorridorW int
	RowH      int
}

var (
	desktopCells = cellGeometry{NodeW: 20, CorridorW: 8, RowH: 2}
	compactCells = cellGeometry{NodeW: 14, CorridorW: 6, RowH: 2}
)

func (g cellGeometry) colX(col int) int { return col * (g.NodeW + g.CorridorW) }

// Direction bits of a line-drawing cell.
const (
	dirUp uint8 = 1 << iota
	dirDown
	dirLeft
	dirRight
)

var boxRunes = map[uint8]rune{
	dirLeft | dirRight:                   '─',
	dirLeft:                              '─',
	dirRight:                             '─',
	dirUp | dirDown:                      '│',
	dirUp:                                '│',
	dirDown:                              '│',
	dirDown | dirRight:                   '┌',
	dirDown | dirLeft:                    '┐',
	dirUp | dirRight:                     '└',
	dirUp | dirLeft:                      '┘',
	dirUp | dirDown | dirRight:           '├',
	dirUp | dirDown | dirLeft:            '┤',
	dirDown | dirLeft | dirRight:         '┬',
	dirUp | dirLeft | dirRight:           '┴',
	dirUp | dirDown | dirLeft | dirRight: '┼',
}

type cellKind uint8

const (
	cellEmpty cellKind = iota
	cellEdge
	cellArrow
	cellNode
	// cellWide is the trailing half of a double-width rune.
	cellWide
)

type cell struct {
	kind  cellKind
	r     rune
	mask  uint8
	node  string
	edge  highlight.EdgeKey
	color string
	rank  int
}

// canvas is a fixed grid of cells.
type canvas struct {
	w, h  int
	cells []cell
}

func newCanvas(w, h int) *canvas {
	return &canvas{w: w, h: h, cells: make([]cell, w*h)}
}

func (c *canvas) at(x, y int) *cell {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return nil
	}
	return &c.cells[y*c.w+x]
}

// edgeRank orders edge styles so the most prominent edge owns a shared
// cell.
func edgeRank(f highlight.EdgeFlags) int {
	switch {
	case f.Selected:
		return 4
	case f.Active:
		return 3
	case f.Dimmed:
		return 1
	}
	return 2
}

func (c *canvas) claim(x, y int, e depgraph.Edge, color string, rank int) *cell {
	cl := c.at(x, y)
	if cl == nil || cl.kind == cellNode || cl.kind == cellWide {
		return nil
	}
	if cl.kind == cellEmpty {
		cl.kind = cellEdge
	}
	if rank >= cl.rank {
		cl.rank = rank
		cl.edge = highlight.EdgeKey{From: e.FromID, To: e.ToID}
		cl.color = color
	}
	return cl
}

// link joins two orthogonally adjacent cells.
func (c *canvas) link(x1, y1, x2, y2 int, e depgraph.Edge, color string, rank int) {
	var d1, d2 uint8
	switch {
	case x2 > x1:
		d1, d2 = dirRight, dirLeft
	case x2 < x1:
		d1, d2 = dirLeft, dirRight
	case y2 > y1:
		d1, d2 = dirDown, dirUp
	default:
		d1, d2 = dirUp, dirDown
	}
	if a := c.claim(x1, y1, e, color, rank); a != nil {
		a.mask |= d1
	}
	if b := c.claim(x2, y2, e, color, rank); b != nil {
		b.mask |= d2
	}
}

func (c *canvas) hline(y, x1, x2 int, e depgraph.Edge, color string, rank int) {
	step := 1
	if x2 < x1 {
		step = -1
	}
	for x := x1; x != x2; x += step {
		c.link(x, y, x+step, y, e, color, rank)
	}
}

func (c *canvas) vline(x, y1, y2 int, e depgraph.Edge, color string, rank int) {
	step := 1
	if y2 < y1 {
		step = -1
	}
	for y := y1; y != y2; y += step {
		c.link(x, y, x, y+step, e, color, rank)
	}
}

// depMap is the character rendition of a layout.
type depMap struct {
	geom   cellGeometry
	canvas *canvas
}

// buildDepMap rasterises the layout: edges first, then nodes on top.
// Edges leave the source's right face, turn at their track inside the
// source corridor and enter the target's left face.
func buildDepMap(l depgraph.Layout, tasks map[string]model.Task, categories map[string]string, h highlight.Highlight, g cellGeometry) depMap {
	cols := max(l.Columns(), 1)
	rows := 1
	for _, col := range l.ColumnRows {
		rows = max(rows, len(col))
	}
	cv := newCanvas(cols*(g.NodeW+g.CorridorW), (rows-1)*g.RowH+1)

	for _, e := range l.Edges {
		from, okF := l.Nodes[e.FromID]
		to, okT := l.Nodes[e.ToID]
		if !okF || !okT {
			continue
		}
		color := model.CategoryColor(categories, e.Category)
		rank := edgeRank(h.Edge(e.FromID, e.ToID))

		y1, y2 := from.Row*g.RowH, to.Row*g.RowH
		exitX := g.colX(from.Column) + g.NodeW
		usable := max(g.CorridorW-2, 1)
		count := max(e.TrackCount, 1)
		trackX := exitX + 1 + ((2*e.TrackIndex+1)*usable)/(2*count)
		trackX = min(trackX, exitX+usable)

		entryX := g.colX(to.Column) - 1
		arrow := '▶'
		if entryX <= trackX {
			entryX = g.colX(to.Column) + g.NodeW
			arrow = '◀'
		}

		cv.hline(y1, exitX, trackX, e, color, rank)
		cv.vline(trackX, y1, y2, e, color, rank)
		cv.hline(y2, trackX, entryX, e, color, rank)
		if a := cv.claim(entryX, y2, e, color, rank); a != nil {
			a.kind = cellArrow
			a.r = arrow
		}
	}

	for _, id := range l.Order {
		pos := l.Nodes[id]
		t := tasks[id]
		x0, y := g.colX(pos.Column), pos.Row*g.RowH
		label := []rune(nodeText(t, g.NodeW))
		x := x0
		for _, r := range label {
			cl := cv.at(x, y)
			if cl == nil {
				break
			}
			*cl = cell{kind: cellNode, r: r, node: id, color: model.CategoryColor(categories, t.Category)}
			if runewidth.RuneWidth(r) == 2 {
				if next := cv.at(x+1, y); next != nil {
					*next = cell{kind: cellWide, node: id}
				}
				x++
			}
			x++
		}
	}
	return depMap{geom: g, canvas: cv}
}

// nodeText is the fixed-width label of a node: a status glyph and the
// truncated name, padded to width.
func nodeText(t model.Task, width int) string {
	glyph := statusGlyph(t.Status)
	if t.Milestone {
		glyph = "◆"
	}
	name := t.Name
	if name == "" {
		name = t.ID
	}
	body := runewidth.Truncate(name, width-3, "…")
	return runewidth.FillRight(" "+glyph+" "+body, width)
}

func statusGlyph(s model.Status) string {
	switch s {
	case model.StatusInProgress:
		return "◐"
	case model.StatusWaiting:
		return "◌"
	case model.StatusDone:
		return "●"
	}
	return "○"
}

// nodeBox returns the canvas rectangle of a node.
func (d depMap) nodeBox(pos depgraph.NodePos) (x, y, w int) {
	return d.geom.colX(pos.Column), pos.Row * d.geom.RowH, d.geom.NodeW
}

// render crops the canvas to the viewport and styles each run of cells.
func (d depMap) render(t Theme, h highlight.Highlight, cursor string, scrollX, scrollY, width, height int) string {
	styles := make(map[string]lipgloss.Style)
	styleFor := func(cl cell) (string, lipgloss.Style) {
		key := styleKey(cl, h, cursor)
		if s, ok := styles[key]; ok {
			return key, s
		}
		s := cellStyle(t, cl, h, cursor)
		styles[key] = s
		return key, s
	}

	var out strings.Builder
	for row := 0; row < height; row++ {
		y := scrollY + row
		if row > 0 {
			out.WriteByte('\n')
		}
		if y >= d.canvas.h {
			continue
		}
		var run strings.Builder
		runKey := ""
		var runStyle lipgloss.Style
		flush := func() {
			if run.Len() == 0 {
				return
			}
			out.WriteString(runStyle.Render(run.String()))
			run.Reset()
		}
		for col := 0; col < width; col++ {
			x := scrollX + col
			cl := d.canvas.at(x, y)
			if cl == nil {
				break
			}
			if cl.kind == cellWide {
				continue
			}
			key, style := styleFor(*cl)
			if key != runKey {
				flush()
				runKey, runStyle = key, style
			}
			run.WriteRune(cellRune(*cl))
		}
		flush()
	}
	return out.String()
}

func cellRune(cl cell) rune {
	switch cl.kind {
	case cellEdge:
		if r, ok := boxRunes[cl.mask]; ok {
			return r
		}
		return ' '
	case cellNode, cellArrow:
		return cl.r
	}
	return ' '
}

func styleKey(cl cell, h highlight.Highlight, cursor string) string {
	switch cl.kind {
	case cellNode:
		f := h.Node(cl.node)
		var b strings.Builder
		b.WriteString("n")
		b.WriteString(cl.color)
		if f.Dimmed {
			b.WriteString("d")
		}
		if f.Active {
			b.WriteString("a")
		}
		if f.Selected {
			b.WriteString("s")
		}
		if cl.node == cursor {
			b.WriteString("c")
		}
		return b.String()
	case cellEdge, cellArrow:
		return "e" + cl.color + string(rune('0'+cl.rank))
	}
	return ""
}

func cellStyle(t Theme, cl cell, h highlight.Highlight, cursor string) lipgloss.Style {
	s := t.Renderer.NewStyle()
	switch cl.kind {
	case cellNode:
		f := h.Node(cl.node)
		if f.Dimmed {
			s = s.Background(t.Dimmed).Foreground(t.Secondary)
		} else {
			s = s.Background(lipgloss.Color(cl.color)).Foreground(ColorBg)
		}
		if f.Selected || f.Endpoint {
			s = s.Bold(true)
		}
		if cl.node == cursor {
			s = s.Underline(true).Bold(true)
		}
	case cellEdge, cellArrow:
		switch cl.rank {
		case 4, 3:
			s = s.Foreground(lipgloss.Color(cl.color)).Bold(true)
		case 1:
			s = s.Foreground(t.Dimmed)
		default:
			s = s.Foreground(t.Secondary)
		}
	}
	return s
}
