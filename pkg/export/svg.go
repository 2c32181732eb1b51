package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	svg "github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/model"
)

const (
	backgroundColor = "#0f172a"
	nodeFillColor   = "#1e293b"
	textColor       = "#e2e8f0"
	mutedTextColor  = "#94a3b8"
	selectedColor   = "#fbbf24"
	labelCharWidth  = 7.0
)

// errWriter keeps the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// RenderSVG draws the scene as a standalone SVG document.
func RenderSVG(w io.Writer, s Scene) error {
	ew := &errWriter{w: w}
	width := int(math.Ceil(s.Layout.Width))
	height := int(math.Ceil(s.Layout.Height))
	g := s.Layout.Geometry

	canvas := svg.New(ew)
	canvas.Start(width, height)
	if s.Title != "" {
		canvas.Title(s.Title)
	}

	markers := s.markerIDs()
	canvas.Def()
	for _, color := range sortedKeys(markers) {
		canvas.Marker(markers[color], 8, 4, 8, 8, `orient="auto"`, `markerUnits="userSpaceOnUse"`)
		canvas.Path("M0,0 L8,4 L0,8 z", "fill:"+color)
		canvas.MarkerEnd()
	}
	canvas.DefEnd()
	canvas.Rect(0, 0, width, height, "fill:"+backgroundColor)

	canvas.Group(`id="edges"`, `fill="none"`)
	for _, e := range s.Layout.Edges {
		flags := s.Highlight.Edge(e.FromID, e.ToID)
		color := s.color(e.Category)
		strokeWidth := 1.5
		if flags.Active {
			strokeWidth = 2.5
		}
		canvas.Path(e.Path.SVG(),
			fmt.Sprintf(`data-from="%s"`, e.FromID),
			fmt.Sprintf(`data-to="%s"`, e.ToID),
			fmt.Sprintf(`stroke="%s"`, color),
			fmt.Sprintf(`stroke-width="%s"`, fmtFloat(strokeWidth)),
			fmt.Sprintf(`stroke-opacity="%s"`, fmtFloat(flags.Opacity())),
			fmt.Sprintf(`marker-end="url(#%s)"`, markers[color]),
		)
	}
	canvas.Gend()

	canvas.Group(`id="nodes"`)
	maxChars := int((g.NodeWidth - 16) / labelCharWidth)
	for _, id := range s.Layout.Order {
		pos := s.Layout.Nodes[id]
		t := s.Tasks[id]
		flags := s.Highlight.Node(id)
		border := s.color(t.Category)
		borderWidth := 1.5
		if flags.Selected {
			border, borderWidth = selectedColor, 3
		} else if flags.Active {
			borderWidth = 2.5
		}
		x, y := int(pos.X), int(pos.Y)
		nw, nh := int(g.NodeWidth), int(g.NodeHeight)

		canvas.Group(fmt.Sprintf(`data-id="%s"`, id), fmt.Sprintf(`opacity="%s"`, fmtFloat(flags.Opacity())))
		canvas.Roundrect(x, y, nw, nh, 6, 6,
			fmt.Sprintf(`fill="%s"`, nodeFillColor),
			fmt.Sprintf(`stroke="%s"`, border),
			fmt.Sprintf(`stroke-width="%s"`, fmtFloat(borderWidth)),
		)
		canvas.Text(x+8, y+18, nodeLabel(t, maxChars),
			fmt.Sprintf(`fill="%s"`, textColor), `font-family="sans-serif"`, `font-size="12"`)
		canvas.Text(x+8, y+nh-10, subLabel(t),
			fmt.Sprintf(`fill="%s"`, mutedTextColor), `font-family="sans-serif"`, `font-size="10"`)
		canvas.Gend()
	}
	canvas.Gend()
	canvas.End()
	return ew.err
}

// markerIDs assigns one arrowhead marker per edge colour.
func (s Scene) markerIDs() map[string]string {
	ids := make(map[string]string)
	for _, e := range s.Layout.Edges {
		c := s.color(e.Category)
		if _, ok := ids[c]; !ok {
			ids[c] = "arrow-" + strconv.Itoa(len(ids))
		}
	}
	return ids
}

func nodeLabel(t model.Task, maxChars int) string {
	name := t.Name
	if t.Milestone {
		name = "◆ " + name
	}
	if maxChars < 4 {
		maxChars = 4
	}
	return runewidth.Truncate(name, maxChars, "…")
}

func subLabel(t model.Task) string {
	if d := t.Date.Short(); d != "" {
		return d + " · " + string(t.Status)
	}
	return string(t.Status)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
