package export

import (
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/basicfont"

	"github.com/Dicklesworthstone/roadmap_viewer/pkg/depgraph"
)

// RenderPNG rasterises the scene.
func RenderPNG(w io.Writer, s Scene) error {
	width := int(math.Ceil(s.Layout.Width))
	height := int(math.Ceil(s.Layout.Height))
	g := s.Layout.Geometry

	dc := gg.NewContext(width, height)
	setColor(dc, backgroundColor, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for _, e := range s.Layout.Edges {
		flags := s.Highlight.Edge(e.FromID, e.ToID)
		color := s.color(e.Category)
		dc.SetLineWidth(1.5)
		if flags.Active {
			dc.SetLineWidth(2.5)
		}
		setColor(dc, color, flags.Opacity())
		tracePath(dc, e.Path)
		dc.Stroke()
		drawArrow(dc, e.Path.End())
		dc.Fill()
	}

	maxChars := int((g.NodeWidth - 16) / labelCharWidth)
	for _, id := range s.Layout.Order {
		pos := s.Layout.Nodes[id]
		t := s.Tasks[id]
		flags := s.Highlight.Node(id)
		alpha := flags.Opacity()

		dc.DrawRoundedRectangle(pos.X, pos.Y, g.NodeWidth, g.NodeHeight, 6)
		setColor(dc, nodeFillColor, alpha)
		dc.FillPreserve()
		border, lw := s.color(t.Category), 1.5
		if flags.Selected {
			border, lw = selectedColor, 3
		} else if flags.Active {
			lw = 2.5
		}
		dc.SetLineWidth(lw)
		setColor(dc, border, alpha)
		dc.Stroke()

		setColor(dc, textColor, alpha)
		dc.DrawString(nodeLabel(t, maxChars), pos.X+8, pos.Y+18)
		setColor(dc, mutedTextColor, alpha)
		dc.DrawString(subLabel(t), pos.X+8, pos.Y+g.NodeHeight-10)
	}
	return dc.EncodePNG(w)
}

// tracePath replays path segments onto the context. H and V segments
// carry both coordinates, so they draw as plain lines.
func tracePath(dc *gg.Context, p depgraph.Path) {
	for _, seg := range p.Segments {
		switch seg.Kind {
		case depgraph.SegMove:
			dc.MoveTo(seg.To.X, seg.To.Y)
		case depgraph.SegQuad:
			dc.QuadraticTo(seg.Control.X, seg.Control.Y, seg.To.X, seg.To.Y)
		default:
			dc.LineTo(seg.To.X, seg.To.Y)
		}
	}
}

// drawArrow adds a right-pointing arrowhead ending at tip.
func drawArrow(dc *gg.Context, tip depgraph.Point) {
	dc.MoveTo(tip.X, tip.Y)
	dc.LineTo(tip.X-8, tip.Y-4)
	dc.LineTo(tip.X-8, tip.Y+4)
	dc.ClosePath()
}

func setColor(dc *gg.Context, hex string, alpha float64) {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(mutedTextColor)
	}
	dc.SetRGBA(c.R, c.G, c.B, alpha)
}
