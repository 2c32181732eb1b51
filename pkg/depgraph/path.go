package depgraph

import (
	"math"
	"strconv"
	"strings"
)

// straightEpsilon is the vertical distance under which an edge is drawn
// as a single straight segment.
const straightEpsilon = 1.0

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SegmentKind identifies one drawing instruction.
type SegmentKind string

const (
	SegMove SegmentKind = "M"
	SegLine SegmentKind = "L"
	SegH    SegmentKind = "H"
	SegV    SegmentKind = "V"
	SegQuad SegmentKind = "Q"
)

// Segment is one drawing instruction ending at To. Control is only used by
// quadratic corners.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	To      Point       `json:"to"`
	Control Point       `json:"control"`
}

// Path is an orthogonal edge route with rounded corners.
type Path struct {
	Segments []Segment `json:"segments"`
}

// BuildPath routes an edge from (x1,y1) to (x2,y2) through the vertical
// track at trackX: horizontal out of the source, vertical along the track,
// horizontal into the target. Each corner radius is capped by radius and by
// half of both adjoining segments. Endpoints at (nearly) the same height
// produce one straight segment.
func BuildPath(x1, y1, x2, y2, trackX, radius float64) Path {
	vd := math.Abs(y2 - y1)
	if vd < straightEpsilon {
		return Path{Segments: []Segment{
			{Kind: SegMove, To: Point{x1, y1}},
			{Kind: SegLine, To: Point{x2, y2}},
		}}
	}
	h1 := math.Abs(trackX - x1)
	h2 := math.Abs(x2 - trackX)
	r := min(radius, h1/2, h2/2, vd/2)

	down := y2 > y1
	vy1, vy2 := y1-r, y2+r
	if down {
		vy1, vy2 = y1+r, y2-r
	}
	// Corners bend toward the side each horizontal run comes from or goes
	// to; a back-edge leaves the track heading left.
	in, out := direction(trackX-x1), direction(x2-trackX)
	return Path{Segments: []Segment{
		{Kind: SegMove, To: Point{x1, y1}},
		{Kind: SegH, To: Point{trackX - in*r, y1}},
		{Kind: SegQuad, Control: Point{trackX, y1}, To: Point{trackX, vy1}},
		{Kind: SegV, To: Point{trackX, vy2}},
		{Kind: SegQuad, Control: Point{trackX, y2}, To: Point{trackX + out*r, y2}},
		{Kind: SegH, To: Point{x2, y2}},
	}}
}

func direction(dx float64) float64 {
	if dx < 0 {
		return -1
	}
	return 1
}

// IsStraight reports whether the path is a single segment.
func (p Path) IsStraight() bool {
	return len(p.Segments) == 2
}

// Start returns the first point of the path.
func (p Path) Start() Point {
	if len(p.Segments) == 0 {
		return Point{}
	}
	return p.Segments[0].To
}

// End returns the last point of the path.
func (p Path) End() Point {
	if len(p.Segments) == 0 {
		return Point{}
	}
	return p.Segments[len(p.Segments)-1].To
}

// Vertices flattens the path to its corner points, replacing each rounded
// corner by the sharp corner it rounds. Raster renderers that cannot draw
// curves use this.
func (p Path) Vertices() []Point {
	out := make([]Point, 0, len(p.Segments))
	for _, s := range p.Segments {
		if s.Kind == SegQuad {
			out = append(out, s.Control)
			continue
		}
		out = append(out, s.To)
	}
	return out
}

// SVG returns the path in SVG path-data syntax.
func (p Path) SVG() string {
	parts := make([]string, 0, len(p.Segments))
	for _, s := range p.Segments {
		switch s.Kind {
		case SegH:
			parts = append(parts, "H"+fmtNum(s.To.X))
		case SegV:
			parts = append(parts, "V"+fmtNum(s.To.Y))
		case SegQuad:
			parts = append(parts, "Q"+fmtNum(s.Control.X)+","+fmtNum(s.Control.Y)+" "+fmtNum(s.To.X)+","+fmtNum(s.To.Y))
		default:
			parts = append(parts, string(s.Kind)+fmtNum(s.To.X)+","+fmtNum(s.To.Y))
		}
	}
	return strings.Join(parts, " ")
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
