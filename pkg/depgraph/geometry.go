package depgraph

import "fmt"

// Geometry holds the layout constants, in abstract units (pixels for SVG).
type Geometry struct {
	NodeWidth     float64
	NodeHeight    float64
	RowHeight     float64
	CorridorWidth float64
	// TrackGap caps the spacing between parallel tracks in one corridor.
	TrackGap float64
	// CorridorInset keeps tracks away from the node faces on either side.
	CorridorInset float64
	PadX          float64
	PadY          float64
	CornerRadius  float64
}

// Desktop is the roomy geometry used by exports and wide terminals.
var Desktop = Geometry{
	NodeWidth:     160,
	NodeHeight:    46,
	RowHeight:     70,
	CorridorWidth: 100,
	TrackGap:      8,
	CorridorInset: 6,
	PadX:          20,
	PadY:          20,
	CornerRadius:  5,
}

// Compact trades space for density on narrow screens.
var Compact = Geometry{
	NodeWidth:     130,
	NodeHeight:    42,
	RowHeight:     62,
	CorridorWidth: 80,
	TrackGap:      8,
	CorridorInset: 6,
	PadX:          20,
	PadY:          20,
	CornerRadius:  5,
}

// GeometryFor resolves a named profile ("desktop" or "compact").
func GeometryFor(profile string) (Geometry, error) {
	switch profile {
	case "", "desktop":
		return Desktop, nil
	case "compact":
		return Compact, nil
	}
	return Geometry{}, fmt.Errorf("unknown layout profile %q", profile)
}

// ColumnPitch is the horizontal distance between adjacent column origins.
func (g Geometry) ColumnPitch() float64 {
	return g.NodeWidth + g.CorridorWidth
}

// TrackX returns the x-coordinate of track trackIdx out of totalTracks in
// the corridor to the right of column fromCol. Tracks are centred in the
// corridor and spaced at most TrackGap apart; a single track sits in the
// middle.
func (g Geometry) TrackX(fromCol, trackIdx, totalTracks int) float64 {
	left := float64(fromCol)*g.ColumnPitch() + g.PadX + g.NodeWidth + g.CorridorInset
	right := float64(fromCol+1)*g.ColumnPitch() + g.PadX - g.CorridorInset
	width := right - left
	if totalTracks <= 1 {
		return left + width/2
	}
	step := min(g.TrackGap, (width-4)/float64(totalTracks-1))
	span := step * float64(totalTracks-1)
	return left + (width-span)/2 + float64(trackIdx)*step
}

// AttachFraction spreads count attachment points over the middle 60% of a
// node face; a lone edge attaches at the midpoint.
func AttachFraction(index, count int) float64 {
	if count <= 1 {
		return 0.5
	}
	return 0.2 + (float64(index)/float64(count-1))*0.6
}
