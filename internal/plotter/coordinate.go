// coordinate.go - plotter unit coordinate system, scaling, and pen zones

// Package plotter implements the 9872-style PlotterCore from spec.md §4.6:
// the coordinate model, Liang-Barsky clipping, dashed line-type rendering,
// a glyph renderer, and plotter status bits, driven by internal/hpgl.
package plotter

// Point is a position in plotter units (1016 units/inch, the HP-GL unit).
type Point struct {
	X, Y float64
}

// Rect is a closed-half-open axis-aligned rectangle: [Min, Max) in both
// axes, per spec.md §3.
type Rect struct {
	Min, Max Point
}

// Physical plotting area bounds, per spec.md §4.6.
const (
	PhysMaxX = 16000.0
	PhysMaxY = 11400.0

	// farZone is the overflow threshold beyond which a position is FAR,
	// per spec.md §4.6.
	farZone = 32000.0
)

func defaultPhysical() Rect {
	return Rect{Min: Point{0, 0}, Max: Point{PhysMaxX, PhysMaxY}}
}

// Zone is the pen's relationship to the plotting window.
type Zone int

const (
	ZoneInWindow Zone = iota
	ZoneNearby
	ZoneFaraway
)

// Scale holds the P1/P2 scaling points and the user-coordinate window
// (Sxmin/Sxmax/Symin/Symax set by SC) that maps user coordinates into
// plotter units, per spec.md §4.6.
type Scale struct {
	P1, P2         Point
	Sxmin, Sxmax   float64
	Symin, Symax   float64
	enabled        bool
}

// defaultScale returns P1/P2 at the 9872's factory default positions,
// covering most of the physical area with no user scaling active.
func defaultScale() Scale {
	return Scale{
		P1: Point{520, 380},
		P2: Point{15720, 10365},
	}
}

// ToPlotterUnits maps a user coordinate (X_u, Y_u) into plotter units via
// the linear scale spec.md §4.6 defines. When no SC scale is active, user
// coordinates are already plotter units.
func (s Scale) ToPlotterUnits(p Point) Point {
	if !s.enabled {
		return p
	}
	x := s.P1.X + (p.X-s.Sxmin)*(s.P2.X-s.P1.X)/(s.Sxmax-s.Sxmin)
	y := s.P1.Y + (p.Y-s.Symin)*(s.P2.Y-s.P1.Y)/(s.Symax-s.Symin)
	return Point{x, y}
}

// classifyZone implements the IN_WINDOW/NEARBY/FARAWAY decision from
// spec.md §4.6: anything beyond the farZone threshold in either axis is
// FARAWAY; anything outside the current window but within range is
// NEARBY; otherwise IN_WINDOW.
func classifyZone(p Point, window Rect) Zone {
	if p.X < -farZone || p.X >= farZone || p.Y < -farZone || p.Y >= farZone {
		return ZoneFaraway
	}
	if p.X < window.Min.X || p.X >= window.Max.X || p.Y < window.Min.Y || p.Y >= window.Max.Y {
		return ZoneNearby
	}
	return ZoneInWindow
}

// clampWindowV2 implements Open Question 1's v2 behavior: clamp the
// requested IW rectangle into the physical area and align the lower bound
// down to an even coordinate, without requiring llx<urx / lly<ury.
func clampWindowV2(llx, lly, urx, ury float64) Rect {
	phys := defaultPhysical()
	if llx > urx {
		llx, urx = urx, llx
	}
	if lly > ury {
		lly, ury = ury, lly
	}
	if llx < phys.Min.X {
		llx = phys.Min.X
	}
	if lly < phys.Min.Y {
		lly = phys.Min.Y
	}
	if urx > phys.Max.X {
		urx = phys.Max.X
	}
	if ury > phys.Max.Y {
		ury = phys.Max.Y
	}
	llx = float64(int(llx) &^ 1)
	lly = float64(int(lly) &^ 1)
	return Rect{Min: Point{llx, lly}, Max: Point{urx, ury}}
}
