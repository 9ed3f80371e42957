// clip.go - Liang-Barsky segment clipping against the plotting window

package plotter

// Segment is a drawable (possibly clipped) line in plotter units, per
// spec.md §3: ((x1,y1),(x2,y2),pen).
type Segment struct {
	P1, P2 Point
	Pen    int
}

// ClipLiangBarsky clips the segment p0->p1 against window, returning the
// visible portion and true, or the zero Segment and false if the segment
// lies entirely outside. This is the parametric Liang-Barsky algorithm:
// every clipped segment is contained in window, and segments fully inside
// are returned unchanged within rounding (spec.md §8).
func ClipLiangBarsky(p0, p1 Point, window Rect) (Point, Point, bool) {
	dx := p1.X - p0.X
	dy := p1.Y - p0.Y

	tMin, tMax := 0.0, 1.0

	check := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > tMax {
				return false
			}
			if r > tMin {
				tMin = r
			}
		} else {
			if r < tMin {
				return false
			}
			if r < tMax {
				tMax = r
			}
		}
		return true
	}

	if !check(-dx, p0.X-window.Min.X) {
		return Point{}, Point{}, false
	}
	if !check(dx, window.Max.X-p0.X) {
		return Point{}, Point{}, false
	}
	if !check(-dy, p0.Y-window.Min.Y) {
		return Point{}, Point{}, false
	}
	if !check(dy, window.Max.Y-p0.Y) {
		return Point{}, Point{}, false
	}
	if tMin > tMax {
		return Point{}, Point{}, false
	}

	clipped0 := Point{p0.X + tMin*dx, p0.Y + tMin*dy}
	clipped1 := Point{p0.X + tMax*dx, p0.Y + tMax*dy}
	return clipped0, clipped1, true
}
