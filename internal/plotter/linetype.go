// linetype.go - LT dashed line-type patterning

package plotter

import "math"

// SolidLine is the LT argument value meaning "no dashing", per spec.md §4.6.
const SolidLine = -1

// linePatterns holds the percentage-pairs/quads tables for LT 1..6. Index 0
// is unused (LT 0 is the special two-dots-at-endpoints case handled
// separately). Percentages alternate draw, gap, draw, gap...
var linePatterns = [7][]float64{
	{},               // unused
	{50, 50},         // LT 1: ----  ----
	{70, 30},         // LT 2: ------  --
	{80, 10, 10, 10}, // LT 3
	{50, 17, 17, 17}, // LT 4
	{70, 10, 10, 10}, // LT 5
	{90, 10},         // LT 6
}

// Dasher walks a polyline emitting draw/gap runs for a given LT pattern,
// carrying the remainder of the current run across calls (spec.md §4.6:
// "remaining run is carried into the next command invocation").
type Dasher struct {
	LT         int
	PatternLen float64 // pct% * |P2-P1| / 100, set from Scale
	remaining  float64
	drawing    bool
	started    bool
}

// NewDasher returns a dasher for the given LT index (-1 = solid, 0 = dots,
// 1..6 = pattern table) scaled against the P1/P2 span.
func NewDasher(lt int, p1, p2 Point) *Dasher {
	span := math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
	d := &Dasher{LT: lt}
	if lt >= 1 && lt <= 6 {
		pct := linePatterns[lt][0]
		d.PatternLen = pct * span / 100
	}
	return d
}

// runs returns the draw/gap lengths (in plotter units) of one full period
// of the pattern, scaled by PatternLen's underlying percentage base.
func (d *Dasher) runs(span float64) []float64 {
	pat := linePatterns[d.LT]
	out := make([]float64, len(pat))
	for i, pct := range pat {
		out[i] = pct * span / 100
	}
	return out
}

// Walk emits the visible (drawing) sub-segments of p0->p1 according to
// the current LT pattern and dasher state, updating remaining run length
// for the next call.
func (d *Dasher) Walk(p0, p1 Point) []Segment {
	if d.LT == SolidLine {
		return []Segment{{P1: p0, P2: p1}}
	}
	if d.LT == 0 {
		// LT 0: two dots at endpoints only.
		return []Segment{{P1: p0, P2: p0}, {P1: p1, P2: p1}}
	}
	span := math.Hypot(p1.X-p0.X, p1.Y-p0.Y)
	if span == 0 {
		return nil
	}
	pat := linePatterns[d.LT]
	if len(pat) == 0 {
		return []Segment{{P1: p0, P2: p1}}
	}
	runLens := make([]float64, len(pat))
	for i, pct := range pat {
		runLens[i] = pct * d.patternBase() / 100
	}

	dirX := (p1.X - p0.X) / span
	dirY := (p1.Y - p0.Y) / span

	var segs []Segment
	pos := 0.0
	idx := 0
	rem := d.remaining
	drawing := d.drawing
	if !d.started {
		drawing = true
		rem = runLens[0]
		d.started = true
	}
	if rem <= 0 {
		rem = runLens[idx%len(runLens)]
	}

	for pos < span {
		step := rem
		if pos+step > span {
			step = span - pos
		}
		start := Point{p0.X + dirX*pos, p0.Y + dirY*pos}
		end := Point{p0.X + dirX*(pos+step), p0.Y + dirY*(pos+step)}
		if drawing {
			segs = append(segs, Segment{P1: start, P2: end})
		}
		pos += step
		rem -= step
		if rem <= 1e-9 {
			idx++
			drawing = !drawing
			rem = runLens[idx%len(runLens)]
		}
	}
	d.remaining = rem
	d.drawing = drawing
	return segs
}

// patternBase returns the base length (plotter units) one pattern
// percentage point maps to; set at construction from |P2-P1|.
func (d *Dasher) patternBase() float64 {
	if len(linePatterns[d.LT]) == 0 {
		return 0
	}
	return d.PatternLen / linePatterns[d.LT][0] * 100
}
