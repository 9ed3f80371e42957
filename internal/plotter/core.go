// core.go - PlotterCore: HPGL command dispatch, pen state, text rendering

package plotter

import (
	"math"

	"github.com/hpvintage/remotizer/internal/hpgl"
)

// Core is the 9872-style plotter device state: pen position/status,
// scaling, window, line type, character size/direction, and the error
// latch, driven one hpgl.Command at a time (spec.md §4.6).
type Core struct {
	Pen      Point
	PenDown  bool
	PenNum   int

	Scale  Scale
	Window Rect

	lineType int
	dasher   *Dasher

	charSize  Point // absolute character width/height in plotter units
	charRel   bool  // size relative to P1/P2 (fraction of diagonal)
	charDir   float64 // radians
	slant     float64

	activeSet CharSet

	Errors *ErrorLatch

	// OnSegment is invoked for each emitted (already clipped) drawable
	// segment — the PlotterCore's sole output channel toward a renderer
	// or log, matching the event-channel idiom spec.md §5 mandates.
	OnSegment func(Segment)

	lastEmittedEnd Point
	haveLastEmit   bool
}

// NewCore returns a freshly initialized plotter core (IN; state).
func NewCore() *Core {
	c := &Core{
		Scale:    defaultScale(),
		Window:   defaultPhysical(),
		lineType: SolidLine,
		charSize: Point{CellWidth * 1.5, CellHeight * 1.5},
		Errors:   NewErrorLatch(),
	}
	return c
}

// Zone classifies the current pen position against the active window.
func (c *Core) Zone() Zone { return classifyZone(c.Pen, c.Window) }

// Exec dispatches one lexed hpgl.Command. Unknown commands and argument
// errors latch the corresponding error bit and are otherwise ignored,
// per spec.md §7 ("Plotters never crash on malformed commands").
func (c *Core) Exec(cmd hpgl.Command) {
	if cmd.Err != nil {
		c.Errors.Raise(errorBitFromParse(cmd.Err.Kind))
		return
	}
	switch cmd.Mnemonic {
	case "IN":
		c.init()
	case "PA":
		c.plot(cmd.Args, true)
	case "PR":
		c.plot(cmd.Args, false)
	case "PU":
		c.setPen(false, cmd.Args)
	case "PD":
		c.setPen(true, cmd.Args)
	case "SP":
		c.selectPen(cmd.Args)
	case "LT":
		c.setLineType(cmd.Args)
	case "IW":
		c.setWindow(cmd.Args)
	case "SC":
		c.setScale(cmd.Args)
	case "SI":
		c.setCharSizeAbsolute(cmd.Args)
	case "SR":
		c.setCharSizeRelative(cmd.Args)
	case "DI":
		c.setCharDirAbsolute(cmd.Args)
	case "DR":
		c.setCharDirRelative(cmd.Args)
	case "SL":
		c.setSlant(cmd.Args)
	case "CS":
		c.setCharSet(cmd.Args, false)
	case "CA":
		c.setCharSet(cmd.Args, true)
	case "LB":
		c.label(cmd.Args)
	default:
		c.Errors.Raise(ErrUnknownCommand)
	}
}

func errorBitFromParse(k hpgl.ParseErrorKind) ErrorBit {
	switch k {
	case hpgl.ErrUnknownCommand:
		return ErrUnknownCommand
	case hpgl.ErrWrongArgCount:
		return ErrWrongArgCount
	case hpgl.ErrInvalidArg:
		return ErrInvalidArg
	case hpgl.ErrInvalidChar:
		return ErrInvalidChar
	case hpgl.ErrUnknownCharset:
		return ErrUnknownCharset
	case hpgl.ErrPositionOverflow:
		return ErrPositionOverflow
	default:
		return ErrUnknownCommand
	}
}

func (c *Core) init() {
	c.Pen = Point{}
	c.PenDown = false
	c.PenNum = 1
	c.Scale = defaultScale()
	c.Window = defaultPhysical()
	c.lineType = SolidLine
	c.dasher = nil
	c.Errors.Clear()
	c.haveLastEmit = false
}

// plot handles PA (absolute) and PR (relative) coordinate pairs,
// consuming arguments two at a time and moving the pen to each, drawing
// (clipped) segments when the pen is down.
func (c *Core) plot(args []hpgl.Arg, absolute bool) {
	if len(args)%2 != 0 {
		c.Errors.Raise(ErrWrongArgCount)
	}
	for i := 0; i+1 < len(args); i += 2 {
		x, y := args[i].AsFloat(), args[i+1].AsFloat()
		var target Point
		if absolute {
			target = c.Scale.ToPlotterUnits(Point{x, y})
		} else {
			rel := c.Scale.ToPlotterUnits(Point{x, y})
			origin := c.Scale.ToPlotterUnits(Point{})
			target = Point{c.Pen.X + (rel.X - origin.X), c.Pen.Y + (rel.Y - origin.Y)}
		}
		c.moveTo(target)
	}
}

func (c *Core) moveTo(target Point) {
	start := c.Pen
	if c.PenDown {
		c.emitDrawn(start, target)
	}
	c.Pen = target
	if z := c.Zone(); z == ZoneFaraway {
		c.PenDown = false
	}
}

// emitDrawn clips start->target against the window and emits the visible
// portion (dashed per the active line type), suppressing a zero-length
// segment at the last emitted position (spec.md §4.6).
func (c *Core) emitDrawn(start, target Point) {
	clipStart, clipEnd, ok := ClipLiangBarsky(start, target, c.Window)
	if !ok {
		return
	}
	if clipStart == clipEnd {
		if c.haveLastEmit && clipStart == c.lastEmittedEnd {
			return
		}
	}
	var segs []Segment
	if c.dasher != nil {
		segs = c.dasher.Walk(clipStart, clipEnd)
	} else {
		segs = []Segment{{P1: clipStart, P2: clipEnd}}
	}
	for _, s := range segs {
		s.Pen = c.PenNum
		if c.OnSegment != nil {
			c.OnSegment(s)
		}
	}
	c.lastEmittedEnd = clipEnd
	c.haveLastEmit = true
}

func (c *Core) setPen(down bool, args []hpgl.Arg) {
	if len(args) > 0 {
		c.plot(args, true)
	}
	c.PenDown = down
}

func (c *Core) selectPen(args []hpgl.Arg) {
	if len(args) == 0 {
		c.PenNum = 0
		return
	}
	n := args[0].Int
	if n < 0 || n > 8 {
		c.Errors.Raise(ErrInvalidArg)
		return
	}
	c.PenNum = n
}

func (c *Core) setLineType(args []hpgl.Arg) {
	lt := SolidLine
	if len(args) > 0 {
		lt = args[0].Int
	}
	if lt < -1 || lt > 6 {
		c.Errors.Raise(ErrInvalidArg)
		return
	}
	c.lineType = lt
	if lt == SolidLine {
		c.dasher = nil
	} else {
		c.dasher = NewDasher(lt, c.Scale.P1, c.Scale.P2)
	}
}

// setWindow implements IW per Open Question 1's v2 behavior: clamp into
// the physical area rather than rejecting llx>=urx / lly>=ury.
func (c *Core) setWindow(args []hpgl.Arg) {
	if len(args) == 0 {
		c.Window = defaultPhysical()
		return
	}
	if len(args) != 4 {
		c.Errors.Raise(ErrWrongArgCount)
		return
	}
	c.Window = clampWindowV2(args[0].AsFloat(), args[1].AsFloat(), args[2].AsFloat(), args[3].AsFloat())
}

func (c *Core) setScale(args []hpgl.Arg) {
	if len(args) == 0 {
		c.Scale.enabled = false
		return
	}
	if len(args) != 4 {
		c.Errors.Raise(ErrWrongArgCount)
		return
	}
	c.Scale.Sxmin, c.Scale.Sxmax = args[0].AsFloat(), args[1].AsFloat()
	c.Scale.Symin, c.Scale.Symax = args[2].AsFloat(), args[3].AsFloat()
	c.Scale.enabled = true
}

func (c *Core) setCharSizeAbsolute(args []hpgl.Arg) {
	if len(args) != 2 {
		c.Errors.Raise(ErrWrongArgCount)
		return
	}
	c.charSize = Point{args[0].AsFloat() * 1016, args[1].AsFloat() * 1016}
	c.charRel = false
}

func (c *Core) setCharSizeRelative(args []hpgl.Arg) {
	if len(args) != 2 {
		c.Errors.Raise(ErrWrongArgCount)
		return
	}
	diagX := c.Scale.P2.X - c.Scale.P1.X
	diagY := c.Scale.P2.Y - c.Scale.P1.Y
	c.charSize = Point{args[0].AsFloat() / 100 * diagX, args[1].AsFloat() / 100 * diagY}
	c.charRel = true
}

func (c *Core) setCharDirAbsolute(args []hpgl.Arg) {
	if len(args) != 2 {
		c.Errors.Raise(ErrWrongArgCount)
		return
	}
	c.charDir = math.Atan2(args[1].AsFloat(), args[0].AsFloat())
}

func (c *Core) setCharDirRelative(args []hpgl.Arg) {
	c.setCharDirAbsolute(args)
}

func (c *Core) setSlant(args []hpgl.Arg) {
	if len(args) == 0 {
		c.slant = 0
		return
	}
	c.slant = args[0].AsFloat()
}

func (c *Core) setCharSet(args []hpgl.Arg, alternate bool) {
	idx := 0
	if len(args) > 0 {
		idx = args[0].Int
	}
	set := CharSet(idx)
	if alternate {
		set += 0 // CA selects the alternate-slot set by the same index space
	}
	if _, err := Glyph(set, ' '); err != nil {
		c.Errors.Raise(ErrUnknownCharset)
		return
	}
	c.activeSet = set
}

// label renders an LB string: each glyph is drawn relative to the current
// pen position, the pen is repositioned per the cell advance, and the
// zone is re-classified after each glyph, raising position overflow on
// escape from the plotting range (spec.md §4.6).
func (c *Core) label(args []hpgl.Arg) {
	if len(args) == 0 || args[0].Kind != hpgl.ArgString {
		c.Errors.Raise(ErrWrongArgCount)
		return
	}
	text := args[0].Str
	origin := c.Pen
	cursor := Point{}
	for i := 0; i < len(text); i++ {
		code := text[i]
		glyph, err := Glyph(c.activeSet, code)
		if err != nil {
			c.Errors.Raise(ErrInvalidChar)
			continue
		}
		c.drawGlyph(origin, cursor, glyph)
		advance := c.charSize.X
		if !IsAutoBackspace(code) {
			cursor.X += advance
		}
		if c.Zone() == ZoneFaraway {
			c.Errors.Raise(ErrPositionOverflow)
		}
	}
}

// drawGlyph renders one glyph's stroke list, each stroke scaled from the
// 6x8 standard cell to the current character size and sheared by slant,
// clipping each emitted segment individually.
func (c *Core) drawGlyph(origin, cursor Point, strokes []GlyphMove) {
	sx := c.charSize.X / CellWidth
	sy := c.charSize.Y / CellHeight
	pos := Point{}
	wasDown := c.PenDown
	for _, mv := range strokes {
		dx := float64(mv.Dx) * sx
		dy := float64(mv.Dy) * sy
		dx += dy * c.slant
		next := Point{pos.X + dx, pos.Y + dy}
		abs0 := c.labelPoint(origin, cursor, pos)
		abs1 := c.labelPoint(origin, cursor, next)
		if mv.Down {
			c.emitDrawn(abs0, abs1)
		}
		pos = next
	}
	c.Pen = c.labelPoint(origin, cursor, pos)
	c.PenDown = wasDown
}

func (c *Core) labelPoint(origin, cursor, local Point) Point {
	angle := c.charDir
	rx := local.X*math.Cos(angle) - local.Y*math.Sin(angle)
	ry := local.X*math.Sin(angle) + local.Y*math.Cos(angle)
	return Point{origin.X + cursor.X + rx, origin.Y + cursor.Y + ry}
}

// StatusByte assembles the low 6 visible status bits per spec.md §4.6.
func (c *Core) StatusByte() byte {
	var b byte
	if c.PenDown {
		b |= StatusPenDown
	}
	b |= StatusReadyForData
	if c.Errors.LEDOn() {
		b |= StatusError
	}
	return b
}
