package plotter

import (
	"testing"

	"github.com/hpvintage/remotizer/internal/hpgl"
)

func exec(c *Core, text string) {
	l := hpgl.NewLexer([]byte(text))
	for {
		cmd, ok := l.Next()
		if !ok {
			break
		}
		c.Exec(cmd)
	}
}

// TestPlotterDrawSegment exercises spec.md §8 scenario 4: IN;SP1;PA
// 1000,1000;PD;PA 2000,2000; emits exactly one segment with pen 1.
func TestPlotterDrawSegment(t *testing.T) {
	var segs []Segment
	c := NewCore()
	c.OnSegment = func(s Segment) { segs = append(segs, s) }
	exec(c, "IN;SP1;PA 1000,1000;PD;PA 2000,2000;")
	if len(segs) != 1 {
		t.Fatalf("segs = %d, want 1: %+v", len(segs), segs)
	}
	if segs[0].Pen != 1 {
		t.Fatalf("pen = %d, want 1", segs[0].Pen)
	}
	if segs[0].P1 != (Point{1000, 1000}) || segs[0].P2 != (Point{2000, 2000}) {
		t.Fatalf("segment = %+v", segs[0])
	}
}

// TestPlotterClipping exercises spec.md §8 scenario 5: a window reduced
// via IW to [0,1000)x[0,1000) clips PA -500,500; PD; PA 1500,500; to
// exactly ((0,500),(1000,500)).
func TestPlotterClipping(t *testing.T) {
	var segs []Segment
	c := NewCore()
	c.OnSegment = func(s Segment) { segs = append(segs, s) }
	exec(c, "IN;IW 0,0,1000,1000;PA -500,500;PD;PA 1500,500;")
	if len(segs) != 1 {
		t.Fatalf("segs = %d: %+v", len(segs), segs)
	}
	got := segs[0]
	if got.P1 != (Point{0, 500}) || got.P2 != (Point{1000, 500}) {
		t.Fatalf("clipped segment = %+v, want (0,500)-(1000,500)", got)
	}
}

func TestPlotterNoSegmentWhenPenUp(t *testing.T) {
	var segs []Segment
	c := NewCore()
	c.OnSegment = func(s Segment) { segs = append(segs, s) }
	exec(c, "IN;PA 0,0;PU;PA 1000,1000;")
	if len(segs) != 0 {
		t.Fatalf("segs = %+v, want none while pen is up", segs)
	}
}

func TestPlotterUnknownCommandLatchesError(t *testing.T) {
	c := NewCore()
	exec(c, "ZZ;")
	if c.Errors.Current() != ErrUnknownCommand {
		t.Fatalf("error = %v, want ErrUnknownCommand", c.Errors.Current())
	}
	if c.StatusByte()&StatusError == 0 {
		t.Fatal("status byte should have error bit set")
	}
}

func TestPlotterErrorLatchKeepsFirstError(t *testing.T) {
	c := NewCore()
	exec(c, "ZZ;")
	first := c.Errors.Current()
	exec(c, "QQ;")
	if c.Errors.Current() != first {
		t.Fatalf("latch should keep the first error, got %v", c.Errors.Current())
	}
}

func TestClipLiangBarskyOutside(t *testing.T) {
	w := Rect{Point{0, 0}, Point{100, 100}}
	_, _, ok := ClipLiangBarsky(Point{200, 200}, Point{300, 300}, w)
	if ok {
		t.Fatal("expected segment entirely outside the window to be dropped")
	}
}

func TestClipLiangBarskyFullyInside(t *testing.T) {
	w := Rect{Point{0, 0}, Point{100, 100}}
	p0, p1, ok := ClipLiangBarsky(Point{10, 10}, Point{90, 90}, w)
	if !ok || p0 != (Point{10, 10}) || p1 != (Point{90, 90}) {
		t.Fatalf("got %v %v %v", p0, p1, ok)
	}
}

func TestZoneClassification(t *testing.T) {
	w := defaultPhysical()
	if classifyZone(Point{100, 100}, w) != ZoneInWindow {
		t.Fatal("expected in-window")
	}
	if classifyZone(Point{40000, 0}, w) != ZoneFaraway {
		t.Fatal("expected faraway beyond the far zone threshold")
	}
}
