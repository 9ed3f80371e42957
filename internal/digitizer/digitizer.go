// digitizer.go - HP9111 digitizer state machine

// Package digitizer implements the HP9111 digitizer state machine from
// spec.md §4.7: pen events latched on a fixed-rate timer, menu soft-key
// decoding, and the sound subsystem's note synthesis parameters.
package digitizer

// State names the HP9111's top-level states from spec.md §4.7.
type State int

const (
	StateStart State = iota
	StateSelfTest
	StateIdle
	StateSNNoDgtz // single-point mode, no digitize pending
	StateSNDgtz   // single-point mode, digitize pending
	StateSFNoDgtz // stream mode, no digitize pending
	StateSFDgtz   // stream mode, digitize pending
	StateSG       // soft-key (menu) mode
	StateDP       // data-point mode (digitize in progress)
)

// PenEvent is one asynchronously arriving pen sample, latched by the
// sample timer rather than processed immediately (spec.md §4.7).
type PenEvent struct {
	X, Y      int
	Pressed   bool
	Proximity bool
}

// InputErrorMask is the (IM1, IM2, reserved) triple spec.md §4.7 names,
// defaulting to (0x07, 0, 0); valid bits are masked by validIMBits.
type InputErrorMask struct {
	IM1, IM2, Reserved int
}

// DefaultInputErrorMask returns the HP9111's factory default mask.
func DefaultInputErrorMask() InputErrorMask { return InputErrorMask{IM1: 0x07} }

// validIMBits is the valid IM1/IM2 bit mask from spec.md §4.7.
const validIMBits = 0x3BC

// MenuZoneMinY is the Y coordinate at and above which pen position decodes
// as a soft-key press rather than a digitized point (spec.md §4.7).
const MenuZoneMinY = 8832

// SoftKeyCount is the number of soft keys in the menu zone.
const SoftKeyCount = 16

// SoftKey describes one menu zone button's bounding box.
type SoftKey struct {
	MinX, MaxX, MinY, MaxY int
	Index                  int
}

// DefaultSoftKeys lays out 16 equal-width keys across the menu zone,
// spanning the physical width used by the rest of the bridge suite.
func DefaultSoftKeys() [SoftKeyCount]SoftKey {
	var keys [SoftKeyCount]SoftKey
	const width = 16000 / SoftKeyCount
	for i := 0; i < SoftKeyCount; i++ {
		keys[i] = SoftKey{
			MinX: i * width, MaxX: (i + 1) * width,
			MinY: MenuZoneMinY, MaxY: 11400,
			Index: i,
		}
	}
	return keys
}

// DecodeSoftKey returns the soft key index under (x,y), or -1 if the
// point falls outside the menu zone or between key boundaries.
func DecodeSoftKey(keys [SoftKeyCount]SoftKey, x, y int) int {
	if y < MenuZoneMinY {
		return -1
	}
	for _, k := range keys {
		if x >= k.MinX && x < k.MaxX && y >= k.MinY && y < k.MaxY {
			return k.Index
		}
	}
	return -1
}

// Digitizer is the per-connection HP9111 state, consuming PenEvents on a
// fixed sample-rate timer tick and tracking the current top-level state.
type Digitizer struct {
	State    State
	Mask     InputErrorMask
	RateHz   int // 1..60, configurable, default 60 per spec.md §4.7
	SoftKeys [SoftKeyCount]SoftKey

	// LastPoint is the most recently digitized (x,y), valid whenever Tick
	// last returned dataPoint == true.
	LastPoint struct{ X, Y int }

	latched     PenEvent
	haveLatched bool
}

// New returns a digitizer at its default 60Hz sample rate.
func New() *Digitizer {
	return &Digitizer{
		State:    StateStart,
		Mask:     DefaultInputErrorMask(),
		RateHz:   60,
		SoftKeys: DefaultSoftKeys(),
	}
}

// SetRate configures the sample timer rate, clamped to 1..60 Hz.
func (d *Digitizer) SetRate(hz int) {
	if hz < 1 {
		hz = 1
	}
	if hz > 60 {
		hz = 60
	}
	d.RateHz = hz
}

// SetMask validates and stores an input/error mask, masking invalid bits.
func (d *Digitizer) SetMask(m InputErrorMask) {
	d.Mask.IM1 = m.IM1 & (validIMBits & 0xFF)
	d.Mask.IM2 = m.IM2 & (validIMBits >> 8)
}

// Latch records the most recent pen sample; it is applied to the state
// machine only when the sample timer ticks (Tick), matching the "pen
// events arrive asynchronously and are latched on a timer" rule.
func (d *Digitizer) Latch(ev PenEvent) {
	d.latched = ev
	d.haveLatched = true
}

// Tick applies the latched pen sample to the state machine and returns
// the resulting soft-key index (-1 if none) and whether a data point was
// produced.
func (d *Digitizer) Tick() (softKey int, dataPoint bool) {
	if !d.haveLatched {
		return -1, false
	}
	d.haveLatched = false
	ev := d.latched

	if d.State == StateStart {
		d.State = StateSelfTest
	}
	if d.State == StateSelfTest {
		d.State = StateIdle
	}

	if ev.Pressed && ev.Y >= MenuZoneMinY {
		key := DecodeSoftKey(d.SoftKeys, ev.X, ev.Y)
		d.State = StateSG
		return key, false
	}
	if ev.Pressed {
		d.State = StateDP
		d.LastPoint.X, d.LastPoint.Y = ev.X, ev.Y
		return -1, true
	}
	if ev.Proximity {
		d.State = StateSNDgtz
		return -1, false
	}
	d.State = StateIdle
	return -1, false
}
