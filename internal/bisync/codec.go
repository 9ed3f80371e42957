// codec.go - BiSync 2780 decode FSM, the 8 states from spec.md §4.3

package bisync

// State is one of the 8 decoder states from spec.md §4.3.
type State int

const (
	StateHunt State = iota
	StateIdle
	StateNonTransparentText
	StateTransparentText
	StateAfterDLEInTransparent
	StateAfterInitialDLE
	StateWaitingPAD
	StateAfterDLEInHeader
)

// Decoder implements the BiSync byte-wise decode FSM. Feed returns the
// message completed by b, if any.
type Decoder struct {
	state State

	body        []byte
	first       bool
	transparent bool
	pendingKind Kind
	pendingEnd  End

	crcNeeded int
	crcBuf    []byte
}

// NewDecoder returns a decoder starting in the hunt-for-SYN state.
func NewDecoder() *Decoder { return &Decoder{state: StateHunt} }

// Feed processes one input byte and returns a completed Message, if b
// closed one. Outstanding CRC bytes are consumed here before the state
// switch below ever sees them.
func (d *Decoder) Feed(b byte) (Message, bool) {
	if d.crcNeeded > 0 {
		d.crcBuf = append(d.crcBuf, b)
		d.crcNeeded--
		if d.crcNeeded > 0 {
			return Message{}, false
		}
		m := Message{
			Kind:        KindText,
			Body:        append([]byte(nil), d.body...),
			Transparent: d.transparent,
			First:       d.first,
			End:         d.pendingEnd,
		}
		got := uint16(d.crcBuf[0]) | uint16(d.crcBuf[1])<<8
		m.CRCOK = got == CRC16(d.body)
		d.state = StateIdle
		return m, true
	}
	switch d.state {
	case StateHunt:
		if b != ctlSYN {
			return d.feedIdle(b)
		}
		return Message{}, false
	case StateIdle:
		return d.feedIdle(b)
	case StateAfterInitialDLE:
		return d.feedAfterInitialDLE(b)
	case StateNonTransparentText:
		return d.feedText(b, false)
	case StateAfterDLEInHeader:
		return d.feedAfterEscape(b, false)
	case StateTransparentText:
		return d.feedText(b, true)
	case StateAfterDLEInTransparent:
		return d.feedAfterEscape(b, true)
	case StateWaitingPAD:
		d.state = StateIdle
		return d.completeControl()
	}
	return Message{}, false
}

func (d *Decoder) feedIdle(b byte) (Message, bool) {
	switch b {
	case ctlSYN:
		return Message{}, false
	case ctlDLE:
		d.state = StateAfterInitialDLE
	case ctlSTX:
		d.startText(false, false)
	case ctlSOH:
		d.startText(false, true)
	case ctlNAK:
		d.state = StateWaitingPAD
		d.pendingKind = KindNAK
	case ctlEOT:
		d.state = StateWaitingPAD
		d.pendingKind = KindEOT
	case ctlENQ:
		d.state = StateWaitingPAD
		d.pendingKind = KindENQ
	default:
		d.state = StateHunt
	}
	return Message{}, false
}

func (d *Decoder) feedAfterInitialDLE(b byte) (Message, bool) {
	switch b {
	case ctlSTX:
		d.startText(true, false)
	case ctlSOH:
		d.startText(true, true)
	case ctlEOT:
		d.state = StateWaitingPAD
		d.pendingKind = KindDLEEOT
	case ctlACK0:
		d.state = StateWaitingPAD
		d.pendingKind = KindACK0
	case ctlACK1:
		d.state = StateWaitingPAD
		d.pendingKind = KindACK1
	case ctlWACK:
		d.state = StateWaitingPAD
		d.pendingKind = KindWACK
	case ctlRVI:
		d.state = StateWaitingPAD
		d.pendingKind = KindRVI
	default:
		d.state = StateHunt
	}
	return Message{}, false
}

func (d *Decoder) startText(transparent, first bool) {
	d.transparent = transparent
	d.first = first
	d.body = d.body[:0]
	if transparent {
		d.state = StateTransparentText
	} else {
		d.state = StateNonTransparentText
	}
}

func (d *Decoder) feedText(b byte, transparent bool) (Message, bool) {
	if transparent && b == ctlDLE {
		d.state = StateAfterDLEInTransparent
		return Message{}, false
	}
	if !transparent && b == ctlDLE {
		d.state = StateAfterDLEInHeader
		return Message{}, false
	}
	if !transparent && b == ctlSYN {
		return Message{}, false
	}
	if end, ok := terminatorEnd(b); ok {
		return d.closeText(end)
	}
	d.body = append(d.body, b)
	return Message{}, false
}

func (d *Decoder) feedAfterEscape(b byte, transparent bool) (Message, bool) {
	if b == ctlDLE {
		d.body = append(d.body, ctlDLE)
		if transparent {
			d.state = StateTransparentText
		} else {
			d.state = StateNonTransparentText
		}
		return Message{}, false
	}
	if end, ok := terminatorEnd(b); ok {
		return d.closeText(end)
	}
	d.state = StateHunt
	return Message{}, false
}

func terminatorEnd(b byte) (End, bool) {
	switch b {
	case ctlETX:
		return EndETX, true
	case ctlETB:
		return EndETB, true
	case ctlIUS:
		return EndIUS, true
	case ctlENQ:
		return EndENQ, true
	}
	return 0, false
}

func (d *Decoder) closeText(end End) (Message, bool) {
	d.pendingEnd = end
	if end == EndENQ {
		d.pendingKind = KindText
		d.state = StateWaitingPAD
		return Message{}, false
	}
	d.crcNeeded = 2
	d.crcBuf = d.crcBuf[:0]
	d.state = StateWaitingPAD
	d.pendingKind = -1 // marks "collecting CRC, not a control PAD wait"
	return Message{}, false
}

// completeControl runs when StateWaitingPAD consumes its closing byte. For
// control messages that byte is PAD; for text messages it is first routed
// through crc collection before the caller ever re-enters StateWaitingPAD
// for the genuine PAD-or-control case, so here it only needs to finish.
func (d *Decoder) completeControl() (Message, bool) {
	if d.pendingKind == -1 {
		return Message{}, false
	}
	m := Message{Kind: d.pendingKind}
	if d.pendingKind == KindText {
		m.Body = append([]byte(nil), d.body...)
		m.Transparent = d.transparent
		m.First = d.first
		m.End = d.pendingEnd
		m.CRCOK = true
	}
	return m, true
}
