// parser.go - 6-state byte FSM decoding Remotizer ASCII lines

package link

// parserState names the six states of the Remotizer line scanner:
// waiting for a type letter, the colon, the hex high nibble, the hex low
// nibble, a terminator, or (after a malformed sequence) skipping forward to
// the next terminator to resynchronize.
type parserState int

const (
	stType parserState = iota
	stColon
	stHiNibble
	stLoNibble
	stTerminator
	stSkip
)

func isTerminator(b byte) bool {
	switch b {
	case ' ', '\r', '\n', ',', ';':
		return true
	default:
		return false
	}
}

func hexVal(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

func typeKind(t byte) (Kind, bool) {
	switch t {
	case 'D':
		return KindData, true
	case 'E':
		return KindEOIData, true
	case 'R':
		return KindReset, true
	case 'S':
		return KindSet, true
	case 'P':
		return KindPPMask, true
	case 'Q':
		return KindPPRequest, true
	case 'J':
		return KindPing, true
	case 'K':
		return KindPong, true
	case 'X':
		return KindCheckpoint, true
	case 'Y':
		return KindCheckpointReached, true
	default:
		return 0, false
	}
}

// Parser is the standalone byte-level FSM described in spec.md §4.1. It has
// no knowledge of TCP; Link feeds it bytes from a transport.ByteStream.
// Invalid sequences are silently resynced at the next terminator rather
// than surfaced as an error, matching the "silently resynced" requirement.
type Parser struct {
	state parserState
	kind  Kind
	hi    byte
	val   byte
}

// NewParser returns a parser in its initial state.
func NewParser() *Parser {
	return &Parser{state: stType}
}

// Feed advances the FSM by one byte, returning a decoded event and true if
// a full line was just recognized.
func (p *Parser) Feed(b byte) (Event, bool) {
	switch p.state {
	case stType, stSkip:
		if k, ok := typeKind(b); ok && p.state == stType {
			p.kind = k
			p.state = stColon
			return Event{}, false
		}
		// A terminator ends any skip; any other byte is a malformed start
		// (or more of one), skipped until the next terminator.
		if isTerminator(b) {
			p.state = stType
		} else {
			p.state = stSkip
		}
		return Event{}, false

	case stColon:
		if b == ':' {
			p.state = stHiNibble
			return Event{}, false
		}
		p.state = stSkip
		return Event{}, false

	case stHiNibble:
		if v, ok := hexVal(b); ok {
			p.hi = v
			p.state = stLoNibble
			return Event{}, false
		}
		p.state = stSkip
		return Event{}, false

	case stLoNibble:
		if v, ok := hexVal(b); ok {
			p.val = p.hi<<4 | v
			p.state = stTerminator
			return Event{}, false
		}
		p.state = stSkip
		return Event{}, false

	case stTerminator:
		if !isTerminator(b) {
			// Missing terminator: the decoded value is discarded since the
			// line was malformed, and bytes are skipped to the next terminator.
			p.state = stSkip
			return Event{}, false
		}
		p.state = stType
		return p.finish(), true
	}
	return Event{}, false
}

func (p *Parser) finish() Event {
	switch p.kind {
	case KindData, KindEOIData, KindPPMask:
		return Event{Kind: p.kind, Byte: p.val}
	case KindReset, KindSet:
		return Event{Kind: p.kind, Signals: Signal(p.val)}
	case KindCheckpointReached:
		return Event{Kind: p.kind, Flushed: p.val == 1}
	default:
		return Event{Kind: p.kind, Byte: p.val}
	}
}

// FeedBytes decodes every complete line in buf, calling emit for each. It
// is the building block for Link's read loop and for the idempotence
// property in spec.md §8 (concatenating streams == concatenating events).
func (p *Parser) FeedBytes(buf []byte, emit func(Event)) {
	for _, b := range buf {
		if ev, ok := p.Feed(b); ok {
			emit(ev)
		}
	}
}
