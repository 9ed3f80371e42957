// fsm.go - HPIBDeviceFSM: primary/secondary addressing and talk/listen state

// Package hpib classifies RemotizerLink byte events into higher-level
// HP-IB events (listen data, talk enable, identify, serial poll, parallel
// poll, device clear) for one device address, per spec.md §4.2.
package hpib

import "github.com/hpvintage/remotizer/internal/link"

// PrimaryState is the device's HP-IB talk/listen/serial-poll state.
type PrimaryState int

const (
	Idle PrimaryState = iota
	TADS              // addressed to talk
	LADS              // addressed to listen
	SPAS              // serial-poll active
)

// SecondaryGate tracks which secondary-address role the next 0x60..0x7F
// byte should be interpreted as.
type SecondaryGate int

const (
	GateNone SecondaryGate = iota
	GatePACS               // primary command addressed state: SA = listen SA
	GateTPAS               // SA after MTA: talk SA
	GateLPAS               // SA after MLA: listen SA (same as PACS for this FSM)
	GateUNT                // SA after UNT: identify
)

// PollState is the serial-poll sub-state machine.
type PollState int

const (
	NPRS PollState = iota // not polled
	SRQS                  // SRQ requested, not yet polled
	APRS                  // active poll response state
)

// Addressing bytes per spec.md §4.2.
const (
	cmdDCL = 0x14
	cmdSDC = 0x04
	cmdPPC = 0x05
	cmdSPE = 0x18
	cmdSPD = 0x19
	cmdUNL = 0x3F
	cmdUNT = 0x5F
)

func mla(addr int) byte { return 0x20 | byte(addr) }
func mta(addr int) byte { return 0x40 | byte(addr) }
func msaBase() byte     { return 0x60 }

// EventKind enumerates the higher-level events FSM produces for a device
// core to consume.
type EventKind int

const (
	EvDeviceClear EventKind = iota
	EvTalk
	EvIdentify
	EvListenData
	EvUnlisten
	EvSerialPollByte
	EvPPMaskRequest
	EvPPMaskUpdate
	EvDisconnected
)

// DeviceEvent is what FSM emits for the owning device core to dispatch.
type DeviceEvent struct {
	Kind        EventKind
	SecondaryAddr int
	Data        []byte
	End         bool // for EvListenData: true if this chunk closes the transfer
	StatusByte  byte // for EvSerialPollByte
	PPMask      byte
}

// FSM is the per-device HP-IB address state machine.
type FSM struct {
	Addr int // 5-bit primary address this instance answers to

	primary   PrimaryState
	gate      SecondaryGate
	poll      PollState
	untArmed  bool

	spe bool // serial-poll-mode enabled (between SPE/SPD)

	listenSA  int
	talkSA    int
	haveListenSA bool
	haveTalkSA bool
	accum     []byte

	ppEnable bool
	ppMask   byte

	pendingTalk     bool
	pendingIdentify bool

	atn bool

	// StatusByte is consulted when a serial poll completes; the device
	// core sets it before Handle processes the ATN-deassert that would
	// trigger SPAS.
	StatusByte func() byte
}

// New returns an FSM answering to the given 5-bit primary address.
func New(addr int) *FSM {
	return &FSM{Addr: addr & 0x1F}
}

// SetPPEnable toggles whether this device contributes its parallel-poll
// bit when queried.
func (f *FSM) SetPPEnable(enable bool) { f.ppEnable = enable }

// PPResponseBit is `0x80 >> (addr & 7)`, this device's contribution to a Q: poll
// mask, gated by ppEnable.
func (f *FSM) PPResponseBit() byte {
	if !f.ppEnable {
		return 0
	}
	return 0x80 >> uint(f.Addr&0x7)
}

// Handle consumes one decoded link.Event and returns zero or more device
// events. A link-layer event may resolve into at most one device event in
// this model except for listen-data boundary flushes.
func (f *FSM) Handle(ev link.Event) []DeviceEvent {
	switch ev.Kind {
	case link.KindReset:
		return f.applySignals(ev.Signals, true)
	case link.KindSet:
		return f.applySignals(ev.Signals, false)
	case link.KindData:
		return f.handleByte(ev.Byte, false)
	case link.KindEOIData:
		return f.handleByte(ev.Byte, true)
	case link.KindPPRequest:
		return []DeviceEvent{{Kind: EvPPMaskRequest}}
	case link.KindPPMask:
		f.ppMask = ev.Byte
		return []DeviceEvent{{Kind: EvPPMaskUpdate, PPMask: ev.Byte}}
	case link.KindDisconnected:
		f.reset()
		return []DeviceEvent{{Kind: EvDisconnected}}
	default:
		return nil
	}
}

func (f *FSM) reset() {
	*f = FSM{Addr: f.Addr, StatusByte: f.StatusByte}
}

func (f *FSM) applySignals(sig link.Signal, assert bool) []DeviceEvent {
	atnChanging := sig.Has(link.SigATN)
	if !atnChanging {
		return nil
	}
	wasATN := f.atn
	f.atn = assert
	if wasATN && !f.atn {
		return f.atnDeasserted()
	}
	return nil
}

// atnDeasserted commits deferred Talk/Identify events and, if a serial
// poll was armed while addressed to talk, moves into SPAS and returns the
// status byte.
func (f *FSM) atnDeasserted() []DeviceEvent {
	var out []DeviceEvent
	if f.spe && f.primary == TADS {
		f.primary = SPAS
		var sb byte
		if f.StatusByte != nil {
			sb = f.StatusByte()
		}
		out = append(out, DeviceEvent{Kind: EvSerialPollByte, StatusByte: sb})
		return out
	}
	if f.pendingIdentify {
		f.pendingIdentify = false
		out = append(out, DeviceEvent{Kind: EvIdentify})
	} else if f.pendingTalk {
		f.pendingTalk = false
		out = append(out, DeviceEvent{Kind: EvTalk, SecondaryAddr: f.talkSA})
	}
	return out
}

func (f *FSM) handleByte(b byte, eoi bool) []DeviceEvent {
	if !f.atn {
		// Data byte during listen: accumulate.
		if f.primary == LADS {
			return f.accumulate(b, eoi)
		}
		return nil
	}
	raw := b & 0x7F // 7-bit strip, parity ignored

	switch {
	case raw == cmdDCL:
		return []DeviceEvent{{Kind: EvDeviceClear}}
	case raw == cmdSDC && f.primary == LADS:
		return []DeviceEvent{{Kind: EvDeviceClear}}
	case raw == cmdPPC && f.primary == LADS:
		// PPE/PPD parsing armed but not implemented beyond capture, per spec.
		return nil
	case raw == cmdSPE:
		f.spe = true
		return nil
	case raw == cmdSPD:
		f.spe = false
		if f.primary == SPAS {
			f.primary = TADS
		}
		return nil
	case raw == mla(f.Addr):
		f.primary = LADS
		f.gate = GateLPAS
		f.accum = f.accum[:0]
		f.haveListenSA = false
		return nil
	case raw == mta(f.Addr):
		f.primary = TADS
		f.gate = GateTPAS
		f.pendingTalk = true
		return nil
	case raw == cmdUNL && f.primary == LADS:
		f.primary = Idle
		f.accum = f.accum[:0]
		return f.flushListenLocked(true)
	case raw == cmdUNT:
		f.untArmed = true
		f.gate = GateUNT
		if f.primary == TADS {
			f.primary = Idle
		}
		return nil
	case raw&0x60 == 0x60:
		return f.handleSecondary(raw)
	case raw&0x60 == 0x40:
		// Other talk address (OTA) not ours: stop talking.
		if f.primary == TADS {
			f.primary = Idle
			f.pendingTalk = false
		}
		return nil
	}
	return nil
}

func (f *FSM) handleSecondary(raw byte) []DeviceEvent {
	sa := int(raw & 0x1F)
	switch f.gate {
	case GateUNT:
		f.untArmed = false
		if sa == f.Addr {
			f.pendingIdentify = true
		}
		return nil
	case GateLPAS, GatePACS:
		if f.haveListenSA && f.listenSA != sa {
			out := f.flushListenLocked(false)
			f.listenSA = sa
			f.haveListenSA = true
			return out
		}
		f.listenSA = sa
		f.haveListenSA = true
		return nil
	case GateTPAS:
		f.talkSA = sa
		f.haveTalkSA = true
		return nil
	default:
		return nil
	}
}

func (f *FSM) accumulate(b byte, eoi bool) []DeviceEvent {
	f.accum = append(f.accum, b)
	if eoi {
		return f.flushListenLocked(true)
	}
	if len(f.accum) >= 256 {
		return f.flushListenLocked(false)
	}
	return nil
}

func (f *FSM) flushListenLocked(end bool) []DeviceEvent {
	if len(f.accum) == 0 && !end {
		return nil
	}
	data := append([]byte(nil), f.accum...)
	f.accum = f.accum[:0]
	sa := -1
	if f.haveListenSA {
		sa = f.listenSA
	}
	return []DeviceEvent{{Kind: EvListenData, SecondaryAddr: sa, Data: data, End: end}}
}
