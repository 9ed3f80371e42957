// status.go - Amigo/SS80 status byte and DSJ management

package drive

// Stat1 error codes, per spec.md §4.4.
type Stat1 byte

const (
	Stat1OK           Stat1 = 0x00
	Stat1NotReady     Stat1 = 0x13 // f_bit / not-ready
	Stat1NoSuchUnit   Stat1 = 0x17
	Stat1CHSOverflow  Stat1 = 0x1F
	Stat1IOError      Stat1 = 0x0A
)

// DSJ is the drive service jump byte (0=OK, 1=recoverable error cleared,
// 2=power-up), per spec.md's Data Model and Glossary.
type DSJ byte

const (
	DSJOK       DSJ = 0
	DSJError    DSJ = 1
	DSJPowerUp  DSJ = 2
)

// DSJTracker implements the v2 DSJ transition rule adopted by Open
// Question 2: failed_unit is recorded on every error; the power-up value 2
// is left unchanged by command outcomes and is cleared to 0 only by a DSJ
// talk (TalkDSJ); any new error while DSJ != 2 sets DSJ = 1; DSJ returns to
// 0 on the first subsequent error-free command.
type DSJTracker struct {
	value      DSJ
	FailedUnit int
}

// NewDSJTracker starts in the power-up state.
func NewDSJTracker() *DSJTracker { return &DSJTracker{value: DSJPowerUp} }

// Value returns the current DSJ value without mutating it.
func (d *DSJTracker) Value() DSJ { return d.value }

// RecordOutcome updates DSJ/FailedUnit after a command completes.
// ok == true means the command completed without error.
func (d *DSJTracker) RecordOutcome(unit int, ok bool) {
	if ok {
		if d.value != DSJPowerUp {
			d.value = DSJOK
		}
		return
	}
	d.FailedUnit = unit
	if d.value != DSJPowerUp {
		d.value = DSJError
	}
}

// TalkDSJ implements the read-and-clear semantics of the DSJ talk
// secondary address: returns the current value, then clears 2 -> 0.
func (d *DSJTracker) TalkDSJ() DSJ {
	v := d.value
	if d.value == DSJPowerUp {
		d.value = DSJOK
	}
	return v
}

// AmigoStatus is the 4-byte Amigo status buffer from spec.md §4.4.
type AmigoStatus struct {
	Stat1      Stat1
	FailedUnit byte
	TTTT       byte // transfer/track/type state, shifted left 1 in byte 2
	AnyError   bool
	Addressed  bool
	ReadOnly   bool
	FaultBit   bool
	ChangeBit  bool
	SingleSeek byte // low 2 bits of byte 3
}

// Bytes encodes the 4-byte Amigo status reply.
func (s AmigoStatus) Bytes() [4]byte {
	var b [4]byte
	b[0] = byte(s.Stat1)
	b[1] = s.FailedUnit
	b[2] = s.TTTT << 1
	if s.AnyError {
		b[2] |= 0x80
	}
	if s.Addressed {
		b[3] |= 0x80
	}
	if s.ReadOnly {
		b[3] |= 0x40
	}
	if s.FaultBit {
		b[3] |= 0x08
	}
	if s.ChangeBit {
		b[3] |= 0x04
	}
	b[3] |= s.SingleSeek & 0x03
	return b
}

// AmigoStatusFor builds the Amigo status snapshot for one unit given the
// current error outcome.
func AmigoStatusFor(u *Unit, stat1 Stat1, failedUnit byte) AmigoStatus {
	s := AmigoStatus{
		Stat1:      stat1,
		FailedUnit: failedUnit,
		Addressed:  u != nil,
		ReadOnly:   u != nil && u.ReadOnly,
		FaultBit:   u != nil && u.Status.Fault,
		ChangeBit:  u != nil && u.Status.Change,
	}
	if u != nil && u.Status.SingleSeek {
		s.SingleSeek = 1
	}
	s.AnyError = stat1 != Stat1OK
	return s
}
