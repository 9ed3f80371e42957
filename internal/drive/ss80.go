// ss80.go - SS/80 disk protocol: richer per-unit state and 64-bit status mask

package drive

import "encoding/binary"

// SS80SeqState is the per-unit decoder sub-state from spec.md §4.4.
type SS80SeqState int

const (
	SS80Idle SS80SeqState = iota
	SS80LocRead
	SS80LocWrite
	SS80Describe
	SS80Download
	SS80ReqStatus
	SS80ReadLoop
	SS80WriteLoop
	SS80ValidateKey
	SS80SetFmt
	SS80EndNoEppr
	SS80Ready
)

// SS80 status-bit assignments, well-known bit numbers in the 64-bit mask.
const (
	BitInUse          = 5
	BitPowerFail      = 10
	BitCheckpointFlush = 12
	BitError30        = 24
	BitPowerFail2     = 30
	BitSpareError     = 34
	BitUnitNotReady   = 35
	BitReadOnly       = 36
	BitEndOfVolume    = 44
)

// SS80 command-stream (listen SA 0x05) sub-opcodes.
const (
	subSelectUnit    = 0x20
	subSetAddress    = 0x10
	subSetLength     = 0x18
	subSetStatusMask = 0x3E
	subDiagnostic    = 0x33
	subDescribe      = 0x35
	subInitMedia     = 0x37
)

var validateKeyOp = []byte{0x31, 0xF1, 0x02}
var setFormatOp = []byte{0x31, 0xF3, 0x5F}

const (
	ss80SACommand  = 0x05
	ss80SAData     = 0x0E
	ss80SAAmigoClr = 0x10
	ss80SAUtility  = 0x12
)

const (
	ss80TalkData = 0x0E
	ss80TalkQStat = 0x10
	ss80TalkLoopback = 0x12
)

// SS80Error is the bounded exception type for SS/80 device errors,
// mapping directly onto one of the well-known status bits.
type SS80Error struct {
	Bit int
}

func (e SS80Error) Error() string { return "ss80: status bit error" }

// SS80Unit wraps a Unit with the 64-bit status mask/statusbits bitmap and
// sequence sub-state SS/80 requires in addition to the shared Unit type.
type SS80Unit struct {
	*Unit
	Mask       uint64 // enabled status bits (SRQ/PP gating)
	StatusBits uint64
	Seq        SS80SeqState
	Address    uint32
	Length     uint32
}

// NewSS80Unit wraps an existing Unit for SS/80 use.
func NewSS80Unit(u *Unit) *SS80Unit { return &SS80Unit{Unit: u, Mask: ^uint64(0)} }

func (u *SS80Unit) setBit(bit int) {
	u.StatusBits |= 1 << uint(bit)
}

func (u *SS80Unit) clearBit(bit int) {
	u.StatusBits &^= 1 << uint(bit)
}

// raise sets a status bit subject to mask and clamps sequence sub-state,
// per spec.md §4.4 ("each error sets the corresponding status bit subject
// to mask and clamps the sequence sub-state").
func (u *SS80Unit) raise(err SS80Error) {
	if u.Mask&(1<<uint(err.Bit)) != 0 {
		u.setBit(err.Bit)
	}
	u.Seq = SS80EndNoEppr
}

// QSTAT values returned by talk SA 0x10.
const (
	QStatOK      = 0
	QStatPending = 1
	QStatError   = 2
)

// SS80Controller drives a set of SS80Unit through the SS/80 protocol.
type SS80Controller struct {
	Units   []*SS80Unit
	current int
	qstat   byte
	loopback []byte
}

// NewSS80Controller returns a controller over the given units.
func NewSS80Controller(units ...*SS80Unit) *SS80Controller {
	return &SS80Controller{Units: units}
}

func (c *SS80Controller) unit() *SS80Unit {
	if c.current < 0 || c.current >= len(c.Units) {
		return nil
	}
	return c.Units[c.current]
}

// HandleListenData dispatches one closed listen-data transfer to the SS/80
// command stream (SA 0x05), data channel (SA 0x0E), Amigo-clear
// compatibility (SA 0x10), or utility channel (SA 0x12).
func (c *SS80Controller) HandleListenData(sa int, data []byte) {
	switch sa {
	case ss80SACommand:
		c.handleCommandStream(data)
	case ss80SAData:
		c.handleDataChannel(data)
	case ss80SAAmigoClr:
		for _, u := range c.Units {
			u.StatusBits = 0
			u.Seq = SS80Idle
		}
	case ss80SAUtility:
		c.handleUtility(data)
	}
}

func (c *SS80Controller) handleCommandStream(data []byte) {
	if len(data) == 0 {
		return
	}
	switch {
	case hasPrefix(data, validateKeyOp):
		u := c.unit()
		if u != nil {
			u.Seq = SS80ValidateKey
			c.qstat = QStatOK
		}
		return
	case hasPrefix(data, setFormatOp):
		u := c.unit()
		if u != nil {
			u.Seq = SS80SetFmt
		}
		return
	}

	switch data[0] {
	case subSelectUnit:
		if len(data) >= 2 {
			idx := int(data[1])
			if idx >= 0 && idx < len(c.Units) {
				c.current = idx
			} else if u := c.unit(); u != nil {
				u.raise(SS80Error{Bit: BitUnitNotReady})
			}
		}
	case subSetAddress:
		if u := c.unit(); u != nil && len(data) >= 5 {
			u.Address = binary.BigEndian.Uint32(data[1:5])
			u.CurrentLBA = int(u.Address)
		}
	case subSetLength:
		if u := c.unit(); u != nil && len(data) >= 3 {
			u.Length = uint32(data[1])<<8 | uint32(data[2])
		}
	case subSetStatusMask:
		if u := c.unit(); u != nil && len(data) >= 9 {
			u.Mask = binary.BigEndian.Uint64(data[1:9])
		}
	case subDiagnostic:
		c.qstat = QStatOK
	case subDescribe:
		if u := c.unit(); u != nil {
			u.Seq = SS80Describe
		}
	case subInitMedia:
		if u := c.unit(); u != nil {
			u.Seq = SS80Idle
			u.StatusBits = 0
		}
	case 0x00, 0x02, 0x04, 0x06, 0x0D, 0x0F:
		c.dispatchPrimary(data[0])
	}
}

func (c *SS80Controller) dispatchPrimary(op byte) {
	u := c.unit()
	if u == nil {
		return
	}
	if !u.Attached() {
		u.raise(SS80Error{Bit: BitUnitNotReady})
		c.qstat = QStatError
		return
	}
	switch op {
	case 0x00, 0x0D:
		u.Seq = SS80LocRead
	case 0x02:
		u.Seq = SS80LocWrite
	case 0x04:
		u.Seq = SS80ReadLoop
	case 0x06:
		u.Seq = SS80WriteLoop
	case 0x0F:
		u.Seq = SS80ReqStatus
	}
	c.qstat = QStatOK
}

func (c *SS80Controller) handleDataChannel(data []byte) {
	u := c.unit()
	if u == nil {
		return
	}
	switch u.Seq {
	case SS80LocWrite, SS80WriteLoop:
		if int(u.CurrentLBA) >= u.Geometry.LBACapacity() {
			u.raise(SS80Error{Bit: BitEndOfVolume})
			return
		}
		buf := make([]byte, u.BytesPerSector)
		copy(buf, data)
		if err := u.WriteSector(u.CurrentLBA, buf); err != nil {
			u.raise(SS80Error{Bit: BitSpareError})
			return
		}
		u.CurrentLBA++
		u.Seq = SS80Ready
	case SS80ValidateKey, SS80SetFmt:
		u.Seq = SS80Ready
	}
}

func (c *SS80Controller) handleUtility(data []byte) {
	if len(data) == 0 {
		return
	}
	switch data[0] {
	case 0x01:
		// parity/SRQ enable, accepted without further state.
	case 0x02, 0x03:
		c.loopback = append([]byte(nil), data[1:]...)
	case 0x08:
		for _, u := range c.Units {
			u.StatusBits = 0
		}
	case 0x09:
		// cancel: no-op, current op already committed synchronously here.
	default:
		if data[0]&0xF0 == 0x20 && len(data) >= 2 {
			switch data[1] {
			case 0x08:
				if u := c.unit(); u != nil {
					u.StatusBits = 0
				}
			case 0x09:
			}
		}
	}
}

// TalkData returns the reply for talk secondary addresses 0x0E (data), 0x10
// (QSTAT), and 0x12 (loopback).
func (c *SS80Controller) TalkData(sa int) ([]byte, bool) {
	switch sa {
	case ss80TalkData:
		u := c.unit()
		if u == nil || !u.Attached() {
			return nil, false
		}
		buf := make([]byte, u.BytesPerSector)
		if u.Seq == SS80LocRead || u.Seq == SS80ReadLoop {
			if err := u.ReadSector(u.CurrentLBA, buf); err != nil {
				u.raise(SS80Error{Bit: BitSpareError})
				return nil, false
			}
			u.CurrentLBA++
			u.Seq = SS80Ready
		}
		return buf, true
	case ss80TalkQStat:
		return []byte{c.qstat}, true
	case ss80TalkLoopback:
		return c.loopback, true
	}
	return nil, false
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i := range prefix {
		if data[i] != prefix[i] {
			return false
		}
	}
	return true
}
