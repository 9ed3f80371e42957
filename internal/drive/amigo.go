// amigo.go - Amigo disk protocol sequence state machine and command table

package drive

// SeqState is the Amigo drive-wide sequence sub-state from spec.md §4.4.
type SeqState int

const (
	SeqIdle SeqState = iota
	SeqWaitSendStatus
	SeqWaitSendData
	SeqWaitRxData
	SeqWaitDevClear
	SeqWaitCPUnbuf
	SeqWaitRxDataUnbuf
)

// Amigo opcodes, keyed by listen secondary address.
const (
	opSeek            = 0x02
	opRequestStatus   = 0x03
	opUnbufferedRead  = 0x05
	opVerify          = 0x07
	opUnbufferedWrite = 0x08
	opInitialize      = 0x0B
	opSetAddressRec   = 0x0C
	opRequestLogAddr  = 0x14
	opEnd             = 0x15
	opFormat          = 0x18
)

const (
	saCommand      = 8
	saBufferedW    = 9
	saStatusAlt    = 0xA
	saBufferedRV   = 0xB
	saFormat       = 0xC
	saAmigoClear   = 0x10
	saReceiveData  = 0
)

// Talk secondary addresses.
const (
	talkSendData     = 0
	talkSendAddrStat = 8
	talkDSJ          = 0x10
)

// ActionKind enumerates what an AmigoController asks its caller to do on
// the wire after processing one event.
type ActionKind int

const (
	ActNone ActionKind = iota
	ActTalkData          // send Data bytes as plain D: lines, without EOI
	ActCheckpoint        // issue an X: checkpoint request
	ActSetPPEnable       // update the device's PP-enable gate
)

// Action is one unit of wire-visible work an AmigoController produced.
type Action struct {
	Kind     ActionKind
	Data     []byte
	PPEnable bool
}

// AmigoController drives one Drive through the Amigo protocol.
type AmigoController struct {
	Drive *Drive
	Seq   SeqState

	pendingReadLBA int
	lastErrWasNone bool
}

// NewAmigoController returns a controller over d, sequence state Idle.
func NewAmigoController(d *Drive) *AmigoController {
	return &AmigoController{Drive: d}
}

func (c *AmigoController) unit() (*Unit, byte, Stat1) {
	u := c.Drive.Unit()
	if u == nil {
		return nil, byte(c.Drive.CurrentUnit), Stat1NoSuchUnit
	}
	if !u.Attached() {
		return u, byte(c.Drive.CurrentUnit), Stat1NotReady
	}
	return u, byte(c.Drive.CurrentUnit), Stat1OK
}

func be24(b []byte) int {
	if len(b) < 3 {
		return 0
	}
	return int(b[0])<<16 | int(b[1])<<8 | int(b[2])
}

// HandleListenData processes one closed listen-data transfer addressed to
// secondary address sa, dispatched by (sa, len, opcode) per spec.md's
// Amigo command table.
func (c *AmigoController) HandleListenData(sa int, data []byte) []Action {
	switch sa {
	case saAmigoClear:
		c.Drive.DSJ = NewDSJTracker()
		c.Seq = SeqIdle
		return nil
	case saReceiveData:
		return c.handleReceiveData(data)
	case saCommand:
		return c.handleCommandSA(data)
	case saBufferedW:
		if len(data) >= 2 && data[0] == opUnbufferedWrite {
			c.Seq = SeqWaitRxData
		}
		return nil
	case saStatusAlt:
		if len(data) >= 2 {
			switch data[0] {
			case opRequestStatus, opUnbufferedRead, opRequestLogAddr:
				c.Seq = SeqWaitSendStatus
			}
		}
		return nil
	case saBufferedRV:
		if len(data) >= 2 && data[0] == opUnbufferedRead {
			c.Seq = SeqWaitSendData
		}
		return nil
	case saFormat:
		if len(data) >= 5 && data[0] == opFormat {
			return c.doFormat()
		}
		return nil
	}
	return nil
}

func (c *AmigoController) handleCommandSA(data []byte) []Action {
	if len(data) < 2 {
		return nil
	}
	op := data[0]
	unitNo := data[1]
	if !c.Drive.SelectUnit(int(unitNo)) {
		c.Drive.DSJ.RecordOutcome(int(unitNo), false)
		c.Drive.StatusBuf = AmigoStatusFor(nil, Stat1NoSuchUnit, unitNo).Bytes()
		return nil
	}
	switch op {
	case opSeek:
		if len(data) >= 6 {
			return c.doSeek(data[2:6])
		}
	case opRequestStatus:
		c.Seq = SeqWaitSendStatus
	case opUnbufferedRead:
		return c.doStartUnbufferedRead()
	case opVerify:
		c.recordOutcome(true)
	case opUnbufferedWrite:
		c.Seq = SeqWaitRxDataUnbuf
	case opInitialize:
		c.recordOutcome(true)
	case opSetAddressRec:
		if len(data) >= 6 {
			return c.doSeek(data[2:6])
		}
	case opRequestLogAddr:
		c.Seq = SeqWaitSendStatus
	case opEnd:
		c.Seq = SeqIdle
	}
	return nil
}

func (c *AmigoController) doSeek(chsBytes []byte) []Action {
	u, unitNo, stat1 := c.unit()
	if stat1 != Stat1OK {
		c.recordOutcomeUnit(false, unitNo)
		return nil
	}
	chs := CHS{Cylinder: int(chsBytes[0])<<8 | int(chsBytes[1]), Head: int(chsBytes[2]), Sector: int(chsBytes[3])}
	lba, err := u.Geometry.CHSToLBA(chs)
	if err != nil {
		c.recordOutcomeUnit(false, unitNo)
		return nil
	}
	u.CurrentLBA = lba
	c.recordOutcomeUnit(true, unitNo)
	return nil
}

func (c *AmigoController) doStartUnbufferedRead() []Action {
	u, unitNo, stat1 := c.unit()
	if stat1 != Stat1OK {
		c.recordOutcomeUnit(false, unitNo)
		return nil
	}
	buf := make([]byte, u.BytesPerSector)
	if err := u.ReadSector(u.CurrentLBA, buf); err != nil {
		c.recordOutcomeUnit(false, unitNo)
		return nil
	}
	c.recordOutcomeUnit(true, unitNo)
	c.pendingReadLBA = u.CurrentLBA + 1
	c.Seq = SeqWaitCPUnbuf
	return []Action{{Kind: ActTalkData, Data: buf}, {Kind: ActCheckpoint}}
}

// CheckpointReached continues or ends an unbuffered read transfer per
// spec.md §4.4: flushed ends the transfer and re-enables PP; otherwise the
// next sector is read and transmitted.
func (c *AmigoController) CheckpointReached(flushed bool) []Action {
	if c.Seq != SeqWaitCPUnbuf {
		return nil
	}
	if flushed {
		c.Seq = SeqIdle
		return []Action{{Kind: ActSetPPEnable, PPEnable: true}}
	}
	u, unitNo, stat1 := c.unit()
	if stat1 != Stat1OK {
		c.recordOutcomeUnit(false, unitNo)
		c.Seq = SeqIdle
		return nil
	}
	buf := make([]byte, u.BytesPerSector)
	if err := u.ReadSector(c.pendingReadLBA, buf); err != nil {
		c.recordOutcomeUnit(false, unitNo)
		c.Seq = SeqIdle
		return nil
	}
	c.recordOutcomeUnit(true, unitNo)
	c.pendingReadLBA++
	return []Action{{Kind: ActTalkData, Data: buf}, {Kind: ActCheckpoint}}
}

func (c *AmigoController) handleReceiveData(data []byte) []Action {
	u, unitNo, stat1 := c.unit()
	if stat1 != Stat1OK {
		c.recordOutcomeUnit(false, unitNo)
		c.Seq = SeqIdle
		return nil
	}
	buf := make([]byte, u.BytesPerSector)
	copy(buf, data)
	if err := u.WriteSector(u.CurrentLBA, buf); err != nil {
		c.recordOutcomeUnit(false, unitNo)
		c.Seq = SeqIdle
		return nil
	}
	u.CurrentLBA++
	c.recordOutcomeUnit(true, unitNo)
	c.Seq = SeqIdle
	return nil
}

func (c *AmigoController) doFormat() []Action {
	_, unitNo, stat1 := c.unit()
	c.recordOutcomeUnit(stat1 == Stat1OK, unitNo)
	c.Seq = SeqIdle
	return nil
}

func (c *AmigoController) recordOutcome(ok bool) {
	c.recordOutcomeUnit(ok, byte(c.Drive.CurrentUnit))
}

func (c *AmigoController) recordOutcomeUnit(ok bool, unitNo byte) {
	c.Drive.DSJ.RecordOutcome(int(unitNo), ok)
	u, _, stat1 := c.unit()
	if !ok && stat1 == Stat1OK {
		stat1 = Stat1IOError
	}
	status := AmigoStatusFor(u, pick(ok, Stat1OK, stat1), unitNo)
	c.Drive.StatusBuf = status.Bytes()
}

func pick(ok bool, onOK, onErr Stat1) Stat1 {
	if ok {
		return onOK
	}
	return onErr
}

// TalkData returns the reply bytes and whether the controller has
// anything to say for the given talk secondary address, handling SA 0
// (send data), SA 8 (send addr/status), and SA 0x10 (DSJ).
func (c *AmigoController) TalkData(sa int) ([]byte, bool) {
	switch sa {
	case talkSendAddrStat:
		b := c.Drive.StatusBuf
		c.Seq = SeqIdle
		return b[:], true
	case talkDSJ:
		return []byte{byte(c.Drive.DSJ.TalkDSJ())}, true
	case talkSendData:
		u := c.Drive.Unit()
		if u == nil || !u.Attached() {
			return nil, false
		}
		buf := make([]byte, u.BytesPerSector)
		if err := u.ReadSector(u.CurrentLBA, buf); err != nil {
			return nil, false
		}
		return buf, true
	default:
		return nil, false
	}
}
