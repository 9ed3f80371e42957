package drive

import "testing"

type memImage struct {
	buf []byte
	pos int64
}

func newMemImage(size int) *memImage { return &memImage{buf: make([]byte, size)} }

func (m *memImage) Read(p []byte) (int, error) {
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}
func (m *memImage) Write(p []byte) (int, error) {
	n := copy(m.buf[m.pos:], p)
	m.pos += int64(n)
	return n, nil
}
func (m *memImage) Seek(offset int64, whence int) (int64, error) {
	m.pos = offset
	return m.pos, nil
}

func readyUnit() *Unit {
	u := NewUnit(Geometry{Cylinders: 1, Heads: 1, Sectors: 4}, 256)
	u.Attach(newMemImage(4*256), false)
	return u
}

func TestAmigoRequestStatusReady(t *testing.T) {
	d := NewDrive(readyUnit())
	d.DSJ.RecordOutcome(0, true) // an earlier successful op; DSJ stays at power-up (2)
	d.DSJ = NewDSJTracker()
	c := NewAmigoController(d)

	c.HandleListenData(saCommand, []byte{opRequestStatus, 0x00})
	data, ok := c.TalkData(talkSendAddrStat)
	if !ok {
		t.Fatalf("expected status reply")
	}
	if len(data) != 4 {
		t.Fatalf("status reply len = %d, want 4", len(data))
	}
	if data[0] != 0 {
		t.Errorf("STAT1 = %#x, want 0", data[0])
	}
}

func TestAmigoDSJPowerUpThenOK(t *testing.T) {
	d := NewDrive(readyUnit())
	c := NewAmigoController(d)

	if v := d.DSJ.TalkDSJ(); v != DSJPowerUp {
		t.Fatalf("first DSJ talk = %v, want power-up", v)
	}
	c.HandleListenData(saCommand, []byte{opRequestStatus, 0x00})
	if v := d.DSJ.Value(); v != DSJOK {
		t.Fatalf("DSJ after first error-free command = %v, want OK", v)
	}
}

func TestAmigoUnbufferedReadCheckpointFlow(t *testing.T) {
	d := NewDrive(readyUnit())
	c := NewAmigoController(d)

	actions := c.HandleListenData(saCommand, []byte{opUnbufferedRead, 0x00})
	if len(actions) != 2 || actions[0].Kind != ActTalkData || actions[1].Kind != ActCheckpoint {
		t.Fatalf("unexpected actions %+v", actions)
	}
	if c.Seq != SeqWaitCPUnbuf {
		t.Fatalf("seq = %v, want SeqWaitCPUnbuf", c.Seq)
	}

	more := c.CheckpointReached(false)
	if len(more) != 2 || more[0].Kind != ActTalkData {
		t.Fatalf("continuation actions = %+v", more)
	}

	done := c.CheckpointReached(true)
	if len(done) != 1 || done[0].Kind != ActSetPPEnable || !done[0].PPEnable {
		t.Fatalf("flush actions = %+v", done)
	}
	if c.Seq != SeqIdle {
		t.Fatalf("seq after flush = %v, want Idle", c.Seq)
	}
}

func TestAmigoSeekSelectsAddressedUnit(t *testing.T) {
	d := NewDrive(readyUnit(), readyUnit())
	c := NewAmigoController(d)

	c.HandleListenData(saCommand, []byte{opSeek, 0x01, 0x00, 0x00, 0x00, 0x02})
	if d.CurrentUnit != 1 {
		t.Fatalf("CurrentUnit = %d, want 1 (unit byte in data[1] must select it)", d.CurrentUnit)
	}
	if d.Units[1].CurrentLBA == d.Units[0].CurrentLBA {
		t.Fatalf("seek applied to wrong unit: unit1 lba=%d unit0 lba=%d", d.Units[1].CurrentLBA, d.Units[0].CurrentLBA)
	}
}

func TestAmigoSeekNoSuchUnit(t *testing.T) {
	d := NewDrive(readyUnit())
	c := NewAmigoController(d)

	c.HandleListenData(saCommand, []byte{opSeek, 0x05, 0x00, 0x00, 0x00, 0x00})
	if d.StatusBuf[0] != byte(Stat1NoSuchUnit) {
		t.Fatalf("STAT1 = %#x, want Stat1NoSuchUnit for out-of-range unit byte", d.StatusBuf[0])
	}
	if d.StatusBuf[1] != 0x05 {
		t.Fatalf("failed unit = %d, want 5", d.StatusBuf[1])
	}
}

func TestAmigoSeekOverflowSetsError(t *testing.T) {
	d := NewDrive(readyUnit())
	c := NewAmigoController(d)
	c.HandleListenData(saCommand, []byte{opSeek, 0x00, 0xFF, 0xFF, 0xFF, 0xFF})
	if d.StatusBuf[0] == byte(Stat1OK) {
		t.Fatalf("expected non-OK STAT1 after out-of-range seek, got %+v", d.StatusBuf)
	}
}
