package drive

import "testing"

func ss80ReadyUnit() *SS80Unit {
	u := NewUnit(Geometry{Cylinders: 2, Heads: 1, Sectors: 4}, 256)
	u.Attach(newMemImage(8*256), false)
	return NewSS80Unit(u)
}

func TestSS80SelectUnitAndSetAddress(t *testing.T) {
	c := NewSS80Controller(ss80ReadyUnit(), ss80ReadyUnit())

	c.HandleListenData(ss80SACommand, []byte{subSelectUnit, 0x01})
	if c.current != 1 {
		t.Fatalf("current = %d, want 1", c.current)
	}

	c.HandleListenData(ss80SACommand, []byte{subSetAddress, 0x00, 0x00, 0x00, 0x05})
	if c.unit().Address != 5 || c.unit().CurrentLBA != 5 {
		t.Fatalf("address not set: %+v", c.unit())
	}
}

func TestSS80WriteThenReadRoundTrip(t *testing.T) {
	c := NewSS80Controller(ss80ReadyUnit())
	c.HandleListenData(ss80SACommand, []byte{0x02}) // locate-and-write

	payload := make([]byte, 256)
	for i := range payload {
		payload[i] = byte(i)
	}
	c.HandleListenData(ss80SAData, payload)
	if c.unit().Seq != SS80Ready {
		t.Fatalf("seq after write = %v, want Ready", c.unit().Seq)
	}

	c.unit().CurrentLBA = 0
	c.HandleListenData(ss80SACommand, []byte{0x00}) // locate-and-read
	data, ok := c.TalkData(ss80TalkData)
	if !ok {
		t.Fatalf("expected data reply")
	}
	for i := range payload {
		if data[i] != payload[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, data[i], payload[i])
		}
	}
}

func TestSS80EndOfVolumeSetsStatusBit(t *testing.T) {
	c := NewSS80Controller(ss80ReadyUnit())
	u := c.unit()
	u.CurrentLBA = u.Geometry.LBACapacity()
	c.HandleListenData(ss80SACommand, []byte{0x02})
	c.HandleListenData(ss80SAData, make([]byte, 256))

	if u.StatusBits&(1<<uint(BitEndOfVolume)) == 0 {
		t.Fatalf("expected BitEndOfVolume set, status = %#x", u.StatusBits)
	}
	if u.Seq != SS80EndNoEppr {
		t.Fatalf("seq = %v, want SS80EndNoEppr", u.Seq)
	}
}

func TestSS80StatusMaskGatesBit(t *testing.T) {
	c := NewSS80Controller(ss80ReadyUnit())
	u := c.unit()
	u.Mask = 0 // mask out every bit
	u.CurrentLBA = u.Geometry.LBACapacity()
	c.HandleListenData(ss80SACommand, []byte{0x02})
	c.HandleListenData(ss80SAData, make([]byte, 256))

	if u.StatusBits != 0 {
		t.Fatalf("status bits = %#x, want 0 with empty mask", u.StatusBits)
	}
}

func TestSS80SelectUnavailableUnitRaisesError(t *testing.T) {
	c := NewSS80Controller(ss80ReadyUnit())
	c.HandleListenData(ss80SACommand, []byte{subSelectUnit, 0x05})
	if c.current != 0 {
		t.Fatalf("current changed to invalid unit: %d", c.current)
	}
	if c.unit().StatusBits&(1<<uint(BitUnitNotReady)) == 0 {
		t.Fatalf("expected BitUnitNotReady set")
	}
}
