package sdlc

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	body := []byte{0x01, 0x3F, 0xAA, 0xBB, 0xFF, 0xFF, 0xFF, 0x00}
	wire := EncodeFrame(body)

	d := NewFrameDecoder()
	var got []RawPacket
	for _, b := range wire {
		if pkt, ok, abort := d.Feed(b); ok {
			got = append(got, pkt)
		} else if abort && len(got) == 0 {
			t.Fatalf("unexpected abort before the frame was decoded")
		}
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one packet, got %d", len(got))
	}
	if !bytes.Equal(got[0].Body, body) {
		t.Fatalf("body round trip: got %x, want %x", got[0].Body, body)
	}
	if !got[0].CRCOK {
		t.Fatalf("expected CRC ok")
	}
}

func TestBitStuffingInsertsZeroAfterFiveOnes(t *testing.T) {
	body := []byte{0xFF, 0xFF} // sixteen 1-bits, well over the stuffing threshold
	wire := EncodeFrame(body)

	d := NewFrameDecoder()
	var got RawPacket
	var ok bool
	for _, b := range wire {
		if pkt, done, _ := d.Feed(b); done {
			got, ok = pkt, true
		}
	}
	if !ok {
		t.Fatalf("expected a decoded packet")
	}
	if !bytes.Equal(got.Body, body) {
		t.Fatalf("destuffed body = %x, want %x", got.Body, body)
	}
}

func TestAbortByteSignalled(t *testing.T) {
	d := NewFrameDecoder()
	d.Feed(flagByte)
	d.Feed(0x01)
	_, ok, abort := d.Feed(abortByte)
	if ok || !abort {
		t.Fatalf("expected abort, got ok=%v abort=%v", ok, abort)
	}
}

func TestResidualCheckDetectsCorruption(t *testing.T) {
	body := []byte{0x01, 0x3F, 0x10}
	fcs := FCS(body)
	if !CheckResidual(body, fcs) {
		t.Fatalf("expected valid residual")
	}
	corrupt := append([]byte(nil), body...)
	corrupt[0] ^= 0xFF
	if CheckResidual(corrupt, fcs) {
		t.Fatalf("expected residual mismatch after corruption")
	}
}
