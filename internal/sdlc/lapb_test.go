package sdlc

import "testing"

func TestSABMAnsweredWithUA(t *testing.T) {
	s := NewSession(0x01)
	replies, deliver := s.HandleFrame(ctrlSABM, nil)
	if len(replies) != 1 || replies[0].Control != ctrlUA {
		t.Fatalf("expected UA reply, got %+v", replies)
	}
	if deliver != nil {
		t.Fatalf("SABM should not deliver info")
	}
	if s.State != ConnWaitRR {
		t.Fatalf("state = %v, want ConnWaitRR", s.State)
	}
}

func TestExpectedIFrameAcksAndDelivers(t *testing.T) {
	s := NewSession(0x01)
	info := []byte("hello")
	replies, deliver := s.HandleFrame(IControl(0, 0), info)
	if len(replies) != 1 {
		t.Fatalf("expected one RR reply, got %+v", replies)
	}
	if replies[0].Control != RRControl(1) {
		t.Fatalf("RR control = %#x, want RR(1)", replies[0].Control)
	}
	if string(deliver) != "hello" {
		t.Fatalf("deliver = %q, want hello", deliver)
	}
}

func TestMismatchedNSReAcksWithoutDelivering(t *testing.T) {
	s := NewSession(0x01)
	s.NR = 0
	_, deliver := s.HandleFrame(IControl(0, 3), []byte("x"))
	if deliver != nil {
		t.Fatalf("expected no delivery on N(S) mismatch")
	}
}
