package link

import "testing"

func collect(t *testing.T, data string) []Event {
	t.Helper()
	p := NewParser()
	var got []Event
	p.FeedBytes([]byte(data), func(e Event) { got = append(got, e) })
	return got
}

func TestParserBasicLines(t *testing.T) {
	evs := collect(t, "D:5F E:61 R:01 S:01 P:80 X:00 Y:01\n")
	want := []Kind{KindData, KindEOIData, KindReset, KindSet, KindPPMask, KindCheckpoint, KindCheckpointReached}
	if len(evs) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(evs), len(want), evs)
	}
	for i, k := range want {
		if evs[i].Kind != k {
			t.Errorf("event %d: got kind %v, want %v", i, evs[i].Kind, k)
		}
	}
	if evs[0].Byte != 0x5F {
		t.Errorf("D byte = %#x, want 0x5F", evs[0].Byte)
	}
	if evs[1].Byte != 0x61 {
		t.Errorf("E byte = %#x, want 0x61", evs[1].Byte)
	}
	if evs[2].Signals != SigATN {
		t.Errorf("R signals = %v, want SigATN", evs[2].Signals)
	}
	if !evs[6].Flushed {
		t.Errorf("Y payload 1 should set Flushed")
	}
}

func TestParserResyncsOnGarbage(t *testing.T) {
	evs := collect(t, "Z:GGgarbage;D:AA\n")
	if len(evs) != 1 || evs[0].Kind != KindData || evs[0].Byte != 0xAA {
		t.Fatalf("expected single resynced D:AA event, got %+v", evs)
	}
}

func TestParserIdempotence(t *testing.T) {
	a := "D:01 D:02\n"
	b := "E:03 R:1F\n"
	whole := collect(t, a+b)

	p1 := NewParser()
	var split []Event
	p1.FeedBytes([]byte(a), func(e Event) { split = append(split, e) })
	p1.FeedBytes([]byte(b), func(e Event) { split = append(split, e) })

	if len(whole) != len(split) {
		t.Fatalf("lengths differ: whole=%d split=%d", len(whole), len(split))
	}
	for i := range whole {
		if whole[i] != split[i] {
			t.Errorf("event %d differs: whole=%+v split=%+v", i, whole[i], split[i])
		}
	}
}

func TestParserTerminatorVariants(t *testing.T) {
	for _, term := range []string{" ", "\r", "\n", ",", ";"} {
		evs := collect(t, "D:07"+term)
		if len(evs) != 1 || evs[0].Byte != 0x07 {
			t.Errorf("terminator %q: got %+v", term, evs)
		}
	}
}
