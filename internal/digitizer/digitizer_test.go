package digitizer

import "testing"

func TestDecodeSoftKey(t *testing.T) {
	keys := DefaultSoftKeys()
	idx := DecodeSoftKey(keys, 500, 9000)
	if idx != 0 {
		t.Fatalf("idx = %d, want 0", idx)
	}
	if DecodeSoftKey(keys, 500, 100) != -1 {
		t.Fatal("expected -1 outside the menu zone")
	}
}

func TestTickAppliesLatchedSample(t *testing.T) {
	d := New()
	d.Latch(PenEvent{X: 100, Y: 100, Pressed: true})
	key, dp := d.Tick()
	if key != -1 || !dp {
		t.Fatalf("key=%d dp=%v, want -1,true", key, dp)
	}
	if d.State != StateDP {
		t.Fatalf("state = %v, want StateDP", d.State)
	}
}

func TestTickMenuZone(t *testing.T) {
	d := New()
	d.Latch(PenEvent{X: 1000, Y: 9000, Pressed: true})
	key, dp := d.Tick()
	if dp {
		t.Fatal("menu press should not produce a data point")
	}
	if key != 1 {
		t.Fatalf("key = %d, want 1", key)
	}
	if d.State != StateSG {
		t.Fatalf("state = %v, want StateSG", d.State)
	}
}

func TestSetRateClamps(t *testing.T) {
	d := New()
	d.SetRate(200)
	if d.RateHz != 60 {
		t.Fatalf("rate = %d, want clamp to 60", d.RateHz)
	}
	d.SetRate(0)
	if d.RateHz != 1 {
		t.Fatalf("rate = %d, want clamp to 1", d.RateHz)
	}
}

func TestNoteFrequency(t *testing.T) {
	f := NoteFrequency(0)
	if f < 130.8 || f > 130.82 {
		t.Fatalf("f = %v, want ~130.81", f)
	}
	f12 := NoteFrequency(12)
	if f12 < 261.6 || f12 > 261.65 {
		t.Fatalf("f12 = %v, want ~261.62 (one octave up)", f12)
	}
}

func TestSynthNoteMutedIsZero(t *testing.T) {
	samples := SynthNote(Note{Semitone: 0, Amplitude: AmpMuted, Duration: 0.01})
	for _, s := range samples {
		if s != 0 {
			t.Fatalf("muted note produced nonzero sample %v", s)
		}
	}
}

func TestNoteReaderProducesPCMBytes(t *testing.T) {
	r := NewNoteReader(Note{Semitone: 0, Amplitude: Amp0dB, Duration: 0.01})
	buf := make([]byte, 1024)
	n, err := r.Read(buf)
	if err != nil || n == 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
}
