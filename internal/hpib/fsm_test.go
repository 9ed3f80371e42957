package hpib

import (
	"testing"

	"github.com/hpvintage/remotizer/internal/link"
)

func feed(f *FSM, evs ...link.Event) []DeviceEvent {
	var out []DeviceEvent
	for _, e := range evs {
		out = append(out, f.Handle(e)...)
	}
	return out
}

func TestIdentifySequence(t *testing.T) {
	f := New(1)
	out := feed(f,
		link.Event{Kind: link.KindReset, Signals: link.SigATN},
		link.Event{Kind: link.KindData, Byte: 0x5F}, // UNT
		link.Event{Kind: link.KindData, Byte: 0x61}, // MSA 1 -> identify
		link.Event{Kind: link.KindSet, Signals: link.SigATN},
	)
	found := false
	for _, ev := range out {
		if ev.Kind == EvIdentify {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected EvIdentify in %+v", out)
	}
}

func TestIdentifyIgnoresOtherDeviceMSA(t *testing.T) {
	f := New(1)
	out := feed(f,
		link.Event{Kind: link.KindReset, Signals: link.SigATN},
		link.Event{Kind: link.KindData, Byte: 0x5F}, // UNT
		link.Event{Kind: link.KindData, Byte: 0x62}, // MSA 2, not this device's
		link.Event{Kind: link.KindSet, Signals: link.SigATN},
	)
	for _, ev := range out {
		if ev.Kind == EvIdentify {
			t.Fatalf("device 1 must not identify for MSA 2, got %+v", out)
		}
	}
}

func TestListenAccumulatesAndClosesOnEOI(t *testing.T) {
	f := New(2)
	feed(f,
		link.Event{Kind: link.KindReset, Signals: link.SigATN},
		link.Event{Kind: link.KindData, Byte: mla(2)},
		link.Event{Kind: link.KindData, Byte: 0x68}, // secondary 8
		link.Event{Kind: link.KindSet, Signals: link.SigATN},
	)
	out := feed(f,
		link.Event{Kind: link.KindData, Byte: 0x01},
		link.Event{Kind: link.KindEOIData, Byte: 0x02},
	)
	if len(out) != 1 || out[0].Kind != EvListenData || !out[0].End {
		t.Fatalf("expected single closing EvListenData, got %+v", out)
	}
	if len(out[0].Data) != 2 || out[0].Data[0] != 1 || out[0].Data[1] != 2 {
		t.Fatalf("unexpected data %+v", out[0].Data)
	}
	if out[0].SecondaryAddr != 8 {
		t.Fatalf("secondary addr = %d, want 8", out[0].SecondaryAddr)
	}
}

func TestSerialPollOnATNDeassert(t *testing.T) {
	f := New(3)
	f.StatusByte = func() byte { return 0x42 }
	feed(f,
		link.Event{Kind: link.KindReset, Signals: link.SigATN},
		link.Event{Kind: link.KindData, Byte: mta(3)},
		link.Event{Kind: link.KindData, Byte: cmdSPE},
	)
	out := feed(f, link.Event{Kind: link.KindSet, Signals: link.SigATN})
	if len(out) != 1 || out[0].Kind != EvSerialPollByte || out[0].StatusByte != 0x42 {
		t.Fatalf("expected serial poll status byte, got %+v", out)
	}
	if f.primary != SPAS {
		t.Fatalf("expected SPAS, got %v", f.primary)
	}
}

func TestDisconnectResetsState(t *testing.T) {
	f := New(1)
	f.SetPPEnable(true)
	feed(f, link.Event{Kind: link.KindDisconnected})
	if f.primary != Idle || f.ppEnable {
		t.Fatalf("expected clean reset, got %+v", f)
	}
}
