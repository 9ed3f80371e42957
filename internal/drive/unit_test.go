package drive

import "testing"

func TestLBACHSRoundTrip(t *testing.T) {
	g := Geometry{Cylinders: 77, Heads: 2, Sectors: 30}
	for lba := 0; lba < g.LBACapacity(); lba += 7 {
		chs, err := g.LBAToCHS(lba)
		if err != nil {
			t.Fatalf("LBAToCHS(%d): %v", lba, err)
		}
		back, err := g.CHSToLBA(chs)
		if err != nil {
			t.Fatalf("CHSToLBA(%+v): %v", chs, err)
		}
		if back != lba {
			t.Errorf("round trip lba=%d -> chs=%+v -> lba=%d", lba, chs, back)
		}
	}
}

func TestLBAOutOfRange(t *testing.T) {
	g := Geometry{Cylinders: 2, Heads: 2, Sectors: 2}
	if _, err := g.LBAToCHS(-1); err != ErrOutOfRange {
		t.Errorf("negative lba: got %v", err)
	}
	if _, err := g.LBAToCHS(g.LBACapacity()); err != ErrOutOfRange {
		t.Errorf("lba==capacity: got %v", err)
	}
}

func TestCHSOutOfRange(t *testing.T) {
	g := Geometry{Cylinders: 2, Heads: 2, Sectors: 2}
	if _, err := g.CHSToLBA(CHS{Cylinder: 2, Head: 0, Sector: 0}); err != ErrOutOfRange {
		t.Errorf("cylinder overflow: got %v", err)
	}
	if _, err := g.CHSToLBA(CHS{Cylinder: 0, Head: 0, Sector: 2}); err != ErrOutOfRange {
		t.Errorf("sector overflow: got %v", err)
	}
}
