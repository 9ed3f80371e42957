// unit.go - per-unit geometry, LBA/CHS mapping, and backing image

// Package drive implements the Amigo and SS/80 HP-IB disk drive state
// machines described in spec.md §4.4: per-unit geometry, secondary-address
// routed command decoding, status word management, and buffered/unbuffered
// transfer flows.
package drive

import (
	"errors"
	"io"
)

// ErrOutOfRange is returned when a CHS or LBA value falls outside a unit's
// geometry, mapping to the CHS/LBA overflow device error in spec.md §7.
var ErrOutOfRange = errors.New("drive: chs/lba out of range")

// Geometry is a unit's (cylinder, head, sector) shape.
type Geometry struct {
	Cylinders int
	Heads     int
	Sectors   int
}

// LBACapacity returns C*H*S, the exclusive upper bound on a valid LBA.
func (g Geometry) LBACapacity() int { return g.Cylinders * g.Heads * g.Sectors }

// CHS is a (cylinder, head, sector) address.
type CHS struct {
	Cylinder int
	Head     int
	Sector   int
}

// LBAToCHS converts a linear block address to CHS using the bijection
// lba = (c*H + h)*S + s, 0 <= s < S, 0 <= h < H, 0 <= c < C.
func (g Geometry) LBAToCHS(lba int) (CHS, error) {
	if lba < 0 || lba >= g.LBACapacity() {
		return CHS{}, ErrOutOfRange
	}
	s := lba % g.Sectors
	rest := lba / g.Sectors
	h := rest % g.Heads
	c := rest / g.Heads
	return CHS{Cylinder: c, Head: h, Sector: s}, nil
}

// CHSToLBA converts a CHS address to a linear block address, the inverse
// of LBAToCHS. Round-tripping either direction is the identity on the
// valid domain (spec.md §8).
func (g Geometry) CHSToLBA(c CHS) (int, error) {
	if c.Sector < 0 || c.Sector >= g.Sectors ||
		c.Head < 0 || c.Head >= g.Heads ||
		c.Cylinder < 0 || c.Cylinder >= g.Cylinders {
		return 0, ErrOutOfRange
	}
	lba := (c.Cylinder*g.Heads+c.Head)*g.Sectors + c.Sector
	return lba, nil
}

// StatusBits mirrors the drive-bits nibble of Amigo byte 3 and the
// equivalent SS/80 mask flags: addressed, fault, change, single-seek.
type StatusBits struct {
	Addressed  bool
	Fault      bool // f_bit: not ready / image detached
	Change     bool // media change occurred since last clear
	SingleSeek bool
}

// Unit is one storage surface: a geometry, a sector size, an optional
// backing image, and the read counters spec.md's Data Model requires.
type Unit struct {
	Geometry     Geometry
	BytesPerSector int
	ReadOnly     bool

	image io.ReadWriteSeeker
	attached bool

	CurrentLBA int
	Reads      int
	Writes     int
	Status     StatusBits
	Description string
}

// NewUnit returns a unit with no image attached (f_bit set).
func NewUnit(geom Geometry, bytesPerSector int) *Unit {
	u := &Unit{Geometry: geom, BytesPerSector: bytesPerSector}
	u.Status.Fault = true
	return u
}

// Attach binds a backing image. Per the Data Model, a unit's image may be
// attached/detached at any time while the drive is idle.
func (u *Unit) Attach(image io.ReadWriteSeeker, readOnly bool) {
	u.image = image
	u.ReadOnly = readOnly
	u.attached = true
	u.Status.Fault = false
}

// Detach removes the backing image, sets f_bit, and clears counters per
// the Data Model's Unit lifecycle.
func (u *Unit) Detach() {
	u.image = nil
	u.attached = false
	u.Status.Fault = true
	u.Reads = 0
	u.Writes = 0
	u.CurrentLBA = 0
}

// Attached reports whether a backing image is currently bound.
func (u *Unit) Attached() bool { return u.attached }

// ReadSector reads the sector at lba into buf (len(buf) == BytesPerSector).
func (u *Unit) ReadSector(lba int, buf []byte) error {
	if !u.attached {
		return ErrOutOfRange
	}
	if lba < 0 || lba >= u.Geometry.LBACapacity() {
		return ErrOutOfRange
	}
	if _, err := u.image.Seek(int64(lba)*int64(u.BytesPerSector), io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(u.image, buf); err != nil {
		return err
	}
	u.Reads++
	u.CurrentLBA = lba
	return nil
}

// WriteSector writes buf to the sector at lba.
func (u *Unit) WriteSector(lba int, buf []byte) error {
	if !u.attached {
		return ErrOutOfRange
	}
	if u.ReadOnly {
		return ErrReadOnly
	}
	if lba < 0 || lba >= u.Geometry.LBACapacity() {
		return ErrOutOfRange
	}
	if _, err := u.image.Seek(int64(lba)*int64(u.BytesPerSector), io.SeekStart); err != nil {
		return err
	}
	if _, err := u.image.Write(buf); err != nil {
		return err
	}
	u.Writes++
	u.CurrentLBA = lba
	return nil
}

// ErrReadOnly is returned by WriteSector against a read-only unit.
var ErrReadOnly = errors.New("drive: unit is read-only")
