// drive.go - Drive: container of units addressed by one HP-IB address

package drive

// Drive is a container of 1..N units sharing one HP-IB address, per
// spec.md's Data Model. It holds the DSJ tracker, current unit selection,
// and the small fixed-size buffers the Amigo/SS80 controllers format their
// replies into.
type Drive struct {
	Units       []*Unit
	CurrentUnit int
	DSJ         *DSJTracker

	StatusBuf [4]byte
	DataBuf   []byte // not allocated by NewDrive and not used by the controllers

	PPEnable bool
}

// NewDrive returns a drive exposing the given units, starting at unit 0,
// DSJ in the power-up state.
func NewDrive(units ...*Unit) *Drive {
	return &Drive{Units: units, DSJ: NewDSJTracker()}
}

// Unit returns the currently selected unit, or nil if CurrentUnit is out
// of range (mapped to Stat1NoSuchUnit by the caller).
func (d *Drive) Unit() *Unit {
	if d.CurrentUnit < 0 || d.CurrentUnit >= len(d.Units) {
		return nil
	}
	return d.Units[d.CurrentUnit]
}

// SelectUnit changes the current unit index if it addresses a real unit.
func (d *Drive) SelectUnit(idx int) bool {
	if idx < 0 || idx >= len(d.Units) {
		return false
	}
	d.CurrentUnit = idx
	return true
}
