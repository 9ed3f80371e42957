// models.go - named fixed-geometry Amigo drive models

package drive

// FixedModel is a named Amigo drive model: its HP-IB identify sequence,
// physical geometry, unit count, and whether Format ignores its payload.
// Grounded on `amigo_drive.py`'s `FixedDriveData.MODELS` table (spec.md §3
// "created at model selection").
type FixedModel struct {
	Name      string
	IDSeq     [2]byte
	Geometry  Geometry
	MaxUnits  int
	IgnoreFmt bool
}

// FixedModels is the model table, ported verbatim from `amigo_drive.py`:
// the 9895 dual-unit 8" flexible disk drive and the 9134B fixed/removable
// Winchester.
var FixedModels = map[string]FixedModel{
	"9895": {
		Name:      "9895",
		IDSeq:     [2]byte{0x00, 0x81},
		Geometry:  Geometry{Cylinders: 77, Heads: 2, Sectors: 30},
		MaxUnits:  2,
		IgnoreFmt: false,
	},
	"9134b": {
		Name:      "9134b",
		IDSeq:     [2]byte{0x01, 0x0a},
		Geometry:  Geometry{Cylinders: 306, Heads: 4, Sectors: 31},
		MaxUnits:  1,
		IgnoreFmt: true,
	},
}

// LookupModel returns the named fixed model, or ok=false if name is not a
// recognized model in FixedModels.
func LookupModel(name string) (FixedModel, bool) {
	m, ok := FixedModels[name]
	return m, ok
}
