// errors.go - SRM status codes and the OS-error-to-SRM-error mapping table

package srm

import (
	"errors"
	"io/fs"
	"os"
)

// Status codes returned in a response header's status field. These are the
// real 31000-series SRM error numbers (`_examples/original_source/hp/srm_io/srm_io.py`'s
// SRM_ERRNO_* constants), not placeholders; spec.md §8 scenario 6 names
// 31019 literally as a wire value a client must see.
const (
	StatusOK                  int32 = 0
	StatusSoftwareBug         int32 = 31000
	StatusInvalidFileID       int32 = 31011
	StatusVolumeIOError       int32 = 31013
	StatusFilePathnameMissing int32 = 31014
	StatusFileUnopened        int32 = 31019
	StatusAccessDenied        int32 = 31023
	StatusInsufficientDisk    int32 = 31028
	StatusDuplicate           int32 = 31029
	StatusNotFound            int32 = 31032
	StatusFileNotDirectory    int32 = 31034
	StatusDirectoryNotEmpty   int32 = 31035
	StatusVolumeNotFound      int32 = 31036
	StatusRenameAcrossVolumes int32 = 31043
	StatusEOF                 int32 = 31045

	// StatusBadRequestLength and StatusUnknownRequest are this bridge's own
	// reply to a request the peer never could have sent over the real
	// wire (too short, or an unrecognized code); srm_io.py's process_req
	// answers an unknown request with SRM_ERRNO_VOLUME_IO_ERROR, so we
	// reuse that code rather than invent a new one.
	StatusBadRequestLength = StatusVolumeIOError
	StatusUnknownRequest   = StatusVolumeIOError
)

// StatusForError maps a Go filesystem error to the closest SRM status
// code, per spec.md §4.8's OS-error table and srm_io.py's ERROR_MAP.
func StatusForError(err error) int32 {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, fs.ErrNotExist):
		return StatusNotFound
	case errors.Is(err, fs.ErrPermission):
		return StatusAccessDenied
	case errors.Is(err, os.ErrExist):
		return StatusDuplicate
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		switch pe.Err.Error() {
		case "no space left on device":
			return StatusInsufficientDisk
		case "invalid cross-device link":
			return StatusRenameAcrossVolumes
		case "directory not empty":
			return StatusDirectoryNotEmpty
		}
	}
	// srm_io.py's ERROR_MAP falls back to SRM_ERRNO_SOFTWARE_BUG for any
	// errno it doesn't special-case.
	return StatusSoftwareBug
}
