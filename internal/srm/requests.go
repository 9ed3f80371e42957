// requests.go - request codes from spec.md §4.8's dispatch table

package srm

const (
	ReqWrite          int32 = 1
	ReqPosition       int32 = 2
	ReqRead           int32 = 3
	ReqSetEOF         int32 = 4
	ReqFileInfo       int32 = 10
	ReqClose          int32 = 13
	ReqOpen           int32 = 14
	ReqPurgeLink      int32 = 15
	ReqCatalog        int32 = 16
	ReqCreate         int32 = 17
	ReqCreateLink     int32 = 18
	ReqChangeProtect  int32 = 19
	ReqVolStatus      int32 = 22
	ReqCopyFile       int32 = 30
	ReqReset          int32 = 1000
	ReqAreYouAlive    int32 = 1001
)

// minPayload is the minimum request payload length (after the shared
// header) spec.md §4.8 requires before a handler is invoked at all.
var minPayload = map[int32]int{
	ReqWrite:         17,
	ReqPosition:      12,
	ReqRead:          16,
	ReqSetEOF:        12,
	ReqFileInfo:      4,
	ReqClose:         4,
	ReqOpen:          9,
	ReqPurgeLink:     5,
	ReqCatalog:       13,
	ReqCreate:        9,
	ReqCreateLink:    11,
	ReqChangeProtect: 0,
	ReqVolStatus:     0,
	ReqCopyFile:      20,
	ReqReset:         0,
	ReqAreYouAlive:   0,
}

// respFixedSize is the zero-padded reply body length used when a request
// fails validation before its handler runs.
var respFixedSize = map[int32]int{
	ReqWrite:         4,
	ReqPosition:      4,
	ReqRead:          512,
	ReqSetEOF:        0,
	ReqFileInfo:      32,
	ReqClose:         0,
	ReqOpen:          16,
	ReqPurgeLink:     0,
	ReqCatalog:       8 * 40,
	ReqCreate:        4,
	ReqCreateLink:    0,
	ReqChangeProtect: 0,
	ReqVolStatus:     32,
	ReqCopyFile:      4,
	ReqReset:         0,
	ReqAreYouAlive:   0,
}
