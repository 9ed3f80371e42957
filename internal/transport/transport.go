// transport.go - pluggable byte stream backends for link-layer carriers

// Package transport provides the ByteStream abstraction that the Remotizer
// link, BiSync engine, and SRM server all read/write against. A stream is
// either a TCP connection or (BiSync only, Linux only) a real serial tty,
// following the same backend-pluggability idiom the teacher uses for audio
// and video output (one interface, several build-tagged implementations).
package transport

import (
	"io"
	"time"
)

// ByteStream is the minimal contract every link-layer carrier needs:
// ordered byte read/write, a close, and a deadline so a reader task can be
// unblocked on shutdown without a second goroutine.
type ByteStream interface {
	io.Reader
	io.Writer
	io.Closer
	SetDeadline(t time.Time) error
}
