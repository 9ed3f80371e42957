// conn.go - Link ties the Parser to a transport.ByteStream

package link

import (
	"bufio"
	"io"
	"sync"

	"github.com/hpvintage/remotizer/internal/transport"
)

// Link owns one transport connection. Per spec.md §5 it is single-threaded
// cooperative: one goroutine runs readLoop and pushes decoded Events onto
// Events; nothing else reads from the stream. Write may be called from
// more than one goroutine, so writeMu gives the line-atomicity guarantee spec.md §4.1 requires at the
// TCP layer.
type Link struct {
	stream transport.ByteStream
	Events chan Event

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// New wraps a transport stream and starts the read loop. Events are
// delivered in arrival order; the caller must drain Events or the read
// loop will block, which is the intended backpressure per spec.md §5.
func New(stream transport.ByteStream) *Link {
	l := &Link{stream: stream, Events: make(chan Event, 256)}
	go l.readLoop()
	return l
}

func (l *Link) readLoop() {
	defer l.emitDisconnect()
	p := NewParser()
	r := bufio.NewReaderSize(l.stream, 4096)
	buf := make([]byte, 1)
	l.Events <- Event{Kind: KindConnected}
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if ev, ok := p.Feed(buf[0]); ok {
				l.Events <- ev
			}
		}
		if err != nil {
			if err == io.EOF {
				return
			}
			return
		}
	}
}

func (l *Link) emitDisconnect() {
	l.Events <- Event{Kind: KindDisconnected}
	close(l.Events)
}

// Write sends one already-encoded Remotizer line atomically with respect
// to any other concurrent Write call on this Link.
func (l *Link) Write(line []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_, err := l.stream.Write(line)
	return err
}

// WriteData emits exactly one D:/E: line per logical byte, asserting EOI
// on the final byte of buf when eoi is true — the "exactly one D/E line
// per emitted byte" ordering guarantee from spec.md §4.1.
func (l *Link) WriteData(buf []byte, eoi bool) error {
	for i, b := range buf {
		last := i == len(buf)-1
		if last && eoi {
			if err := l.Write(EncodeEOIData(b)); err != nil {
				return err
			}
			continue
		}
		if err := l.Write(EncodeData(b)); err != nil {
			return err
		}
	}
	return nil
}

// Close shuts down the underlying stream; the read loop observes the
// resulting error and emits KindDisconnected exactly once.
func (l *Link) Close() error {
	l.closeMu.Lock()
	l.closed = true
	l.closeMu.Unlock()
	return l.stream.Close()
}
