// frame.go - FrameCodec: a Decoder bound to a byte-stream carrier

package bisync

import (
	"errors"

	"github.com/hpvintage/remotizer/internal/transport"
)

// ErrNullByte is returned by ReadMessage when a literal null byte arrives,
// which spec.md §4.5 treats as a close signal on either BiSync side.
var ErrNullByte = errors.New("bisync: null byte read")

// FrameCodec reads and writes BiSync messages against one ByteStream side,
// per spec.md §4.3's "byte stream from a serial/TCP side".
type FrameCodec struct {
	Stream  transport.ByteStream
	decoder *Decoder
}

// NewFrameCodec wraps a stream with a fresh decode FSM.
func NewFrameCodec(s transport.ByteStream) *FrameCodec {
	return &FrameCodec{Stream: s, decoder: NewDecoder()}
}

// ReadMessage blocks until one full Message has been decoded from the
// stream, or an I/O error (including a deadline) occurs.
func (f *FrameCodec) ReadMessage() (Message, error) {
	buf := make([]byte, 1)
	for {
		n, err := f.Stream.Read(buf)
		if n == 1 {
			if buf[0] == 0x00 {
				return Message{}, ErrNullByte
			}
			if m, ok := f.decoder.Feed(buf[0]); ok {
				return m, nil
			}
		}
		if err != nil {
			return Message{}, err
		}
	}
}

// WriteMessage encodes and writes m to the stream.
func (f *FrameCodec) WriteMessage(m Message) error {
	_, err := f.Stream.Write(Encode(m))
	return err
}
