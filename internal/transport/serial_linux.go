//go:build linux

// serial_linux.go - real tty backend for the BiSync modem side

package transport

import (
	"time"

	serial "github.com/daedaluz/goserial"
)

// serialStream adapts a goserial *Port to the ByteStream interface used by
// the BiSync codec.
type serialStream struct {
	port *serial.Port
}

// OpenSerial opens a tty device for the BiSync modem side. baud is applied
// via the custom-speed ioctl path goserial exposes on Termios2.
func OpenSerial(device string, baud uint32) (ByteStream, error) {
	opts := serial.NewOptions().SetReadTimeout(100 * time.Millisecond)
	port, err := serial.Open(device, opts)
	if err != nil {
		return nil, err
	}
	if err := port.MakeRaw(); err != nil {
		port.Close()
		return nil, err
	}
	if attrs, err := port.GetAttr2(); err == nil {
		attrs.MakeRaw()
		attrs.SetCustomSpeed(baud)
		port.SetAttr2(serial.TCSANOW, attrs)
	}
	return &serialStream{port: port}, nil
}

func (s *serialStream) Read(p []byte) (int, error)  { return s.port.Read(p) }
func (s *serialStream) Write(p []byte) (int, error) { return s.port.Write(p) }
func (s *serialStream) Close() error                { return s.port.Close() }

// SetDeadline maps onto goserial's per-read timeout; goserial has no
// absolute-deadline concept so the timeout is approximated per call.
func (s *serialStream) SetDeadline(t time.Time) error {
	d := time.Until(t)
	if d < 0 {
		d = 0
	}
	s.port.SetReadTimeout(d)
	return nil
}
