//go:build !linux

// serial_headless.go - stub serial backend for non-Linux builds

package transport

import "errors"

// ErrSerialUnsupported is returned by OpenSerial on platforms where
// goserial's ioctl-based port has no implementation (anything but Linux).
var ErrSerialUnsupported = errors.New("transport: serial backend not available on this platform")

// OpenSerial always fails outside Linux; hpbisyncd then exits with the
// error, so on other platforms its modem side is reached over TCP -port.
func OpenSerial(device string, baud uint32) (ByteStream, error) {
	return nil, ErrSerialUnsupported
}
