// tcp.go - TCP listener/dialer helpers shared by every daemon

package transport

import (
	"fmt"
	"net"
)

// Listen binds a TCP listener on the given port, validating the port range
// the external interface table (1..65535) requires.
func Listen(port int) (net.Listener, error) {
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("transport: port %d out of range 1..65535", port)
	}
	return net.Listen("tcp", fmt.Sprintf(":%d", port))
}

// Dial connects to a remote TCP endpoint, used by hpmuxd's client ports
// (the only link-layer client; every other daemon listens).
func Dial(addr string) (ByteStream, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
