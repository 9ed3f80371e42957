package mux

import (
	"context"
	"fmt"
	"io"
	"net"
	"testing"
	"time"
)

func TestParsePortSpec(t *testing.T) {
	cases := []struct {
		in       string
		wantSrv  bool
		wantPort int
		wantErr  bool
	}{
		{"S:1234", true, 1234, false},
		{"s:1234", true, 1234, false},
		{"C:5678", false, 5678, false},
		{"c:5678", false, 5678, false},
		{"X:1234", false, 0, true},
		{"S1234", false, 0, true},
		{"S:0", false, 0, true},
		{"S:70000", false, 0, true},
	}
	for _, c := range cases {
		got, err := ParsePortSpec(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got.IsServer != c.wantSrv || got.Port != c.wantPort {
			t.Errorf("%q: got %+v, want server=%v port=%d", c.in, got, c.wantSrv, c.wantPort)
		}
	}
}

func TestNewRejectsDuplicatePorts(t *testing.T) {
	_, err := New([]PortSpec{{IsServer: true, Port: 1234}, {IsServer: false, Port: 1234}})
	if err == nil {
		t.Fatalf("expected duplicate port rejection")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("freePort: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

func dialRetry(t *testing.T, port int) net.Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			return conn
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dial 127.0.0.1:%d: timed out", port)
	return nil
}

// readLine reads exactly one "T:XX\n" Remotizer line (5 bytes).
func readLine(t *testing.T, conn net.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 5)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("readLine: %v", err)
	}
	return string(buf)
}

// TestBroadcastDataBetweenTwoPorts wires up two server ports and checks
// that a data byte written to one is relayed, verbatim, to the other —
// the mux.py broadcast behavior spec.md §4.2 alludes to.
func TestBroadcastDataBetweenTwoPorts(t *testing.T) {
	p1, p2 := freePort(t), freePort(t)
	m, err := New([]PortSpec{{IsServer: true, Port: p1}, {IsServer: true, Port: p2}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	conn1 := dialRetry(t, p1)
	defer conn1.Close()
	conn2 := dialRetry(t, p2)
	defer conn2.Close()

	// Each port receives one signal-sync line immediately on connect.
	if got := readLine(t, conn1); got != "S:0F\n" {
		t.Fatalf("conn1 initial sync = %q", got)
	}
	if got := readLine(t, conn2); got != "S:0F\n" {
		t.Fatalf("conn2 initial sync = %q", got)
	}

	time.Sleep(50 * time.Millisecond) // let both Connected events land first

	if _, err := conn1.Write([]byte("D:41\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readLine(t, conn2); got != "D:41\n" {
		t.Errorf("conn2 relayed data = %q, want D:41", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("mux.Run did not exit after cancel")
	}
}

// TestParallelPollBroadcast checks that a P: mask reported on a client
// port (the device side, which allowedInbound lets send P:) is OR-ed into
// the global poll and broadcast to the other connected port.
func TestParallelPollBroadcast(t *testing.T) {
	devLn, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer devLn.Close()
	p1, p2 := devLn.Addr().(*net.TCPAddr).Port, freePort(t)
	m, err := New([]PortSpec{{IsServer: false, Port: p1}, {IsServer: true, Port: p2}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	conn1, err := devLn.Accept() // the mux dials out on its client port
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	defer conn1.Close()
	conn2 := dialRetry(t, p2)
	defer conn2.Close()

	readLine(t, conn1)
	readLine(t, conn2)
	time.Sleep(50 * time.Millisecond)

	if _, err := conn1.Write([]byte("P:80\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readLine(t, conn2); got != "P:80\n" {
		t.Errorf("conn2 relayed pp mask = %q, want P:80", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("mux.Run did not exit after cancel")
	}
}
