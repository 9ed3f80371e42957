// mux.go - RemotizerMux: a multi-port Remotizer line-protocol broadcaster

// Package mux implements the Remotizer multiplexer referenced by spec.md
// §4.2's parallel-poll text ("the mask is stored and broadcast to other
// ports"): N Remotizer ports are bridged so that data bytes, bus signal
// changes, checkpoints, and parallel-poll masks on any one port are
// relayed to every other connected port. Grounded on `mux/mux.py`
// (original_source/hp/mux/mux.py), ported from its asyncio single-task
// event loop to a single goroutine consuming a fan-in channel, the same
// single-threaded-cooperative shape spec.md §5 requires of every
// protocol-plane component.
package mux

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hpvintage/remotizer/internal/hplog"
	"github.com/hpvintage/remotizer/internal/link"
	"github.com/hpvintage/remotizer/internal/transport"
)

// signalMask is the set of bus signal bits the mux aligns across ports,
// matching mux.py's SIGNAL_MASK = 0x0f (ATN, EOI, SRQ, IFC; REN is not
// wire-ANDed by the original multiplexer).
const signalMask = link.SigATN | link.SigEOI | link.SigSRQ | link.SigIFC

// redialDelay is how long a client port waits between failed dial
// attempts, matching mux.py's client_task `asyncio.sleep(1)`.
const redialDelay = 1 * time.Second

// PortSpec names one multiplexer port: server ("S:xxxx", the mux listens)
// or client ("C:xxxx", the mux dials out), per mux.py's `port(arg)`
// validator.
type PortSpec struct {
	IsServer bool
	Port     int
}

// ParsePortSpec parses a "[Cc]:port" or "[Ss]:port" spec, mirroring
// mux.py's `port()` argparse type.
func ParsePortSpec(arg string) (PortSpec, error) {
	if len(arg) < 3 || arg[1] != ':' {
		return PortSpec{}, fmt.Errorf("mux: malformed port spec %q, want C:xxxx or S:xxxx", arg)
	}
	mode := strings.ToUpper(arg[:1])
	if mode != "C" && mode != "S" {
		return PortSpec{}, fmt.Errorf("mux: malformed port spec %q, want C:xxxx or S:xxxx", arg)
	}
	n, err := strconv.Atoi(arg[2:])
	if err != nil || n < 1 || n > 65535 {
		return PortSpec{}, fmt.Errorf("mux: port spec %q: port must be 1..65535", arg)
	}
	return PortSpec{IsServer: mode == "S", Port: n}, nil
}

// allowed inbound Remotizer letters per port role, mirroring mux.py's
// Rem488Port.SERVER_MSGS / NON_SERVER_MSGS: a server port stands in for
// the device side of the link (it is queried with J/Q, never sends them
// as input), a client port stands in for the controller side (it is
// replied to with K/P, never receives them as input).
func allowedInbound(isServer bool, k link.Kind) bool {
	switch k {
	case link.KindData, link.KindEOIData, link.KindReset, link.KindSet,
		link.KindCheckpoint, link.KindCheckpointReached, link.KindConnected, link.KindDisconnected:
		return true
	case link.KindPing, link.KindPPRequest:
		return isServer
	case link.KindPong, link.KindPPMask:
		return !isServer
	default:
		return false
	}
}

// port is one multiplexer endpoint's mux-local state. It is only ever
// touched from the Mux.dispatch goroutine.
type port struct {
	id       int
	spec     PortSpec
	lnk      *link.Link
	connected bool
	signals  link.Signal
	pp       byte
}

// taggedEvent carries one port's decoded Event into the central fan-in
// channel, along with the *link.Link needed to reply (valid once
// Kind==KindConnected has been observed for that port).
type taggedEvent struct {
	portID int
	ev     link.Event
	lnk    *link.Link
}

// Mux bridges N Remotizer ports, broadcasting data, signals, checkpoints,
// and parallel-poll state between whichever ports are currently connected.
type Mux struct {
	specs  []PortSpec
	events chan taggedEvent
	log    *log.Logger
}

// New returns a Mux over the given port specs. Duplicate port numbers are
// rejected, matching mux.py's parse_cl() duplicate check.
func New(specs []PortSpec) (*Mux, error) {
	seen := map[int]bool{}
	for _, s := range specs {
		if seen[s.Port] {
			return nil, fmt.Errorf("mux: port %d used more than once", s.Port)
		}
		seen[s.Port] = true
	}
	return &Mux{specs: specs, events: make(chan taggedEvent, 256), log: hplog.New("hpmuxd")}, nil
}

// Run starts one connection-supervisor goroutine per configured port and
// runs the central dispatch loop until ctx is cancelled.
func (m *Mux) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range m.specs {
		i, spec := i, spec
		g.Go(func() error { return m.runPort(gctx, i, spec) })
	}
	g.Go(func() error { return m.dispatch(gctx) })
	return g.Wait()
}

// runPort owns one port's transport lifecycle: for a server port it
// accepts connections one at a time on a persistent listener; for a
// client port it dials with a 1s backoff, matching mux.py's
// server_task/client_task pair. Each live connection is wrapped in a
// link.Link whose Events are forwarded into the shared dispatch channel.
func (m *Mux) runPort(ctx context.Context, id int, spec PortSpec) error {
	var ln net.Listener
	if spec.IsServer {
		var err error
		ln, err = transport.Listen(spec.Port)
		if err != nil {
			return err
		}
		defer ln.Close()
		go func() {
			<-ctx.Done()
			ln.Close()
		}()
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var stream transport.ByteStream
		if spec.IsServer {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			stream = conn
		} else {
			s, err := m.dialRetry(ctx, spec.Port)
			if err != nil {
				return err
			}
			stream = s
		}

		lnk := link.New(stream)
		m.log.Printf("port %d (%s): connected", spec.Port, role(spec.IsServer))
		for ev := range lnk.Events {
			select {
			case m.events <- taggedEvent{portID: id, ev: ev, lnk: lnk}:
			case <-ctx.Done():
				lnk.Close()
				return ctx.Err()
			}
		}
	}
}

func role(isServer bool) string {
	if isServer {
		return "server"
	}
	return "client"
}

func (m *Mux) dialRetry(ctx context.Context, tcpPort int) (transport.ByteStream, error) {
	for {
		stream, err := transport.Dial(fmt.Sprintf("127.0.0.1:%d", tcpPort))
		if err == nil {
			return stream, nil
		}
		select {
		case <-time.After(redialDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// dispatch is the single-goroutine event loop, ported from mux.py's
// `main()`. All mux state (ports, signals, checkpoint bookkeeping) is
// owned exclusively by this goroutine.
func (m *Mux) dispatch(ctx context.Context) error {
	ports := make(map[int]*port, len(m.specs))
	for i, spec := range m.specs {
		ports[i] = &port{id: i, spec: spec}
	}

	var signals link.Signal = signalMask
	var checkpointSender *port
	checkpointReceivers := map[int]bool{}
	checkpointFlush := false
	var delayed []taggedEvent

	// write is a nil-safe send: a port dequeued from the delayed backlog
	// may have disconnected while queued, in which case its lnk is nil.
	write := func(p *port, b []byte) {
		if p == nil || p.lnk == nil {
			return
		}
		_ = p.lnk.Write(b)
	}

	connectedPorts := func() []*port {
		var out []*port
		for _, p := range ports {
			if p.connected {
				out = append(out, p)
			}
		}
		return out
	}

	alignSignals := func(exclude int) link.Signal {
		newSignals := signalMask
		for _, p := range connectedPorts() {
			newSignals &= p.signals
		}
		toSet := newSignals &^ signals
		toClear := ^newSignals & signals & signalMask
		for _, p := range connectedPorts() {
			if p.id == exclude {
				continue
			}
			if toSet != 0 {
				write(p, link.EncodeSet(toSet))
			}
			if toClear != 0 {
				write(p, link.EncodeReset(toClear))
			}
		}
		return newSignals
	}

	globalPP := func() byte {
		var pp byte
		for _, p := range connectedPorts() {
			pp |= p.pp
		}
		return pp
	}

	for {
		var te taggedEvent
		if len(delayed) > 0 && checkpointSender == nil {
			te, delayed = delayed[0], delayed[1:]
		} else {
			select {
			case te = <-m.events:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		p := ports[te.portID]
		if !allowedInbound(p.spec.IsServer, te.ev.Kind) {
			continue
		}

		switch te.ev.Kind {
		case link.KindConnected:
			p.lnk = te.lnk
			p.connected = true
			p.signals = signalMask
			p.pp = 0
			if tmp := signals & signalMask; tmp != 0 {
				write(p, link.EncodeSet(tmp))
			}
			if tmp := ^signals & signalMask; tmp != 0 {
				write(p, link.EncodeReset(tmp))
			}

		case link.KindDisconnected:
			p.connected = false
			p.lnk = nil
			signals = alignSignals(-1)
			if p == checkpointSender {
				// The checkpoint sender vanished before every receiver
				// replied; drop the outstanding checkpoint rather than
				// writing to its now-nil link.
				checkpointSender = nil
				checkpointReceivers = map[int]bool{}
			} else if checkpointReceivers[p.id] {
				delete(checkpointReceivers, p.id)
				if len(checkpointReceivers) == 0 && checkpointSender != nil {
					write(checkpointSender, link.EncodeCheckpointReached(checkpointFlush))
					checkpointSender = nil
				}
			}

		case link.KindPing:
			write(p, link.EncodePong())

		case link.KindData, link.KindEOIData:
			if checkpointSender != nil {
				delayed = append(delayed, te)
				continue
			}
			for _, r := range connectedPorts() {
				if r.id == p.id {
					continue
				}
				if te.ev.Kind == link.KindData {
					write(r, link.EncodeData(te.ev.Byte))
				} else {
					write(r, link.EncodeEOIData(te.ev.Byte))
				}
			}

		case link.KindCheckpoint:
			if checkpointSender != nil {
				delayed = append(delayed, te)
				continue
			}
			checkpointReceivers = map[int]bool{}
			for _, r := range connectedPorts() {
				if r.id == p.id {
					continue
				}
				write(r, link.EncodeCheckpoint())
				checkpointReceivers[r.id] = true
			}
			if len(checkpointReceivers) == 0 {
				write(p, link.EncodeCheckpointReached(false))
			} else {
				checkpointSender = p
				checkpointFlush = false
			}

		case link.KindCheckpointReached:
			if checkpointSender == nil || !checkpointReceivers[p.id] {
				continue
			}
			if te.ev.Flushed {
				checkpointFlush = true
			}
			delete(checkpointReceivers, p.id)
			if len(checkpointReceivers) == 0 {
				write(checkpointSender, link.EncodeCheckpointReached(checkpointFlush))
				checkpointSender = nil
			}

		case link.KindReset:
			if checkpointSender != nil {
				delayed = append(delayed, te)
				continue
			}
			p.signals &^= te.ev.Signals
			signals = alignSignals(p.id)

		case link.KindSet:
			if checkpointSender != nil {
				delayed = append(delayed, te)
				continue
			}
			p.signals |= te.ev.Signals
			signals = alignSignals(p.id)

		case link.KindPPRequest:
			if checkpointSender != nil {
				delayed = append(delayed, te)
				continue
			}
			write(p, link.EncodePPMask(globalPP()))

		case link.KindPPMask:
			if checkpointSender != nil {
				delayed = append(delayed, te)
				continue
			}
			p.pp = te.ev.Byte
			pp := globalPP()
			for _, r := range connectedPorts() {
				if r.id == p.id {
					continue
				}
				write(r, link.EncodePPMask(pp))
			}
		}
	}
}
