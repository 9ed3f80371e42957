// main.go - hpdigitizerd: HP9111 digitizer emulator daemon

// Command hpdigitizerd serves an HP9111 digitizer over the Remotizer link
// protocol (spec.md §4.1, §4.2, §4.7). Pen samples are read as whitespace
// separated "x y pressed proximity" lines on stdin (the GUI pen-position
// collaborator spec.md places out of scope), latched on a fixed-rate
// timer, and the most recent digitized point is returned on Talk.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/hpvintage/remotizer/internal/digitizer"
	"github.com/hpvintage/remotizer/internal/hpib"
	"github.com/hpvintage/remotizer/internal/hplog"
	"github.com/hpvintage/remotizer/internal/link"
	"github.com/hpvintage/remotizer/internal/monitor"
	"github.com/hpvintage/remotizer/internal/transport"
)

func main() {
	fs := flag.NewFlagSet("hpdigitizerd", flag.ExitOnError)
	port := fs.Int("port", 1236, "TCP listen port (1..65535)")
	addr := fs.Int("addr", 6, "HP-IB primary address (0..30)")
	rate := fs.Int("rate", 60, "pen sample rate in Hz (1..60)")
	mon := fs.Bool("monitor", false, "open an interactive raw-terminal status console")
	_ = fs.Parse(os.Args[1:])

	if *port < 1 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "hpdigitizerd: --port must be 1..65535")
		os.Exit(1)
	}
	if *addr < 0 || *addr > 30 {
		fmt.Fprintln(os.Stderr, "hpdigitizerd: --addr must be 0..30")
		os.Exit(1)
	}

	logger := hplog.New("hpdigitizerd")
	dgtz := digitizer.New()
	dgtz.SetRate(*rate)

	player, err := digitizer.NewPlayer()
	if err != nil {
		logger.Printf("sound disabled: %v", err)
		player = nil
	}

	go readPenEvents(os.Stdin, dgtz, logger)

	ln, err := transport.Listen(*port)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}
	logger.Printf("listening on %s, addr=%d, rate=%dHz", ln.Addr(), *addr, dgtz.RateHz)

	if *mon {
		host := monitor.NewHost(func(line string) {
			logger.Printf("status: state=%d rate=%dHz last=(%d,%d)", dgtz.State, dgtz.RateHz, dgtz.LastPoint.X, dgtz.LastPoint.Y)
		})
		host.Start()
		defer host.Stop()
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Printf("accept: %v", err)
			continue
		}
		go serveConn(conn, *addr, dgtz, player, logger)
	}
}

// readPenEvents parses "x y pressed proximity" lines from r and latches
// them into dgtz, standing in for the GUI pen-position collaborator.
func readPenEvents(r *os.File, dgtz *digitizer.Digitizer, logger *log.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var x, y int
		var pressed, prox int
		n, err := fmt.Sscanf(sc.Text(), "%d %d %d %d", &x, &y, &pressed, &prox)
		if err != nil || n != 4 {
			continue
		}
		dgtz.Latch(digitizer.PenEvent{X: x, Y: y, Pressed: pressed != 0, Proximity: prox != 0})
	}
}

func serveConn(conn net.Conn, addr int, dgtz *digitizer.Digitizer, player *digitizer.Player, logger *log.Logger) {
	l := link.New(conn)
	fsm := hpib.New(addr)

	var mu sync.Mutex
	var haveLast bool
	var lastX, lastY int

	period := time.Second / time.Duration(dgtz.RateHz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	go func() {
		for range ticker.C {
			softKey, dataPoint := dgtz.Tick()
			if dataPoint {
				mu.Lock()
				haveLast = true
				lastX, lastY = dgtz.LastPoint.X, dgtz.LastPoint.Y
				mu.Unlock()
			}
			if softKey >= 0 && player != nil {
				player.Play(digitizer.Note{Semitone: softKey, Amplitude: digitizer.Amp0dB, Duration: 0.08})
			}
		}
	}()

	for ev := range l.Events {
		devEvents := fsm.Handle(ev)
		for _, de := range devEvents {
			switch de.Kind {
			case hpib.EvTalk:
				mu.Lock()
				ok, x, y := haveLast, lastX, lastY
				mu.Unlock()
				if !ok {
					continue
				}
				payload := []byte{
					byte(x >> 8), byte(x),
					byte(y >> 8), byte(y),
				}
				if err := l.WriteData(payload, true); err != nil {
					logger.Printf("write: %v", err)
				}
			case hpib.EvPPMaskRequest:
				if err := l.Write(link.EncodePPMask(fsm.PPResponseBit())); err != nil {
					logger.Printf("write: %v", err)
				}
			case hpib.EvDisconnected:
				return
			}
		}
	}
}
