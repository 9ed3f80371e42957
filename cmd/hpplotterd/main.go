// main.go - hpplotterd: 9872-style HPGL plotter emulator daemon

// Command hpplotterd serves an HP9872 plotter over the Remotizer link
// protocol, parsing HPGL text arriving as HP-IB listen data (spec.md
// §4.1, §4.2, §4.6) and logging the resulting plot segments.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"sync/atomic"

	"github.com/hpvintage/remotizer/internal/hpgl"
	"github.com/hpvintage/remotizer/internal/hpib"
	"github.com/hpvintage/remotizer/internal/hplog"
	"github.com/hpvintage/remotizer/internal/link"
	"github.com/hpvintage/remotizer/internal/monitor"
	"github.com/hpvintage/remotizer/internal/plotter"
	"github.com/hpvintage/remotizer/internal/transport"
)

func main() {
	fs := flag.NewFlagSet("hpplotterd", flag.ExitOnError)
	port := fs.Int("port", 1235, "TCP listen port (1..65535)")
	addr := fs.Int("addr", 5, "HP-IB primary address (0..30)")
	mon := fs.Bool("monitor", false, "open an interactive raw-terminal status console")
	_ = fs.Parse(os.Args[1:])

	if *port < 1 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "hpplotterd: --port must be 1..65535")
		os.Exit(1)
	}
	if *addr < 0 || *addr > 30 {
		fmt.Fprintln(os.Stderr, "hpplotterd: --addr must be 0..30")
		os.Exit(1)
	}

	logger := hplog.New("hpplotterd")
	ln, err := transport.Listen(*port)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}
	logger.Printf("listening on %s, addr=%d", ln.Addr(), *addr)

	var segCount int64
	if *mon {
		host := monitor.NewHost(func(line string) {
			logger.Printf("status: segments drawn=%d", atomic.LoadInt64(&segCount))
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
		go serveConn(conn, *addr, &segCount, logger)
	}
}

func serveConn(conn net.Conn, addr int, segCount *int64, logger *log.Logger) {
	l := link.New(conn)
	fsm := hpib.New(addr)
	core := plotter.NewCore()
	core.OnSegment = func(s plotter.Segment) {
		atomic.AddInt64(segCount, 1)
		logger.Printf("segment pen=%d (%.1f,%.1f)-(%.1f,%.1f)", s.Pen, s.P1.X, s.P1.Y, s.P2.X, s.P2.Y)
	}
	fsm.StatusByte = core.StatusByte

	var pending []byte
	for ev := range l.Events {
		devEvents := fsm.Handle(ev)
		for _, de := range devEvents {
			switch de.Kind {
			case hpib.EvListenData:
				pending = append(pending, de.Data...)
				if de.End {
					execHPGL(core, pending)
					pending = pending[:0]
				}
			case hpib.EvTalk:
				if err := l.WriteData([]byte{core.StatusByte()}, true); err != nil {
					logger.Printf("write: %v", err)
				}
			case hpib.EvPPMaskRequest:
				if err := l.Write(link.EncodePPMask(fsm.PPResponseBit())); err != nil {
					logger.Printf("write: %v", err)
				}
			case hpib.EvDeviceClear:
				core.Exec(hpgl.Command{Mnemonic: "IN"})
			case hpib.EvDisconnected:
				return
			}
		}
	}
}

func execHPGL(core *plotter.Core, buf []byte) {
	lex := hpgl.NewLexer(buf)
	for {
		cmd, ok := lex.Next()
		if !ok {
			return
		}
		core.Exec(cmd)
	}
}
