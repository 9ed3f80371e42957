// main.go - hpdiskd: Amigo / SS/80 disk drive emulator daemon

// Command hpdiskd serves an Amigo or SS/80 HP-IB disk drive over the
// Remotizer link protocol (spec.md §4.1, §4.2, §4.4), backed by a raw
// sector-stream image file per unit.
package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/hpvintage/remotizer/internal/drive"
	"github.com/hpvintage/remotizer/internal/hpib"
	"github.com/hpvintage/remotizer/internal/hplog"
	"github.com/hpvintage/remotizer/internal/link"
	"github.com/hpvintage/remotizer/internal/monitor"
	"github.com/hpvintage/remotizer/internal/transport"
)

func main() {
	fs := flag.NewFlagSet("hpdiskd", flag.ExitOnError)
	port := fs.Int("port", 1234, "TCP listen port (1..65535)")
	addr := fs.Int("addr", 0, "HP-IB primary address (0..30)")
	proto := fs.String("protocol", "amigo", "disk protocol: amigo or ss80")
	image := fs.String("image", "", "path to a raw sector-stream disk image")
	model := fs.String("model", "", "named fixed drive model (9895, 9134b); overrides --cyl/--heads/--sectors")
	cyl := fs.Int("cyl", 77, "unit cylinder count")
	heads := fs.Int("heads", 2, "unit head count")
	sectors := fs.Int("sectors", 30, "unit sectors-per-track count")
	secSize := fs.Int("secsize", 256, "bytes per sector (256 or 512)")
	mon := fs.Bool("monitor", false, "open an interactive raw-terminal status console")
	_ = fs.Parse(os.Args[1:])

	if *port < 1 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "hpdiskd: --port must be 1..65535")
		os.Exit(1)
	}
	if *addr < 0 || *addr > 30 {
		fmt.Fprintln(os.Stderr, "hpdiskd: --addr must be 0..30")
		os.Exit(1)
	}

	geometry := drive.Geometry{Cylinders: *cyl, Heads: *heads, Sectors: *sectors}
	var idSeq [2]byte
	if *model != "" {
		m, ok := drive.LookupModel(*model)
		if !ok {
			fmt.Fprintf(os.Stderr, "hpdiskd: unknown --model %q (available: 9895, 9134b)\n", *model)
			os.Exit(1)
		}
		geometry = m.Geometry
		idSeq = m.IDSeq
	}

	unit := drive.NewUnit(geometry, *secSize)
	if *image != "" {
		f, err := os.OpenFile(*image, os.O_RDWR, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hpdiskd: open image: %v\n", err)
			os.Exit(1)
		}
		unit.Attach(f, false)
	}

	logger := hplog.New("hpdiskd")
	ln, err := transport.Listen(*port)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}
	logger.Printf("listening on %s, protocol=%s addr=%d", ln.Addr(), *proto, *addr)

	if *mon {
		host := monitor.NewHost(func(line string) {
			logger.Printf("status: attached=%v reads=%d writes=%d lba=%d", unit.Attached(), unit.Reads, unit.Writes, unit.CurrentLBA)
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
		go serveConn(conn, *addr, *proto, unit, idSeq, logger)
	}
}

func serveConn(conn net.Conn, addr int, proto string, unit *drive.Unit, idSeq [2]byte, logger *log.Logger) {
	l := link.New(conn)
	fsm := hpib.New(addr)

	switch proto {
	case "ss80":
		serveSS80(l, fsm, unit, idSeq, logger)
	default:
		serveAmigo(l, fsm, unit, idSeq, logger)
	}
}

// identify replies to an HP-IB Identify sequence (UNT followed by this
// device's own secondary address) with this
// model's 2-byte ID sequence (D: high byte, E: low byte with EOI), then
// checkpoints so the controller can confirm receipt before the bus moves
// on (spec.md §8 scenario 1).
func identify(l *link.Link, idSeq [2]byte, logger *log.Logger) {
	if err := l.WriteData(idSeq[:], true); err != nil {
		logger.Printf("write: %v", err)
		return
	}
	if err := l.Write(link.EncodeCheckpoint()); err != nil {
		logger.Printf("write: %v", err)
	}
}

func serveAmigo(l *link.Link, fsm *hpib.FSM, unit *drive.Unit, idSeq [2]byte, logger *log.Logger) {
	d := drive.NewDrive(unit)
	ctrl := drive.NewAmigoController(d)
	fsm.StatusByte = func() byte { return d.StatusBuf[0] }

	for ev := range l.Events {
		if ev.Kind == link.KindCheckpointReached {
			runAmigoActions(l, fsm, ctrl.CheckpointReached(ev.Flushed))
			continue
		}
		devEvents := fsm.Handle(ev)
		for _, de := range devEvents {
			switch de.Kind {
			case hpib.EvListenData:
				runAmigoActions(l, fsm, ctrl.HandleListenData(de.SecondaryAddr, de.Data))
			case hpib.EvTalk:
				if data, ok := ctrl.TalkData(de.SecondaryAddr); ok {
					if err := l.WriteData(data, true); err != nil {
						logger.Printf("write: %v", err)
					}
				}
			case hpib.EvIdentify:
				identify(l, idSeq, logger)
			case hpib.EvPPMaskRequest:
				if err := l.Write(link.EncodePPMask(fsm.PPResponseBit())); err != nil {
					logger.Printf("write: %v", err)
				}
			case hpib.EvDeviceClear:
				ctrl.Seq = drive.SeqIdle
			case hpib.EvDisconnected:
				return
			}
		}
	}
}

func runAmigoActions(l *link.Link, fsm *hpib.FSM, actions []drive.Action) {
	for _, a := range actions {
		switch a.Kind {
		case drive.ActTalkData:
			_ = l.WriteData(a.Data, false)
		case drive.ActCheckpoint:
			_ = l.Write(link.EncodeCheckpoint())
		case drive.ActSetPPEnable:
			fsm.SetPPEnable(a.PPEnable)
		}
	}
}

func serveSS80(l *link.Link, fsm *hpib.FSM, unit *drive.Unit, idSeq [2]byte, logger *log.Logger) {
	su := drive.NewSS80Unit(unit)
	ctrl := drive.NewSS80Controller(su)

	for ev := range l.Events {
		devEvents := fsm.Handle(ev)
		for _, de := range devEvents {
			switch de.Kind {
			case hpib.EvListenData:
				ctrl.HandleListenData(de.SecondaryAddr, de.Data)
			case hpib.EvTalk:
				if data, ok := ctrl.TalkData(de.SecondaryAddr); ok {
					if err := l.WriteData(data, true); err != nil {
						logger.Printf("write: %v", err)
					}
				}
			case hpib.EvIdentify:
				identify(l, idSeq, logger)
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
