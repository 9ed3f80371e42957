// main.go - hpbisyncd: 2780 BiSync two-party relay daemon

// Command hpbisyncd relays BiSync 2780 frames between a "modem" side and
// a "Hercules" side (spec.md §4.3, §4.5). The modem side listens on
// -port (a TCP peer, or a real tty when -serial is given); the Hercules
// side listens on -herc-port.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hpvintage/remotizer/internal/bisync"
	"github.com/hpvintage/remotizer/internal/hplog"
	"github.com/hpvintage/remotizer/internal/monitor"
	"github.com/hpvintage/remotizer/internal/transport"
)

func main() {
	fs := flag.NewFlagSet("hpbisyncd", flag.ExitOnError)
	port := fs.Int("port", 2780, "modem-side TCP listen port (1..65535)")
	hercPort := fs.Int("herc-port", 2781, "Hercules-side TCP listen port (1..65535)")
	serialDev := fs.String("serial", "", "modem-side real tty device (Linux only); overrides -port")
	baud := fs.Int("baud", 9600, "serial baud rate when -serial is set")
	mon := fs.Bool("monitor", false, "open an interactive raw-terminal status console")
	_ = fs.Parse(os.Args[1:])

	for _, p := range []int{*port, *hercPort} {
		if p < 1 || p > 65535 {
			fmt.Fprintln(os.Stderr, "hpbisyncd: port must be 1..65535")
			os.Exit(1)
		}
	}

	logger := hplog.New("hpbisyncd")

	var modem transport.ByteStream
	var err error
	if *serialDev != "" {
		modem, err = transport.OpenSerial(*serialDev, uint32(*baud))
		if err != nil {
			logger.Fatalf("open serial %s: %v", *serialDev, err)
		}
		logger.Printf("modem side: serial %s @ %d baud", *serialDev, *baud)
	} else {
		modem, err = acceptOne(*port, logger, "modem")
		if err != nil {
			logger.Fatalf("modem side: %v", err)
		}
	}

	hercules, err := acceptOne(*hercPort, logger, "hercules")
	if err != nil {
		logger.Fatalf("hercules side: %v", err)
	}

	engine := bisync.NewEngine(bisync.NewFrameCodec(modem), bisync.NewFrameCodec(hercules))
	logger.Printf("relaying modem <-> hercules")

	if *mon {
		host := monitor.NewHost(func(line string) {
			logger.Printf("status: relaying modem <-> hercules")
		})
		host.Start()
		defer host.Stop()
	}

	if err := engine.Run(context.Background()); err != nil {
		logger.Printf("relay ended: %v", err)
	}
}

func acceptOne(port int, logger *log.Logger, side string) (transport.ByteStream, error) {
	ln, err := transport.Listen(port)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	logger.Printf("%s side: listening on %s", side, ln.Addr())
	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	logger.Printf("%s side: connected from %s", side, conn.RemoteAddr())
	return conn, nil
}
