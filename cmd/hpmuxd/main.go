// main.go - hpmuxd: Remotizer multiplexer daemon

// Command hpmuxd bridges two or more Remotizer ports (spec.md §4.2's
// parallel-poll broadcast, §4.1's link), relaying data bytes, bus
// signals, checkpoints, and parallel-poll masks between whichever ports
// are currently connected. Each positional argument is a port spec of
// the form "S:xxxx" (hpmuxd listens on xxxx) or "C:xxxx" (hpmuxd dials
// out to xxxx), mirroring the original multiplexer's command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hpvintage/remotizer/internal/hplog"
	"github.com/hpvintage/remotizer/internal/mux"
)

func main() {
	fs := flag.NewFlagSet("hpmuxd", flag.ExitOnError)
	_ = fs.Parse(os.Args[1:])

	args := fs.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: hpmuxd [C:port|S:port] [C:port|S:port] ...")
		os.Exit(1)
	}

	specs := make([]mux.PortSpec, 0, len(args))
	for _, a := range args {
		spec, err := mux.ParsePortSpec(a)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hpmuxd: %v\n", err)
			os.Exit(1)
		}
		specs = append(specs, spec)
	}

	m, err := mux.New(specs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hpmuxd: %v\n", err)
		os.Exit(1)
	}

	logger := hplog.New("hpmuxd")
	for _, s := range specs {
		mode := "client"
		if s.IsServer {
			mode = "server"
		}
		logger.Printf("port %d: %s", s.Port, mode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := m.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatalf("mux: %v", err)
	}
}
