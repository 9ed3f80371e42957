// main.go - hpsrmd: SRM file server daemon

// Command hpsrmd serves SRM file-system requests over SDLC/LAPB framing
// (spec.md §4.8), backed by a real directory tree rooted at -root.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/hpvintage/remotizer/internal/hplog"
	"github.com/hpvintage/remotizer/internal/monitor"
	"github.com/hpvintage/remotizer/internal/sdlc"
	"github.com/hpvintage/remotizer/internal/srm"
	"github.com/hpvintage/remotizer/internal/transport"
)

func main() {
	fs := flag.NewFlagSet("hpsrmd", flag.ExitOnError)
	port := fs.Int("port", 2703, "TCP listen port (1..65535)")
	addr := fs.Int("addr", 1, "SDLC station address (0..63)")
	root := fs.String("root", ".", "directory tree served to SRM clients")
	mon := fs.Bool("monitor", false, "open an interactive raw-terminal status console")
	_ = fs.Parse(os.Args[1:])

	if *port < 1 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "hpsrmd: --port must be 1..65535")
		os.Exit(1)
	}
	if *addr < 0 || *addr > 63 {
		fmt.Fprintln(os.Stderr, "hpsrmd: --addr must be 0..63")
		os.Exit(1)
	}

	absRoot, err := os.Getwd()
	if err == nil && *root != "" {
		if r, err2 := os.Stat(*root); err2 == nil && r.IsDir() {
			absRoot = *root
		}
	}

	logger := hplog.New("hpsrmd")
	srv := srm.NewServer(absRoot)

	ln, err := transport.Listen(*port)
	if err != nil {
		logger.Fatalf("listen: %v", err)
	}
	logger.Printf("listening on %s, addr=%d, root=%s", ln.Addr(), *addr, absRoot)

	var connCount int64
	if *mon {
		host := monitor.NewHost(func(line string) {
			logger.Printf("status: connections served=%d", atomic.LoadInt64(&connCount))
		})
		host.Start()
		defer host.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// g tracks every accepted connection's goroutine; cancelling ctx (on
	// SIGINT/SIGTERM) closes the listener and each live connection in turn
	// rather than leaking an unmanaged goroutine per client, per
	// spec.md §5's disconnect/cancellation model.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	for {
		conn, err := ln.Accept()
		if err != nil {
			if gctx.Err() != nil {
				break
			}
			logger.Printf("accept: %v", err)
			continue
		}
		atomic.AddInt64(&connCount, 1)
		g.Go(func() error {
			serveConn(gctx, conn, byte(*addr), srv, logger)
			return nil
		})
	}

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		logger.Printf("shutdown: %v", err)
	}
}

// serveConn runs one SDLC/LAPB station over conn, dispatching each
// delivered I-frame's payload as one SRM transaction. ctx cancellation
// (daemon shutdown) closes conn, unblocking the pending Read.
func serveConn(ctx context.Context, conn net.Conn, addr byte, srv *srm.Server, logger *log.Logger) {
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	dec := sdlc.NewFrameDecoder()
	session := sdlc.NewSession(addr)
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			logger.Printf("read: %v", err)
			return
		}
		for _, b := range buf[:n] {
			pkt, ok, abort := dec.Feed(b)
			if abort {
				continue
			}
			if !ok || len(pkt.Body) < 2 || !pkt.CRCOK {
				continue
			}
			stationAddr := pkt.Body[0]
			control := pkt.Body[1]
			info := pkt.Body[2:]
			if stationAddr != addr {
				continue
			}

			replies, deliver := session.HandleFrame(control, info)
			for _, r := range replies {
				writeFrame(conn, addr, r, logger)
			}
			if deliver == nil {
				continue
			}
			req, ok := srm.DecodeRequest(deliver)
			if !ok {
				continue
			}
			status, payload := srv.Dispatch(req)
			resp := srm.EncodeResponse(req.Code, req.Seq, status, payload)
			writeFrame(conn, addr, session.SendI(resp), logger)
		}
	}
}

func writeFrame(conn net.Conn, addr byte, o sdlc.Outgoing, logger *log.Logger) {
	body := append([]byte{addr, o.Control}, o.Info...)
	if _, err := conn.Write(sdlc.EncodeFrame(body)); err != nil {
		logger.Printf("write: %v", err)
	}
}
