// engine.go - BiSyncEngine: two-party relay between a modem and Hercules side

package bisync

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hpvintage/remotizer/internal/hplog"
)

// keepAlive is the idle timeout before a SYN/SYN/PAD filler is injected on
// the modem side, per spec.md §4.5.
const keepAlive = 1 * time.Second

// Engine hosts the modem (A) and Hercules (B) FrameCodecs and relays each
// side's decoded messages to the other, re-encoded.
type Engine struct {
	Modem    *FrameCodec
	Hercules *FrameCodec

	log *log.Logger
}

// NewEngine returns an engine relaying between the given sides.
func NewEngine(modem, hercules *FrameCodec) *Engine {
	return &Engine{Modem: modem, Hercules: hercules, log: hplog.New("bisync")}
}

// Run relays messages until ctx is cancelled or either side closes; a null
// byte read or a transport error on one side tears down both, per spec.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return e.pump(ctx, e.Modem, e.Hercules, true)
	})
	g.Go(func() error {
		defer cancel()
		return e.pump(ctx, e.Hercules, e.Modem, false)
	})
	return g.Wait()
}

func (e *Engine) pump(ctx context.Context, from, to *FrameCodec, injectKeepAlive bool) error {
	msgs := make(chan Message)
	errs := make(chan error, 1)
	go func() {
		for {
			m, err := from.ReadMessage()
			if err != nil {
				errs <- err
				return
			}
			msgs <- m
		}
	}()

	timer := time.NewTimer(keepAlive)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			return err
		case m := <-msgs:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(keepAlive)
			if err := to.WriteMessage(m); err != nil {
				return err
			}
		case <-timer.C:
			if injectKeepAlive {
				e.log.Printf("keep-alive: injecting SYN/SYN/PAD on modem side")
				if _, err := e.Modem.Stream.Write([]byte{ctlSYN, ctlSYN, ctlPAD}); err != nil {
					return err
				}
			}
			timer.Reset(keepAlive)
		}
	}
}
