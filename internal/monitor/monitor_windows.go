//go:build windows

// monitor_windows.go - interactive raw-terminal status console (Windows)

package monitor

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Host reads raw stdin and dispatches each completed line to OnLine.
type Host struct {
	OnLine func(line string)

	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	oldTermState *term.State
}

// NewHost returns a monitor host invoking onLine for each Enter-terminated
// command read from stdin.
func NewHost(onLine func(line string)) *Host {
	return &Host{
		OnLine: onLine,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start puts stdin in raw mode and begins reading in a goroutine. Call
// Stop to restore stdin.
func (h *Host) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "monitor: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)
		var line []byte

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := os.Stdin.Read(buf)
			if n > 0 {
				b := buf[0]
				switch b {
				case '\r', '\n':
					if len(line) > 0 && h.OnLine != nil {
						h.OnLine(string(line))
					}
					line = line[:0]
				case 0x7F, 0x08:
					if len(line) > 0 {
						line = line[:len(line)-1]
					}
				default:
					line = append(line, b)
				}
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// Stop terminates the stdin reading goroutine and restores terminal state.
func (h *Host) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
