//go:build !headless

// player_oto.go - OTO v3 playback of HP9111 soft-key confirmation notes

package digitizer

import (
	"io"
	"math"

	"github.com/ebitengine/oto/v3"
)

// Player plays Notes through the system audio device, standing in for the
// HP9111 sound subsystem (spec.md §4.7).
type Player struct {
	ctx *oto.Context
}

// NewPlayer opens an oto context at SampleRate, mono float32.
func NewPlayer() (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	return &Player{ctx: ctx}, nil
}

// Play synthesizes n and plays it asynchronously; the returned player is
// not retained, matching the teacher's fire-and-forget confirmation beeps.
func (p *Player) Play(n Note) {
	samples := SynthNote(n)
	if len(samples) == 0 {
		return
	}
	pl := p.ctx.NewPlayer(&float32Reader{samples: samples})
	pl.Play()
}

type float32Reader struct {
	samples []float32
	pos     int
}

func (r *float32Reader) Read(p []byte) (int, error) {
	if r.pos >= len(r.samples) {
		return 0, io.EOF
	}
	n := 0
	for n+3 < len(p) && r.pos < len(r.samples) {
		bits := math.Float32bits(r.samples[r.pos])
		p[n] = byte(bits)
		p[n+1] = byte(bits >> 8)
		p[n+2] = byte(bits >> 16)
		p[n+3] = byte(bits >> 24)
		n += 4
		r.pos++
	}
	return n, nil
}
