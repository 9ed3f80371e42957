//go:build headless

// player_headless.go - no-op sound subsystem for headless builds

package digitizer

// Player is a no-op stand-in when built with the headless tag.
type Player struct{}

// NewPlayer always succeeds in a headless build.
func NewPlayer() (*Player, error) { return &Player{}, nil }

// Play discards n.
func (p *Player) Play(n Note) {}
