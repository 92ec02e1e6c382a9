package parallax

import (
	"fmt"
	"strings"

	"github.com/1broseidon/parallaxd/internal/anim"
)

// Mode selects which motion sources drive the layers.
type Mode int

const (
	ModeWorkspace Mode = iota
	ModeCursor
	ModeHybrid
)

func (m Mode) String() string {
	switch m {
	case ModeCursor:
		return "cursor"
	case ModeHybrid:
		return "hybrid"
	default:
		return "workspace"
	}
}

// MarshalText renders the config spelling.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode parses a config spelling.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "workspace", "":
		return ModeWorkspace, nil
	case "cursor":
		return ModeCursor, nil
	case "hybrid":
		return ModeHybrid, nil
	default:
		return ModeWorkspace, fmt.Errorf("unknown parallax mode %q", s)
	}
}

// Next cycles workspace -> cursor -> hybrid -> workspace.
func (m Mode) Next() Mode {
	return (m + 1) % 3
}

// Weights scale each motion source.
type Weights struct {
	Workspace float32 `json:"workspace"`
	Cursor    float32 `json:"cursor"`
}

// DefaultWeights returns the weights implied by a mode.
func DefaultWeights(m Mode) Weights {
	switch m {
	case ModeCursor:
		return Weights{Workspace: 0, Cursor: 1}
	case ModeHybrid:
		return Weights{Workspace: 0.7, Cursor: 0.3}
	default:
		return Weights{Workspace: 1, Cursor: 0}
	}
}

// Settings are the global blend parameters.
type Settings struct {
	Mode            Mode     `json:"mode"`
	Weights         Weights  `json:"weights"`
	InvertWorkspace Invert   `json:"invert_workspace"`
	InvertCursor    Invert   `json:"invert_cursor"`
	MaxOffset       anim.Vec `json:"max_offset_px"`
	// CursorShift is the pixel travel of a multiplier-1 layer at full
	// cursor deflection.
	CursorShift float32 `json:"cursor_shift"`
}

// Compose blends l's workspace offset with the normalized cursor offset into
// final pixel offsets. Global and per-layer inversions combine by XOR.
func Compose(s Settings, l *Layer, cursor anim.Vec) anim.Vec {
	ws := l.Offset()

	wsX := ws.X * s.Weights.Workspace * sign(s.InvertWorkspace.X != l.InvertWorkspace.X)
	wsY := ws.Y * s.Weights.Workspace * sign(s.InvertWorkspace.Y != l.InvertWorkspace.Y)

	curX := cursor.X * s.CursorShift * l.Multiplier.X * s.Weights.Cursor * sign(s.InvertCursor.X != l.InvertCursor.X)
	curY := cursor.Y * s.CursorShift * l.Multiplier.Y * s.Weights.Cursor * sign(s.InvertCursor.Y != l.InvertCursor.Y)

	return anim.Vec{
		X: clampAbs(wsX+curX, s.MaxOffset.X),
		Y: clampAbs(wsY+curY, s.MaxOffset.Y),
	}
}

func sign(invert bool) float32 {
	if invert {
		return -1
	}
	return 1
}

// clampAbs limits v to [-limit, limit]; limit <= 0 disables clamping.
func clampAbs(v, limit float32) float32 {
	if limit <= 0 {
		return v
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
