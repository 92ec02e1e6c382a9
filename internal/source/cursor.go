package source

import (
	"context"
	"time"

	"github.com/1broseidon/parallaxd/internal/hyprland"
	"github.com/1broseidon/parallaxd/internal/x11"
)

// CursorProvider reports the pointer in compositor-global coordinates.
type CursorProvider interface {
	Name() string
	Sample() (x, y float64, ok bool)
}

// cursorQueryTimeout keeps a stuck compositor from stalling the loop.
const cursorQueryTimeout = 50 * time.Millisecond

// HyprlandCursor queries j/cursorpos on the request socket.
type HyprlandCursor struct {
	Client *hyprland.Client
}

func (HyprlandCursor) Name() string { return "hyprland" }

func (c HyprlandCursor) Sample() (float64, float64, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), cursorQueryTimeout)
	defer cancel()
	x, y, err := c.Client.CursorPos(ctx)
	if err != nil {
		return 0, 0, false
	}
	return x, y, true
}

// X11Pointer uses QueryPointer on the root window.
type X11Pointer struct {
	Conn *x11.Connection
}

func (X11Pointer) Name() string { return "x11" }

func (p X11Pointer) Sample() (float64, float64, bool) {
	x, y, err := p.Conn.Pointer()
	if err != nil {
		return 0, 0, false
	}
	return float64(x), float64(y), true
}

// Chain tries providers in order and returns the first sample.
type Chain []CursorProvider

func (Chain) Name() string { return "chain" }

func (c Chain) Sample() (float64, float64, bool) {
	for _, p := range c {
		if x, y, ok := p.Sample(); ok {
			return x, y, true
		}
	}
	return 0, 0, false
}
