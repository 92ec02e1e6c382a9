// Package platform enumerates displays for the daemon, independent of the
// window system underneath.
package platform

import (
	"github.com/1broseidon/parallaxd/internal/monitor"
)

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Display describes one active output.
type Display struct {
	ID        int
	Name      string
	Output    uint64 // platform handle; RandR output or compositor id
	Bounds    Rect
	Scale     float64
	RefreshHz float64
	Primary   bool
}

// Geometry converts d into the monitor registry's geometry.
func (d Display) Geometry() monitor.Geometry {
	scale := d.Scale
	if scale <= 0 {
		scale = 1
	}
	return monitor.Geometry{
		X:         d.Bounds.X,
		Y:         d.Bounds.Y,
		Width:     d.Bounds.Width,
		Height:    d.Bounds.Height,
		Scale:     scale,
		RefreshHz: d.RefreshHz,
	}
}

// Backend lists the displays of one window system.
type Backend interface {
	Displays() ([]Display, error)
	Name() string
	Close() error
}
