// Package monitor tracks the outputs parallax is drawn on.
package monitor

import (
	"github.com/1broseidon/parallaxd/internal/anim"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

const (
	DefaultScale     = 1.0
	DefaultRefreshHz = 60.0
)

// Geometry is an output's placement in compositor-global coordinates.
type Geometry struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Scale     float64 `json:"scale"`
	RefreshHz float64 `json:"refresh_hz"`
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect returns the geometry as a float rectangle.
func (g Geometry) Rect() Rect {
	return Rect{X: float64(g.X), Y: float64(g.Y), Width: float64(g.Width), Height: float64(g.Height)}
}

// Contains reports whether (x, y) lies inside r.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.Width && y < r.Y+r.Height
}

// Monitor is one output with its own workspace context and parallax motion.
type Monitor struct {
	ID     uint32   `json:"id"`
	Name   string   `json:"name"`
	Output uint64   `json:"output,omitempty"`
	Geom   Geometry `json:"geometry"`

	Current  workspace.Context `json:"current"`
	Previous workspace.Context `json:"previous"`

	// Parallax holds the animated offset; Parallax.Value is the committed value.
	Parallax anim.Pair `json:"parallax"`
	Shift    float32   `json:"shift"`

	FramePending bool `json:"frame_pending"`
	Primary      bool `json:"primary"`
}

// Registry is the ordered set of monitors. Insertion order is preserved.
type Registry struct {
	monitors []*Monitor
	nextID   uint32
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{nextID: 1}
}

// Add appends a monitor. The first monitor added becomes primary.
func (r *Registry) Add(name string, geom Geometry, output uint64, initial workspace.Context, shift float32) *Monitor {
	if geom.Scale <= 0 {
		geom.Scale = DefaultScale
	}
	if geom.RefreshHz <= 0 {
		geom.RefreshHz = DefaultRefreshHz
	}
	if r.nextID == 0 {
		r.nextID = 1
	}
	m := &Monitor{
		ID:       r.nextID,
		Name:     name,
		Output:   output,
		Geom:     geom,
		Current:  initial,
		Previous: initial,
		Shift:    shift,
	}
	r.nextID++
	if len(r.monitors) == 0 {
		m.Primary = true
	}
	r.monitors = append(r.monitors, m)
	return m
}

// Remove deletes the monitor with id. If it was primary, the new head is
// promoted.
func (r *Registry) Remove(id uint32) bool {
	for i, m := range r.monitors {
		if m.ID != id {
			continue
		}
		r.monitors = append(r.monitors[:i], r.monitors[i+1:]...)
		if m.Primary && len(r.monitors) > 0 {
			r.monitors[0].Primary = true
		}
		return true
	}
	return false
}

// ByName returns the monitor named name.
func (r *Registry) ByName(name string) *Monitor {
	for _, m := range r.monitors {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// ByID returns the monitor with id.
func (r *Registry) ByID(id uint32) *Monitor {
	for _, m := range r.monitors {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// ByOutput returns the monitor bound to a platform output handle.
func (r *Registry) ByOutput(output uint64) *Monitor {
	for _, m := range r.monitors {
		if m.Output == output {
			return m
		}
	}
	return nil
}

// Primary returns the primary monitor, or nil if the registry is empty.
func (r *Registry) Primary() *Monitor {
	for _, m := range r.monitors {
		if m.Primary {
			return m
		}
	}
	return nil
}

// Head returns the first monitor in insertion order.
func (r *Registry) Head() *Monitor {
	if len(r.monitors) == 0 {
		return nil
	}
	return r.monitors[0]
}

// SetPrimary makes the named monitor primary.
func (r *Registry) SetPrimary(name string) bool {
	target := r.ByName(name)
	if target == nil {
		return false
	}
	for _, m := range r.monitors {
		m.Primary = m == target
	}
	return true
}

// Resolution reports how Resolve found its monitor.
type Resolution int

const (
	ResolvedNone Resolution = iota
	ResolvedByName
	ResolvedPrimary
	ResolvedHead
)

func (r Resolution) String() string {
	switch r {
	case ResolvedByName:
		return "name"
	case ResolvedPrimary:
		return "primary"
	case ResolvedHead:
		return "head"
	default:
		return "none"
	}
}

// Resolve finds the monitor for an event naming name: by name, then the
// primary, then the head.
func (r *Registry) Resolve(name string) (*Monitor, Resolution) {
	if name != "" {
		if m := r.ByName(name); m != nil {
			return m, ResolvedByName
		}
	}
	if m := r.Primary(); m != nil {
		return m, ResolvedPrimary
	}
	if m := r.Head(); m != nil {
		return m, ResolvedHead
	}
	return nil, ResolvedNone
}

// At returns the monitor containing (x, y), or nil.
func (r *Registry) At(x, y float64) *Monitor {
	for _, m := range r.monitors {
		if m.Geom.Rect().Contains(x, y) {
			return m
		}
	}
	return nil
}

// Bounds returns the union of all monitor rectangles.
func (r *Registry) Bounds() Rect {
	if len(r.monitors) == 0 {
		return Rect{}
	}
	first := r.monitors[0].Geom.Rect()
	minX, minY := first.X, first.Y
	maxX, maxY := first.X+first.Width, first.Y+first.Height
	for _, m := range r.monitors[1:] {
		g := m.Geom.Rect()
		minX = min(minX, g.X)
		minY = min(minY, g.Y)
		maxX = max(maxX, g.X+g.Width)
		maxY = max(maxY, g.Y+g.Height)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// All returns the monitors in insertion order. The slice is shared.
func (r *Registry) All() []*Monitor {
	return r.monitors
}

// Len returns the number of monitors.
func (r *Registry) Len() int {
	return len(r.monitors)
}

// AnyAnimating reports whether any monitor parallax animation is active.
func (r *Registry) AnyAnimating() bool {
	for _, m := range r.monitors {
		if m.Parallax.Active() {
			return true
		}
	}
	return false
}

// AnyFrameReady reports whether at least one monitor can accept a frame.
func (r *Registry) AnyFrameReady() bool {
	for _, m := range r.monitors {
		if !m.FramePending {
			return true
		}
	}
	return false
}
