//go:build linux

package platform

import (
	"fmt"
	"sort"

	"github.com/1broseidon/parallaxd/internal/x11"
)

// X11Backend enumerates RandR outputs on an existing X11 connection.
type X11Backend struct {
	conn *x11.Connection
	// owned reports whether Close should disconnect conn.
	owned bool
}

var _ Backend = (*X11Backend)(nil)

// NewX11Backend wraps an existing connection. Close leaves it open.
func NewX11Backend(conn *x11.Connection) *X11Backend {
	return &X11Backend{conn: conn}
}

// NewX11BackendFromDisplay opens a fresh X11 connection owned by the backend.
func NewX11BackendFromDisplay() (*X11Backend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &X11Backend{conn: conn, owned: true}, nil
}

func (b *X11Backend) Name() string { return "x11" }

// Conn returns the underlying connection.
func (b *X11Backend) Conn() *x11.Connection { return b.conn }

// Displays returns all active displays ordered by position.
func (b *X11Backend) Displays() ([]Display, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}

	monitors, err := b.conn.Monitors()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(monitors))
	for i, m := range monitors {
		displays = append(displays, displayFromMonitor(i, m))
	}
	sortDisplays(displays)
	return displays, nil
}

func (b *X11Backend) Close() error {
	if b != nil && b.owned && b.conn != nil {
		b.conn.Close()
	}
	return nil
}

func displayFromMonitor(id int, m x11.Monitor) Display {
	return Display{
		ID:     id,
		Name:   m.Name,
		Output: uint64(m.Output),
		Bounds: Rect{
			X:      m.X,
			Y:      m.Y,
			Width:  m.Width,
			Height: m.Height,
		},
		Scale:     1,
		RefreshHz: m.RefreshHz,
		Primary:   m.Primary,
	}
}

// sortDisplays orders left to right, then top to bottom.
func sortDisplays(displays []Display) {
	sort.SliceStable(displays, func(i, j int) bool {
		a, b := displays[i].Bounds, displays[j].Bounds
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
}
