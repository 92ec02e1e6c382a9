package platform

import (
	"context"
	"time"

	"github.com/1broseidon/parallaxd/internal/hyprland"
)

const hyprlandQueryTimeout = 2 * time.Second

// HyprlandBackend reads monitors from j/monitors.
type HyprlandBackend struct {
	client *hyprland.Client
}

var _ Backend = (*HyprlandBackend)(nil)

func NewHyprlandBackend(client *hyprland.Client) *HyprlandBackend {
	return &HyprlandBackend{client: client}
}

func (b *HyprlandBackend) Name() string { return "hyprland" }

func (b *HyprlandBackend) Displays() ([]Display, error) {
	ctx, cancel := context.WithTimeout(context.Background(), hyprlandQueryTimeout)
	defer cancel()

	monitors, err := b.client.Monitors(ctx)
	if err != nil {
		return nil, err
	}
	return displaysFromHyprland(monitors), nil
}

func (b *HyprlandBackend) Close() error { return nil }

func displaysFromHyprland(monitors []hyprland.Monitor) []Display {
	displays := make([]Display, 0, len(monitors))
	for _, m := range monitors {
		displays = append(displays, Display{
			ID:     m.ID,
			Name:   m.Name,
			Output: uint64(m.ID),
			// Hyprland reports mode pixels; layout space is divided by scale.
			Bounds: Rect{
				X:      m.X,
				Y:      m.Y,
				Width:  scaled(m.Width, m.Scale),
				Height: scaled(m.Height, m.Scale),
			},
			Scale:     m.Scale,
			RefreshHz: m.RefreshRate,
			Primary:   m.ID == 0,
		})
	}
	sortDisplays(displays)
	return displays
}

func scaled(px int, scale float64) int {
	if scale <= 0 {
		return px
	}
	return int(float64(px)/scale + 0.5)
}
