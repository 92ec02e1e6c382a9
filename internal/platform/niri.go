package platform

import (
	"context"

	"github.com/1broseidon/parallaxd/internal/niri"
)

// NiriBackend reads outputs from the niri "Outputs" request.
type NiriBackend struct {
	client *niri.Client
}

var _ Backend = (*NiriBackend)(nil)

func NewNiriBackend(client *niri.Client) *NiriBackend {
	return &NiriBackend{client: client}
}

func (b *NiriBackend) Name() string { return "niri" }

func (b *NiriBackend) Displays() ([]Display, error) {
	outputs, err := b.client.Outputs(context.Background())
	if err != nil {
		return nil, err
	}
	return displaysFromNiri(outputs), nil
}

func (b *NiriBackend) Close() error { return nil }

// displaysFromNiri maps outputs in name order. niri has no primary output;
// the one at the layout origin is used, else the first.
func displaysFromNiri(outputs []niri.Output) []Display {
	displays := make([]Display, 0, len(outputs))
	primary := -1
	for i, o := range outputs {
		if o.Logical == nil {
			continue
		}
		l := o.Logical
		if primary < 0 && l.X == 0 && l.Y == 0 {
			primary = len(displays)
		}
		displays = append(displays, Display{
			ID:        i,
			Name:      o.Name,
			Output:    uint64(i),
			Bounds:    Rect{X: l.X, Y: l.Y, Width: l.Width, Height: l.Height},
			Scale:     l.Scale,
			RefreshHz: o.RefreshHz(),
		})
	}
	if primary < 0 && len(displays) > 0 {
		primary = 0
	}
	if primary >= 0 {
		displays[primary].Primary = true
	}
	sortDisplays(displays)
	return displays
}
