package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/joshuarubin/go-sway"
)

const swayQueryTimeout = 2 * time.Second

// SwayBackend reads outputs over the sway IPC socket. Sway reports output
// rects in layout space already.
type SwayBackend struct {
	client sway.Client
}

var _ Backend = (*SwayBackend)(nil)

// NewSwayBackend connects to $SWAYSOCK.
func NewSwayBackend(ctx context.Context) (*SwayBackend, error) {
	client, err := sway.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect sway: %w", err)
	}
	return &SwayBackend{client: client}, nil
}

func (b *SwayBackend) Name() string { return "sway" }

func (b *SwayBackend) Displays() ([]Display, error) {
	ctx, cancel := context.WithTimeout(context.Background(), swayQueryTimeout)
	defer cancel()

	outputs, err := b.client.GetOutputs(ctx)
	if err != nil {
		return nil, err
	}
	return displaysFromSway(outputs), nil
}

func (b *SwayBackend) Close() error { return nil }

func displaysFromSway(outputs []sway.Output) []Display {
	displays := make([]Display, 0, len(outputs))
	for i, o := range outputs {
		if !o.Active {
			continue
		}
		displays = append(displays, Display{
			ID:     i,
			Name:   o.Name,
			Output: uint64(i),
			Bounds: Rect{
				X:      int(o.Rect.X),
				Y:      int(o.Rect.Y),
				Width:  int(o.Rect.Width),
				Height: int(o.Rect.Height),
			},
			Scale: o.Scale,
			// mHz
			RefreshHz: float64(o.CurrentMode.Refresh) / 1000,
			Primary:   o.Primary,
		})
	}
	sortDisplays(displays)
	return displays
}
