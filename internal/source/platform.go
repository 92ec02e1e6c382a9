package source

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/parallaxd/internal/monitor"
)

// PlatformKind classifies a PlatformEvent.
type PlatformKind int

const (
	PlatformClose PlatformKind = iota
	PlatformResize
	PlatformMonitorAdded
	PlatformMonitorRemoved
	PlatformReload
)

func (k PlatformKind) String() string {
	switch k {
	case PlatformClose:
		return "close"
	case PlatformResize:
		return "resize"
	case PlatformMonitorAdded:
		return "monitor_added"
	case PlatformMonitorRemoved:
		return "monitor_removed"
	case PlatformReload:
		return "reload"
	default:
		return "unknown"
	}
}

// PlatformEvent is a display or process lifecycle event.
type PlatformEvent struct {
	Kind     PlatformKind
	Monitor  string
	Output   uint64
	Geometry monitor.Geometry
}

// Platform collects lifecycle events from signals, the display reconciler and
// compositor hotplug notifications.
type Platform struct {
	q *Queue[PlatformEvent]
}

// NewPlatform returns an empty platform source.
func NewPlatform() *Platform {
	return &Platform{q: NewQueue[PlatformEvent](64)}
}

func (p *Platform) Fd() int { return p.q.Fd() }
func (p *Platform) Poll() []PlatformEvent { return p.q.Drain() }
func (p *Platform) Push(ev PlatformEvent) bool { return p.q.Push(ev) }
func (p *Platform) Close() error { return p.q.Close() }

// WatchSignals turns SIGINT/SIGTERM into Close and SIGHUP into Reload until
// ctx is done.
func (p *Platform) WatchSignals(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					p.Push(PlatformEvent{Kind: PlatformReload})
					continue
				}
				p.Push(PlatformEvent{Kind: PlatformClose})
			}
		}
	}()
}
