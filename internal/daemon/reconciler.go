package daemon

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/parallaxd/internal/platform"
	"github.com/1broseidon/parallaxd/internal/source"
)

// EventSink receives platform events; source.Platform implements it.
type EventSink interface {
	Push(ev source.PlatformEvent) bool
}

// changeNotifier is implemented by backends that learn about hotplug from
// the compositor before the next poll.
type changeNotifier interface {
	Changed() <-chan struct{}
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler polls the display backend and reports hotplug and resize as
// platform events, so the engine only changes on the loop goroutine.
type Reconciler struct {
	interval time.Duration
	backend  platform.Backend
	sink     EventSink
	logger   *slog.Logger

	mu    sync.Mutex
	known map[string]platform.Display
}

// NewReconciler creates a reconciler that starts from seed, the displays the
// engine was built with.
func NewReconciler(cfg ReconcilerConfig, backend platform.Backend, sink EventSink, seed []platform.Display) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	known := make(map[string]platform.Display, len(seed))
	for _, d := range seed {
		known[d.Name] = d
	}
	return &Reconciler{
		interval: interval,
		backend:  backend,
		sink:     sink,
		logger:   logger.With("component", "reconciler"),
		known:    known,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var changed <-chan struct{}
	if n, ok := r.backend.(changeNotifier); ok {
		changed = n.Changed()
	}

	r.logger.Info("reconciler started", "interval", r.interval, "backend", r.backend.Name())

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		case <-changed:
			r.reconcile()
		}
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}

func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	displays, err := r.backend.Displays()
	if err != nil {
		r.logger.Warn("failed to list displays", "error", err)
		return
	}
	// An empty answer is more likely a transient query failure than every
	// output unplugged at once.
	if len(displays) == 0 {
		r.logger.Debug("backend reported no displays; keeping previous set")
		return
	}

	r.mu.Lock()
	events, next := diffDisplays(r.known, displays)
	r.known = next
	r.mu.Unlock()

	for _, ev := range events {
		r.logger.Info("display change", "kind", ev.Kind.String(), "monitor", ev.Monitor)
		if !r.sink.Push(ev) {
			r.logger.Warn("platform queue full, dropping display change", "monitor", ev.Monitor)
		}
	}
}

// diffDisplays returns the events that turn old into now, removals first,
// plus the new known set.
func diffDisplays(old map[string]platform.Display, now []platform.Display) ([]source.PlatformEvent, map[string]platform.Display) {
	next := make(map[string]platform.Display, len(now))
	for _, d := range now {
		next[d.Name] = d
	}

	var events []source.PlatformEvent

	var removed []string
	for name := range old {
		if _, ok := next[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	for _, name := range removed {
		events = append(events, source.PlatformEvent{Kind: source.PlatformMonitorRemoved, Monitor: name, Output: old[name].Output})
	}

	for _, d := range now {
		prev, ok := old[d.Name]
		switch {
		case !ok:
			events = append(events, source.PlatformEvent{
				Kind:     source.PlatformMonitorAdded,
				Monitor:  d.Name,
				Output:   d.Output,
				Geometry: d.Geometry(),
			})
		case prev.Geometry() != d.Geometry():
			events = append(events, source.PlatformEvent{
				Kind:     source.PlatformResize,
				Monitor:  d.Name,
				Output:   d.Output,
				Geometry: d.Geometry(),
			})
		}
	}
	return events, next
}
