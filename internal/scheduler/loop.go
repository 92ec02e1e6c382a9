// Package scheduler runs the single-threaded event loop: it multiplexes
// compositor, control, platform and timer descriptors and decides every
// iteration whether to render now, later, or sleep.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/source"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

// ErrDegraded is reported when epoll or timerfd setup failed and the loop
// polls on a fixed interval instead.
var ErrDegraded = errors.New("scheduler degraded to polling")

// DegradedPollInterval is the sleep cap of the polling fallback.
const DegradedPollInterval = 0.01

// PlatformSource yields lifecycle events.
type PlatformSource interface {
	Fd() int
	Poll() []source.PlatformEvent
}

// Control is the command queue of the control socket. ProcessPending runs on
// the loop goroutine and reports whether a render is owed.
type Control interface {
	Fd() int
	ProcessPending() bool
}

// AckSource yields monitor names whose frame was presented.
type AckSource interface {
	Fd() int
	Drain() []string
}

// Config wires the loop. Only Engine is required.
type Config struct {
	Logger     *slog.Logger
	Engine     *engine.Engine
	Platform   PlatformSource
	Workspaces []source.WorkspaceSource
	Control    Control
	Acks       AckSource
	Cursor     source.CursorProvider
	// Reload is called for PlatformReload events.
	Reload func() error
	// Clock returns monotonic seconds; nil uses the process clock.
	Clock func() float64
}

const (
	tagPlatform = iota
	tagControl
	tagAcks
	tagFrame
	tagDebounce
	tagCursor
	tagWorkspace // tagWorkspace+i for Workspaces[i]
)

// Loop is the scheduler state.
type Loop struct {
	cfg    Config
	logger *slog.Logger
	eng    *engine.Engine
	clock  func() float64

	mux      Multiplexer
	frame    Timer
	debounce Timer
	cursor   Timer
	degraded error

	pending     *workspace.Event
	needsRender bool
	lastRender  float64
	mode        Mode
	running     atomic.Bool
}

// New builds a loop on epoll and timerfd, falling back to polling when
// either cannot be created.
func New(cfg Config) (*Loop, error) {
	if cfg.Engine == nil {
		return nil, fmt.Errorf("scheduler: engine is required")
	}
	mux, timers, err := kernelPrimitives()
	if err != nil {
		l, berr := build(cfg, newPollMux(DegradedPollInterval), softTimers())
		if berr != nil {
			return nil, berr
		}
		l.degraded = fmt.Errorf("%w: %v", ErrDegraded, err)
		l.logger.Warn("event multiplexer unavailable, polling sources", "error", err, "interval_ms", DegradedPollInterval*1000)
		return l, nil
	}
	l, err := build(cfg, mux, timers)
	if err != nil {
		mux.Close()
		for _, t := range timers {
			t.Close()
		}
		return nil, err
	}
	return l, nil
}

func kernelPrimitives() (Multiplexer, [3]Timer, error) {
	var timers [3]Timer
	mux, err := newEpollMux()
	if err != nil {
		return nil, timers, err
	}
	for i := range timers {
		t, err := newTimerfd()
		if err != nil {
			for _, prev := range timers[:i] {
				prev.Close()
			}
			mux.Close()
			return nil, [3]Timer{}, err
		}
		timers[i] = t
	}
	return mux, timers, nil
}

func softTimers() [3]Timer {
	return [3]Timer{&softTimer{}, &softTimer{}, &softTimer{}}
}

func build(cfg Config, mux Multiplexer, timers [3]Timer) (*Loop, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		start := time.Now()
		clock = func() float64 { return time.Since(start).Seconds() }
	}
	l := &Loop{
		cfg:        cfg,
		logger:     logger,
		eng:        cfg.Engine,
		clock:      clock,
		mux:        mux,
		frame:      timers[0],
		debounce:   timers[1],
		cursor:     timers[2],
		lastRender: math.Inf(-1),
	}

	add := func(fd, tag int, what string) error {
		if err := mux.Add(fd, tag); err != nil {
			return fmt.Errorf("register %s: %w", what, err)
		}
		return nil
	}
	if cfg.Platform != nil {
		if err := add(cfg.Platform.Fd(), tagPlatform, "platform"); err != nil {
			return nil, err
		}
	}
	if cfg.Control != nil {
		if err := add(cfg.Control.Fd(), tagControl, "control"); err != nil {
			return nil, err
		}
	}
	if cfg.Acks != nil {
		if err := add(cfg.Acks.Fd(), tagAcks, "frame acks"); err != nil {
			return nil, err
		}
	}
	for i, t := range []Timer{l.frame, l.debounce, l.cursor} {
		if t.Fd() < 0 {
			continue
		}
		if err := add(t.Fd(), tagFrame+i, "timer"); err != nil {
			return nil, err
		}
	}
	for i, src := range cfg.Workspaces {
		if err := add(src.Fd(), tagWorkspace+i, src.Name()); err != nil {
			return nil, err
		}
	}
	l.running.Store(true)
	return l, nil
}

// Degraded returns a wrapped ErrDegraded when the loop is polling.
func (l *Loop) Degraded() error { return l.degraded }

// Mode returns the state of the last iteration.
func (l *Loop) Mode() Mode { return l.mode }

// Running reports whether the loop has not been stopped.
func (l *Loop) Running() bool { return l.running.Load() }

// Stop makes Run return after the current iteration. Safe from any
// goroutine.
func (l *Loop) Stop() { l.running.Store(false) }

// RequestRender marks a render as owed.
func (l *Loop) RequestRender() { l.needsRender = true }

// Run iterates until ctx is done, Stop is called or a Close event arrives.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("scheduler started", "degraded", l.degraded != nil)
	defer l.logger.Info("scheduler stopped")
	for l.running.Load() {
		if ctx.Err() != nil {
			return nil
		}
		if err := l.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step runs one iteration: tick, render gate, arm timers, wait, dispatch.
func (l *Loop) Step() error {
	now := l.clock()
	timing := l.eng.Timing()

	res := l.eng.Tick(now)
	if res.Active || res.Finished {
		l.needsRender = true
	}

	if renderGate(l.needsRender, now, l.lastRender, timing, l.eng.FrameReady()) {
		l.render(now)
	}

	animating := l.eng.Animating()
	l.armFrame(now, animating, timing)
	l.armCursor(now, timing)

	plan := planWait(waitInput{
		Now:         now,
		LastRender:  l.lastRender,
		Animating:   animating,
		NeedsRender: l.needsRender,
		FrameReady:  l.eng.FrameReady(),
		Timing:      timing,
		Deadlines:   l.softDeadlines(),
	})
	l.mode = plan.Mode

	ready, err := l.mux.Wait(plan.Timeout)
	if err != nil {
		return err
	}
	l.dispatch(ready, l.clock())
	return nil
}

func (l *Loop) render(now float64) {
	l.mode = ModeRender
	err := l.eng.Render(now)
	l.needsRender = false
	l.lastRender = now
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrNoMonitors):
		l.logger.Debug("render skipped", "reason", err)
	default:
		l.logger.Warn("render failed", "error", err)
	}
}

func (l *Loop) armFrame(now float64, animating bool, t engine.Timing) {
	interval := t.FrameInterval()
	var err error
	switch {
	case animating:
		if l.frame.Interval() != interval {
			err = l.frame.ArmPeriodic(now, interval)
		}
	case l.needsRender && !(t.FrameCallbacks && !l.eng.FrameReady()):
		remaining := l.lastRender + interval - now
		if l.frame.Armed() && l.frame.Interval() == 0 && l.frame.Deadline() >= now {
			return
		}
		err = l.frame.ArmOneShot(now, max(remaining, minDelay))
	default:
		err = l.frame.Disarm()
	}
	if err != nil {
		l.logger.Warn("frame timer", "error", err)
	}
}

func (l *Loop) armCursor(now float64, t engine.Timing) {
	var err error
	if l.cfg.Cursor != nil && l.eng.CursorEnabled() && !l.eng.Paused() && t.CursorPoll > 0 {
		if l.cursor.Interval() != t.CursorPoll {
			err = l.cursor.ArmPeriodic(now, t.CursorPoll)
		}
	} else {
		err = l.cursor.Disarm()
	}
	if err != nil {
		l.logger.Warn("cursor timer", "error", err)
	}
}

func (l *Loop) softDeadlines() []float64 {
	var out []float64
	for _, t := range []Timer{l.frame, l.debounce, l.cursor} {
		if t.Fd() < 0 && t.Armed() {
			out = append(out, t.Deadline())
		}
	}
	return out
}

func (l *Loop) dispatch(ready []int, now float64) {
	for _, tag := range ready {
		switch {
		case tag == tagPlatform:
			l.handlePlatform(now)
		case tag == tagControl:
			if l.cfg.Control.ProcessPending() {
				l.needsRender = true
			}
		case tag == tagAcks:
			for _, name := range l.cfg.Acks.Drain() {
				l.eng.FrameDone(name)
			}
		case tag >= tagWorkspace:
			src := l.cfg.Workspaces[tag-tagWorkspace]
			for _, ev := range src.Poll() {
				l.queueWorkspace(ev, now)
			}
		}
	}

	if l.frame.Fired(now) {
		l.needsRender = true
	}
	if l.debounce.Fired(now) && l.pending != nil {
		ev := *l.pending
		l.pending = nil
		l.eng.HandleWorkspaceEvent(ev, now)
		l.needsRender = true
	}
	if l.cursor.Fired(now) {
		l.sampleCursor(now)
	}
}

func (l *Loop) handlePlatform(now float64) {
	for _, ev := range l.cfg.Platform.Poll() {
		switch ev.Kind {
		case source.PlatformClose:
			l.logger.Info("shutdown requested")
			l.Stop()
		case source.PlatformResize:
			if l.eng.UpdateMonitor(ev.Monitor, ev.Geometry) {
				l.needsRender = true
			}
		case source.PlatformMonitorAdded:
			l.eng.AddMonitor(ev.Monitor, ev.Geometry, ev.Output)
			l.needsRender = true
		case source.PlatformMonitorRemoved:
			if l.eng.RemoveMonitor(ev.Monitor) {
				l.needsRender = true
			}
		case source.PlatformReload:
			if l.cfg.Reload == nil {
				continue
			}
			if err := l.cfg.Reload(); err != nil {
				l.logger.Error("reload failed", "error", err)
				continue
			}
			l.needsRender = true
		}
	}
}

// queueWorkspace stores ev as the pending event and re-arms the debounce
// timer; the latest event wins.
func (l *Loop) queueWorkspace(ev workspace.Event, now float64) {
	delay := l.eng.Timing().Debounce
	if delay <= 0 {
		l.eng.HandleWorkspaceEvent(ev, now)
		l.needsRender = true
		return
	}
	l.pending = &ev
	if err := l.debounce.ArmOneShot(now, delay); err != nil {
		l.logger.Warn("debounce timer, applying immediately", "error", err)
		l.pending = nil
		l.eng.HandleWorkspaceEvent(ev, now)
		l.needsRender = true
	}
}

func (l *Loop) sampleCursor(now float64) {
	x, y, ok := l.cfg.Cursor.Sample()
	if !ok {
		return
	}
	if l.eng.SampleCursor(x, y, now) {
		l.needsRender = true
	}
}

// Close releases the multiplexer and timers.
func (l *Loop) Close() error {
	var errs []error
	for _, t := range []Timer{l.frame, l.debounce, l.cursor} {
		errs = append(errs, t.Close())
	}
	errs = append(errs, l.mux.Close())
	return errors.Join(errs...)
}
