// Package engine is the single owner of parallax state: monitors, layers and
// the cursor sampler. Every method must be called from the scheduler loop
// goroutine.
package engine

import (
	"errors"
	"log/slog"

	"github.com/1broseidon/parallaxd/internal/anim"
	"github.com/1broseidon/parallaxd/internal/cursor"
	"github.com/1broseidon/parallaxd/internal/easing"
	"github.com/1broseidon/parallaxd/internal/monitor"
	"github.com/1broseidon/parallaxd/internal/parallax"
	"github.com/1broseidon/parallaxd/internal/sink"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

// ErrNoMonitors is returned by Render when there is nothing to draw on.
var ErrNoMonitors = errors.New("no monitors registered")

// Timing holds the pacing knobs the scheduler reads every iteration.
type Timing struct {
	FPS            float64 `json:"fps"`
	IdlePollRate   float64 `json:"idle_poll_rate"`
	Debounce       float64 `json:"debounce"`
	FrameCallbacks bool    `json:"frame_callbacks"`
	CursorPoll     float64 `json:"cursor_poll"`
}

// FrameInterval is the minimum time between renders.
func (t Timing) FrameInterval() float64 {
	if t.FPS <= 0 {
		return 1.0 / 60
	}
	return 1 / t.FPS
}

// IdleTimeout is the wait used when nothing is animating.
func (t Timing) IdleTimeout() float64 {
	if t.IdlePollRate <= 0 {
		return 0.5
	}
	return 1 / t.IdlePollRate
}

// DefaultTiming matches the config defaults.
func DefaultTiming() Timing {
	return Timing{FPS: 144, IdlePollRate: 2, Debounce: 0.05, CursorPoll: 0.016}
}

// Config is everything the engine needs; the daemon builds it from the
// loaded configuration.
type Config struct {
	Logger *slog.Logger
	Sink   sink.FrameSink

	Compositor string
	Model      workspace.Model
	TagPolicy  workspace.TagPolicy

	Timing   Timing
	Shift    float32
	Duration float64
	Easing   easing.Kind

	Parallax parallax.Settings
	Cursor   cursor.Config

	// MonitorShift overrides Shift per monitor name.
	MonitorShift map[string]float32
	Layers       []parallax.Spec
}

// Engine is the explicitly passed top-level context.
type Engine struct {
	logger *slog.Logger
	cfg    Config
	motion workspace.Motion

	monitors *monitor.Registry
	layers   *parallax.Stack
	cursor   *cursor.Sampler
	sink     sink.FrameSink

	// legacy is the global context used when no monitor can be resolved.
	legacy workspace.Context

	paused bool
	frames uint64
}

// New builds an engine with no monitors.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := cfg.Sink
	if out == nil {
		out = sink.Discard{}
	}
	e := &Engine{
		logger:   logger,
		monitors: monitor.NewRegistry(),
		layers:   parallax.NewStack(),
		cursor:   cursor.NewSampler(cfg.Cursor),
		sink:     out,
	}
	e.setConfig(cfg)
	e.legacy = workspace.Global(workspace.Base)
	for _, spec := range cfg.Layers {
		e.layers.Add(spec)
	}
	return e
}

func (e *Engine) setConfig(cfg Config) {
	if cfg.Logger == nil {
		cfg.Logger = e.logger
	}
	if cfg.Sink == nil {
		cfg.Sink = e.sink
	}
	e.cfg = cfg
	e.motion = workspace.Motion{Policy: cfg.TagPolicy}
}

// Apply swaps in a reloaded configuration. Monitors keep their workspace
// contexts unless the addressing model changed; the layer stack is rebuilt
// and snapped to the current position.
func (e *Engine) Apply(cfg Config) {
	modelChanged := cfg.Model != e.cfg.Model
	e.setConfig(cfg)
	e.cursor.SetConfig(cfg.Cursor)

	for _, m := range e.monitors.All() {
		m.Shift = cfg.MonitorShift[m.Name]
		if modelChanged {
			m.Current = workspace.Initial(cfg.Model)
			m.Previous = m.Current
		}
		m.Parallax.Set(e.monitorTarget(m))
	}
	if modelChanged {
		e.legacy = workspace.Global(workspace.Base)
	}

	e.layers.Clear()
	for _, spec := range cfg.Layers {
		l := e.layers.Add(spec)
		l.Motion.Set(e.layerTarget(l))
	}
	e.logger.Info("configuration applied",
		"model", cfg.Model.String(),
		"layers", e.layers.Len(),
		"mode", cfg.Parallax.Mode.String())
}

// Config returns the active configuration.
func (e *Engine) Config() Config { return e.cfg }

// Timing returns the pacing knobs.
func (e *Engine) Timing() Timing { return e.cfg.Timing }

// Monitors exposes the registry.
func (e *Engine) Monitors() *monitor.Registry { return e.monitors }

// Layers exposes the layer stack.
func (e *Engine) Layers() *parallax.Stack { return e.layers }

// Cursor exposes the cursor sampler.
func (e *Engine) Cursor() *cursor.Sampler { return e.cursor }

// Paused reports whether input handling is frozen.
func (e *Engine) Paused() bool { return e.paused }

// SetPaused freezes or resumes workspace and cursor input. Running
// animations still finish.
func (e *Engine) SetPaused(p bool) {
	if e.paused != p {
		e.logger.Info("input handling", "paused", p)
	}
	e.paused = p
}

// CursorEnabled reports whether cursor motion contributes to the output.
func (e *Engine) CursorEnabled() bool {
	return e.cfg.Parallax.Weights.Cursor != 0
}

func (e *Engine) shiftFor(m *monitor.Monitor) float32 {
	if m != nil && m.Shift > 0 {
		return m.Shift
	}
	return e.cfg.Shift
}

// position converts a context into an absolute pixel offset.
func (e *Engine) position(c workspace.Context, shift float32) anim.Vec {
	px, py := e.motion.Position(c)
	return anim.Vec{X: px * shift, Y: py * shift}
}

func (e *Engine) monitorTarget(m *monitor.Monitor) anim.Vec {
	return e.position(m.Current, e.shiftFor(m))
}

// layerTarget is where l rests given the primary monitor, or the legacy
// context when there are no monitors.
func (e *Engine) layerTarget(l *parallax.Layer) anim.Vec {
	var base anim.Vec
	if m := e.monitors.Primary(); m != nil {
		base = e.monitorTarget(m)
	} else {
		base = e.position(e.legacy, e.cfg.Shift)
	}
	return scale(base, l.Multiplier)
}

func scale(v, by anim.Vec) anim.Vec {
	return anim.Vec{X: v.X * by.X, Y: v.Y * by.Y}
}

// HandleWorkspaceEvent routes ev to its monitor (by name, then primary, then
// head) or, with no monitors at all, to the legacy global context. It
// reports whether an animation was started or retargeted.
func (e *Engine) HandleWorkspaceEvent(ev workspace.Event, now float64) bool {
	if e.paused {
		return false
	}
	ctx, fallback := workspace.Resolve(e.cfg.Model, ev)
	if fallback {
		e.logger.Debug("workspace event does not match model, using set-based fallback",
			"model", e.cfg.Model.String(), "context", ctx.String())
	}

	mon, how := e.monitors.Resolve(ev.Monitor)
	if mon == nil {
		return e.handleLegacy(ctx, now)
	}
	if ev.Monitor != "" && how != monitor.ResolvedByName {
		e.logger.Debug("workspace event for unknown monitor", "monitor", ev.Monitor, "resolved", how.String(), "using", mon.Name)
	}
	return e.HandleContextChange(mon, ctx, now)
}

// HandleContextChange moves mon to ctx. Equal contexts are a no-op. A
// non-zero delta retargets the monitor and every layer to the absolute
// position of ctx.
func (e *Engine) HandleContextChange(mon *monitor.Monitor, ctx workspace.Context, now float64) bool {
	if mon.Current == ctx {
		return false
	}
	shift := e.shiftFor(mon)
	dx, dy := e.motion.Delta2D(mon.Current, ctx, shift)
	mon.Previous = mon.Current
	mon.Current = ctx

	e.logger.Debug("workspace changed",
		"monitor", mon.Name,
		"from", mon.Previous.String(),
		"to", ctx.String(),
		"dx", dx, "dy", dy)

	if dx == 0 && dy == 0 {
		return false
	}
	target := e.position(ctx, shift)
	mon.Parallax.Retarget(now, target, e.cfg.Duration, e.cfg.Easing)
	e.retargetLayers(target, now)
	return true
}

func (e *Engine) handleLegacy(ctx workspace.Context, now float64) bool {
	next := workspace.Global(workspace.Linearize(ctx))
	if next == e.legacy {
		return false
	}
	delta := e.motion.Delta(e.legacy, next, e.cfg.Shift)
	e.logger.Debug("workspace changed (no monitor)", "from", e.legacy.ID, "to", next.ID)
	e.legacy = next
	if delta == 0 {
		return false
	}
	e.retargetLayers(e.position(next, e.cfg.Shift), now)
	return true
}

func (e *Engine) retargetLayers(target anim.Vec, now float64) {
	for _, l := range e.layers.List() {
		l.Motion.Retarget(now, scale(target, l.Multiplier), e.cfg.Duration, e.cfg.Easing)
	}
}

// Legacy returns the global context used when no monitor is registered.
func (e *Engine) Legacy() workspace.Context { return e.legacy }

// SampleCursor feeds a pointer position in global coordinates. It reports
// whether the normalized output moved enough to need a render.
func (e *Engine) SampleCursor(x, y, now float64) bool {
	if e.paused {
		return false
	}
	var rect monitor.Rect
	switch {
	case e.cfg.Cursor.FollowGlobal:
		rect = e.monitors.Bounds()
	default:
		m := e.monitors.At(x, y)
		if m == nil {
			m = e.monitors.Primary()
		}
		if m == nil {
			return false
		}
		rect = m.Geom.Rect()
	}
	if rect.Width <= 0 || rect.Height <= 0 {
		return false
	}
	return e.cursor.Sample(x, y, rect, now)
}

// TickResult summarizes one animation step.
type TickResult struct {
	// Active: at least one animation is still running.
	Active bool
	// Finished: at least one animation committed its final value.
	Finished bool
}

// Tick advances every animation to now.
func (e *Engine) Tick(now float64) TickResult {
	var r TickResult
	for _, m := range e.monitors.All() {
		a, f := m.Parallax.Tick(now)
		r.Active = r.Active || a
		r.Finished = r.Finished || f
	}
	for _, l := range e.layers.List() {
		a, f := l.Motion.Tick(now)
		r.Active = r.Active || a
		r.Finished = r.Finished || f
	}
	a, f, _ := e.cursor.Tick(now)
	r.Active = r.Active || a
	r.Finished = r.Finished || f
	return r
}

// Animating reports whether any animation is active.
func (e *Engine) Animating() bool {
	return e.monitors.AnyAnimating() || e.layers.AnyAnimating() || e.cursor.Active()
}
