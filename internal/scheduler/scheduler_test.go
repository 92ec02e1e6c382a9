package scheduler

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/1broseidon/parallaxd/internal/easing"
	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/monitor"
	"github.com/1broseidon/parallaxd/internal/parallax"
	"github.com/1broseidon/parallaxd/internal/source"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

type fakeClock struct{ now float64 }

func (c *fakeClock) Now() float64 { return c.now }

type scripted struct {
	at float64
	ev workspace.Event
}

// scriptMux advances the fake clock by each timeout, stopping early to
// deliver scripted workspace events.
type scriptMux struct {
	clock  *fakeClock
	src    *source.Injected
	script []scripted
	tags   []int
	waits  []float64
}

func (m *scriptMux) Add(_, tag int) error {
	m.tags = append(m.tags, tag)
	return nil
}

func (m *scriptMux) Wait(timeout float64) ([]int, error) {
	m.waits = append(m.waits, timeout)
	next := m.clock.now + timeout
	if len(m.script) > 0 && m.script[0].at <= next {
		m.clock.now = max(m.clock.now, m.script[0].at)
		m.src.Push(m.script[0].ev)
		m.script = m.script[1:]
	} else {
		m.clock.now = next
	}
	return m.tags, nil
}

func (m *scriptMux) Close() error { return nil }

func testEngine() *engine.Engine {
	e := engine.New(engine.Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Model:    workspace.GlobalNumeric,
		Timing:   engine.DefaultTiming(),
		Shift:    150,
		Duration: 1,
		Easing:   easing.Cubic,
		Parallax: parallax.Settings{Weights: parallax.DefaultWeights(parallax.ModeWorkspace)},
	})
	e.AddMonitor("DP-1", monitor.Geometry{Width: 1920, Height: 1080}, 0)
	return e
}

func newTestLoop(t *testing.T, e *engine.Engine, script []scripted) (*Loop, *scriptMux, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	src := source.NewInjected("test")
	t.Cleanup(func() { src.Close() })
	mux := &scriptMux{clock: clock, src: src, script: script}
	l, err := build(Config{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Engine:     e,
		Workspaces: []source.WorkspaceSource{src},
		Clock:      clock.Now,
	}, mux, softTimers())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return l, mux, clock
}

func TestLoop_DebounceCoalesces(t *testing.T) {
	e := testEngine()
	mon := e.Monitors().Primary()
	l, _, clock := newTestLoop(t, e, []scripted{
		{at: 0, ev: workspace.Event{ToID: 2}},
		{at: 0.02, ev: workspace.Event{ToID: 4}},
	})

	type transition struct {
		at float64
		to workspace.Context
	}
	var transitions []transition
	last := mon.Current
	for i := 0; i < 100 && clock.now < 0.3; i++ {
		if err := l.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
		if mon.Current != last {
			transitions = append(transitions, transition{at: clock.now, to: mon.Current})
			last = mon.Current
		}
	}

	if len(transitions) != 1 {
		t.Fatalf("transitions = %+v, want exactly one", transitions)
	}
	if transitions[0].to != workspace.Global(4) {
		t.Fatalf("applied %v, want the latest target", transitions[0].to)
	}
	if transitions[0].at < 0.05 {
		t.Fatalf("applied at %v, before the debounce window closed", transitions[0].at)
	}
	if mon.Previous != workspace.Global(1) {
		t.Fatalf("intermediate target leaked: previous = %v", mon.Previous)
	}
	if start := mon.Parallax.X.StartTime; start < 0.05 {
		t.Fatalf("animation started at %v", start)
	}
}

func TestLoop_IdleConvergence(t *testing.T) {
	e := testEngine()
	l, mux, _ := newTestLoop(t, e, nil)

	e.HandleWorkspaceEvent(workspace.Event{ToID: 2}, 0)
	if err := l.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if l.Mode() != ModeActiveWait {
		t.Fatalf("mode while animating = %v", l.Mode())
	}
	if got := mux.waits[0]; math.Abs(got-1.0/144) > 1e-9 {
		t.Fatalf("active timeout = %v, want one frame", got)
	}

	for i := 0; i < 1000 && e.Animating(); i++ {
		if err := l.Step(); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	if e.Animating() {
		t.Fatalf("animation never finished")
	}
	// One more iteration renders the final frame and goes idle.
	if err := l.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if l.Mode() != ModeIdleWait {
		t.Fatalf("mode after settling = %v", l.Mode())
	}
	if got := mux.waits[len(mux.waits)-1]; got != 0.5 {
		t.Fatalf("idle timeout = %v, want 0.5", got)
	}
	if l.frame.Armed() {
		t.Fatalf("frame timer left armed while idle")
	}
}

func TestLoop_PlatformEvents(t *testing.T) {
	e := testEngine()
	plat := source.NewPlatform()
	t.Cleanup(func() { plat.Close() })
	clock := &fakeClock{}
	reloads := 0
	l, err := build(Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Engine:   e,
		Platform: plat,
		Clock:    clock.Now,
		Reload:   func() error { reloads++; return nil },
	}, &scriptMux{clock: clock}, softTimers())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	plat.Push(source.PlatformEvent{Kind: source.PlatformMonitorAdded, Monitor: "HDMI-A-1", Geometry: monitor.Geometry{X: 1920, Width: 1280, Height: 1024}})
	plat.Push(source.PlatformEvent{Kind: source.PlatformResize, Monitor: "DP-1", Geometry: monitor.Geometry{Width: 2560, Height: 1440}})
	plat.Push(source.PlatformEvent{Kind: source.PlatformReload})
	l.handlePlatform(0)

	if e.Monitors().Len() != 2 {
		t.Fatalf("monitors = %d", e.Monitors().Len())
	}
	if g := e.Monitors().ByName("DP-1").Geom; g.Width != 2560 {
		t.Fatalf("resize not applied: %+v", g)
	}
	if reloads != 1 || !l.needsRender {
		t.Fatalf("reloads=%d needsRender=%v", reloads, l.needsRender)
	}

	plat.Push(source.PlatformEvent{Kind: source.PlatformClose})
	l.handlePlatform(0)
	if l.Running() {
		t.Fatalf("close event should stop the loop")
	}
}

func TestRenderGate(t *testing.T) {
	timing := engine.DefaultTiming()
	timing.FPS = 100

	tests := []struct {
		name       string
		needs      bool
		now, last  float64
		callbacks  bool
		frameReady bool
		want       bool
	}{
		{"nothing owed", false, 1, 0, false, true, false},
		{"interval elapsed", true, 0.02, 0.01, false, true, true},
		{"too soon", true, 0.015, 0.01, false, true, false},
		{"first frame", true, 0, math.Inf(-1), false, true, true},
		{"callbacks ready", true, 0.011, 0.01, true, true, true},
		{"callbacks pending", true, 1, 0, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timing.FrameCallbacks = tt.callbacks
			if got := renderGate(tt.needs, tt.now, tt.last, timing, tt.frameReady); got != tt.want {
				t.Fatalf("renderGate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanWait(t *testing.T) {
	timing := engine.DefaultTiming()
	timing.FPS = 100

	idle := planWait(waitInput{Now: 5, LastRender: 1, Timing: timing})
	if idle.Mode != ModeIdleWait || idle.Timeout != 0.5 {
		t.Fatalf("idle plan = %+v", idle)
	}

	timing.IdlePollRate = 4
	if p := planWait(waitInput{Now: 5, Timing: timing}); p.Timeout != 0.25 {
		t.Fatalf("idle timeout at 4 Hz = %v", p.Timeout)
	}

	active := planWait(waitInput{Now: 1.004, LastRender: 1, Animating: true, Timing: timing})
	if active.Mode != ModeActiveWait || math.Abs(active.Timeout-0.006) > 1e-9 {
		t.Fatalf("active plan = %+v", active)
	}

	late := planWait(waitInput{Now: 2, LastRender: 1, NeedsRender: true, Timing: timing})
	if late.Timeout != minActiveTimeout {
		t.Fatalf("overdue render timeout = %v", late.Timeout)
	}

	capped := planWait(waitInput{Now: 1, LastRender: 0, Timing: timing, Deadlines: []float64{1.03}})
	if math.Abs(capped.Timeout-0.03) > 1e-9 {
		t.Fatalf("deadline cap = %v", capped.Timeout)
	}

	timing.FrameCallbacks = true
	blocked := planWait(waitInput{Now: 1, LastRender: 0, NeedsRender: true, FrameReady: false, Timing: timing})
	if blocked.Mode != ModeIdleWait {
		t.Fatalf("render waiting on an ack should idle, got %+v", blocked)
	}
}

func TestSoftTimer(t *testing.T) {
	var st softTimer
	st.ArmOneShot(1, 0.05)
	if st.Fired(1.04) {
		t.Fatalf("fired early")
	}
	if !st.Fired(1.05) || st.Armed() {
		t.Fatalf("one-shot should fire once and disarm")
	}
	if st.Fired(2) {
		t.Fatalf("one-shot fired twice")
	}

	st.ArmPeriodic(0, 0.1)
	if !st.Fired(0.35) {
		t.Fatalf("periodic did not fire")
	}
	if math.Abs(st.Deadline()-0.4) > 1e-9 {
		t.Fatalf("next deadline = %v, want 0.4", st.Deadline())
	}
	st.Disarm()
	if st.Armed() || st.Fired(10) {
		t.Fatalf("disarmed timer fired")
	}
}

func TestPollMux_CapsSleep(t *testing.T) {
	m := newPollMux(0.01)
	var slept float64
	m.sleep = func(d time.Duration) { slept = d.Seconds() }
	m.Add(-1, tagControl)
	m.Add(-1, tagWorkspace)

	ready, err := m.Wait(0.5)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(ready) != 2 {
		t.Fatalf("ready = %v, want every tag", ready)
	}
	if math.Abs(slept-0.01) > 1e-9 {
		t.Fatalf("slept %v, want the poll interval", slept)
	}
}
