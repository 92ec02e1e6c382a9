package engine

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/1broseidon/parallaxd/internal/anim"
	"github.com/1broseidon/parallaxd/internal/cursor"
	"github.com/1broseidon/parallaxd/internal/easing"
	"github.com/1broseidon/parallaxd/internal/monitor"
	"github.com/1broseidon/parallaxd/internal/parallax"
	"github.com/1broseidon/parallaxd/internal/sink"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

type frameRecorder struct {
	frames []sink.Frame
}

func (r *frameRecorder) Submit(f sink.Frame) error {
	r.frames = append(r.frames, f)
	return nil
}

func (r *frameRecorder) Close() error { return nil }

var screen = monitor.Geometry{Width: 1920, Height: 1080}

func testConfig(model workspace.Model, e easing.Kind) Config {
	return Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Model:    model,
		Timing:   DefaultTiming(),
		Shift:    150,
		Duration: 1.0,
		Easing:   e,
		Parallax: parallax.Settings{Weights: parallax.DefaultWeights(parallax.ModeWorkspace)},
		Cursor:   cursor.Config{SensitivityX: 1, SensitivityY: 1, EMAAlpha: 1},
	}
}

func half() parallax.Spec {
	return parallax.Spec{Path: "far.png", Multiplier: anim.Vec{X: 0.5, Y: 0.5}, Opacity: 1}
}

func TestScenario_LinearSwitchOneToThree(t *testing.T) {
	cfg := testConfig(workspace.GlobalNumeric, easing.Cubic)
	cfg.Layers = []parallax.Spec{half()}
	e := New(cfg)
	mon := e.AddMonitor("DP-1", screen, 0)

	if !e.HandleWorkspaceEvent(workspace.Event{FromID: 1, ToID: 3, Monitor: "DP-1"}, 0) {
		t.Fatalf("switch 1 -> 3 should start an animation")
	}
	if mon.Parallax.X.To != 300 {
		t.Fatalf("monitor target = %v, want 300", mon.Parallax.X.To)
	}
	layer := e.Layers().List()[0]
	if layer.Motion.X.To != 150 {
		t.Fatalf("layer target = %v, want 150", layer.Motion.X.To)
	}
	if got := layer.Motion.X.Evaluate(1.0); got != 150 {
		t.Fatalf("evaluate at duration = %v, want exactly 150", got)
	}

	r := e.Tick(1.0)
	if !r.Finished || r.Active {
		t.Fatalf("tick at duration = %+v", r)
	}
	if layer.Offset().X != 150 || mon.Parallax.Value.X != 300 {
		t.Fatalf("committed layer=%v monitor=%v", layer.Offset().X, mon.Parallax.Value.X)
	}
}

func TestHandleContextChange_EqualIsNoop(t *testing.T) {
	cfg := testConfig(workspace.GlobalNumeric, easing.Linear)
	cfg.Layers = []parallax.Spec{half()}
	e := New(cfg)
	mon := e.AddMonitor("DP-1", screen, 0)

	e.HandleWorkspaceEvent(workspace.Event{ToID: 2}, 0)
	before := mon.Parallax
	layerBefore := e.Layers().List()[0].Motion

	if e.HandleContextChange(mon, workspace.Global(2), 0.4) {
		t.Fatalf("equal context reported motion")
	}
	if mon.Parallax != before || e.Layers().List()[0].Motion != layerBefore {
		t.Fatalf("equal context touched animation state")
	}
	if mon.Previous != workspace.Global(1) {
		t.Fatalf("previous context shifted on no-op: %v", mon.Previous)
	}
}

func TestHandleWorkspaceEvent_RetargetIsContinuous(t *testing.T) {
	cfg := testConfig(workspace.GlobalNumeric, easing.Linear)
	cfg.Layers = []parallax.Spec{half()}
	e := New(cfg)
	e.AddMonitor("DP-1", screen, 0)
	layer := e.Layers().List()[0]

	e.HandleWorkspaceEvent(workspace.Event{ToID: 3}, 0)
	e.Tick(0.5)
	mid := layer.Offset().X
	if math.Abs(float64(mid-75)) > 1e-4 {
		t.Fatalf("mid value = %v, want 75", mid)
	}

	e.HandleWorkspaceEvent(workspace.Event{ToID: 5}, 0.5)
	if got := layer.Motion.X.Evaluate(0.5 + 1e-7); math.Abs(float64(got-mid)) > 1e-3 {
		t.Fatalf("jump after retarget: %v -> %v", mid, got)
	}
	if layer.Motion.X.To != 300 {
		t.Fatalf("retarget should aim at the absolute position, got %v", layer.Motion.X.To)
	}
}

func TestHandleWorkspaceEvent_UnknownMonitorFallsBackToPrimary(t *testing.T) {
	e := New(testConfig(workspace.GlobalNumeric, easing.Linear))
	primary := e.AddMonitor("DP-1", screen, 0)
	e.AddMonitor("HDMI-A-1", monitor.Geometry{X: 1920, Width: 1920, Height: 1080}, 0)

	e.HandleWorkspaceEvent(workspace.Event{ToID: 4, Monitor: "DP-9"}, 0)
	if primary.Current != workspace.Global(4) {
		t.Fatalf("primary context = %v", primary.Current)
	}
}

func TestHandleWorkspaceEvent_LegacyPathLinearizes2D(t *testing.T) {
	cfg := testConfig(workspace.PerOutputNumeric, easing.Linear)
	cfg.Layers = []parallax.Spec{{Path: "a.png", Multiplier: anim.Vec{X: 1, Y: 1}, Opacity: 1}}
	e := New(cfg)

	moved := e.HandleWorkspaceEvent(workspace.Event{ToXY: workspace.Point{X: 2, Y: 1}}, 0)
	if !moved {
		t.Fatalf("legacy path should animate")
	}
	if got := e.Legacy(); got != workspace.Global(1002) {
		t.Fatalf("legacy context = %v, want global 1002", got)
	}
	if to := e.Layers().List()[0].Motion.X.To; to != 1001*150 {
		t.Fatalf("layer target = %v", to)
	}
}

func TestHandleWorkspaceEvent_2DUnderGlobalFallsBackToSet(t *testing.T) {
	e := New(testConfig(workspace.GlobalNumeric, easing.Linear))
	mon := e.AddMonitor("DP-1", screen, 0)

	if e.HandleWorkspaceEvent(workspace.Event{ToXY: workspace.Point{X: 2, Y: 1}}, 0) {
		t.Fatalf("first fallback event crosses models and should not animate")
	}
	if mon.Current != workspace.Set(1, 2) {
		t.Fatalf("context = %v, want set-based", mon.Current)
	}
	if !e.HandleWorkspaceEvent(workspace.Event{ToXY: workspace.Point{X: 3, Y: 1}}, 1) {
		t.Fatalf("second fallback event should animate")
	}
	if mon.Parallax.X.To != 300 {
		t.Fatalf("target = %v, want 300", mon.Parallax.X.To)
	}
}

func TestRender_NoMonitors(t *testing.T) {
	e := New(testConfig(workspace.GlobalNumeric, easing.Linear))
	if err := e.Render(0); !errors.Is(err, ErrNoMonitors) {
		t.Fatalf("Render = %v, want ErrNoMonitors", err)
	}
}

func TestRender_FrameAndCallbacks(t *testing.T) {
	rec := &frameRecorder{}
	cfg := testConfig(workspace.GlobalNumeric, easing.Linear)
	cfg.Sink = rec
	cfg.Timing.FrameCallbacks = true
	cfg.Layers = []parallax.Spec{half()}
	e := New(cfg)
	e.AddMonitor("DP-1", screen, 0)

	e.HandleWorkspaceEvent(workspace.Event{ToID: 3}, 0)
	e.Tick(1)
	if err := e.Render(1); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(rec.frames) != 1 {
		t.Fatalf("frames = %d", len(rec.frames))
	}
	f := rec.frames[0]
	if f.Seq != 1 || f.Layers[0].OffsetX != 150 || f.Monitors[0].OffsetX != 300 {
		t.Fatalf("frame = %+v", f)
	}
	if e.FrameReady() {
		t.Fatalf("monitor should be pending after render")
	}
	e.FrameDone("DP-1")
	if !e.FrameReady() {
		t.Fatalf("frame_done should clear pending")
	}
}

func TestSampleCursor_UsesMonitorUnderPointer(t *testing.T) {
	e := New(testConfig(workspace.GlobalNumeric, easing.Linear))
	e.AddMonitor("DP-1", screen, 0)
	e.AddMonitor("HDMI-A-1", monitor.Geometry{X: 1920, Width: 1920, Height: 1080}, 0)

	// Halfway between the center and right edge of the second monitor.
	if !e.SampleCursor(2880+480, 540, 0) {
		t.Fatalf("sample should change output")
	}
	if got := e.Cursor().Value().X; math.Abs(float64(got-0.5)) > 1e-5 {
		t.Fatalf("normalized x = %v, want 0.5 against the second monitor", got)
	}
}

func TestPause_FreezesInput(t *testing.T) {
	e := New(testConfig(workspace.GlobalNumeric, easing.Linear))
	mon := e.AddMonitor("DP-1", screen, 0)
	e.SetPaused(true)
	if e.HandleWorkspaceEvent(workspace.Event{ToID: 2}, 0) {
		t.Fatalf("paused engine should ignore workspace events")
	}
	if mon.Current != workspace.Global(1) {
		t.Fatalf("context changed while paused")
	}
	e.SetPaused(false)
	if !e.HandleWorkspaceEvent(workspace.Event{ToID: 2}, 0) {
		t.Fatalf("resumed engine should animate")
	}
}

func TestApply_RebuildsLayersAtCurrentPosition(t *testing.T) {
	cfg := testConfig(workspace.GlobalNumeric, easing.Linear)
	e := New(cfg)
	e.AddMonitor("DP-1", screen, 0)
	e.HandleWorkspaceEvent(workspace.Event{ToID: 3}, 0)
	e.Tick(1)

	cfg.Layers = []parallax.Spec{half()}
	e.Apply(cfg)
	l := e.Layers().List()[0]
	if l.Offset().X != 150 || l.Motion.Active() {
		t.Fatalf("reloaded layer should rest at 150, got %+v", l.Motion)
	}
}

func TestExecute_SetGetAndLayers(t *testing.T) {
	e := New(testConfig(workspace.GlobalNumeric, easing.Linear))
	e.AddMonitor("DP-1", screen, 0)

	if _, mutated, err := e.Execute(Command{Op: OpSet, Key: "global.fps", Value: "60"}, 0); err != nil || !mutated {
		t.Fatalf("set fps: %v %v", mutated, err)
	}
	if e.Timing().FPS != 60 {
		t.Fatalf("fps = %v", e.Timing().FPS)
	}
	if _, _, err := e.Execute(Command{Op: OpSet, Key: "fps", Value: "0"}, 0); err == nil {
		t.Fatalf("fps 0 should be rejected")
	}
	if _, _, err := e.Execute(Command{Op: OpSet, Key: "easing", Value: "wobble"}, 0); err == nil {
		t.Fatalf("unknown easing should be rejected")
	}
	if _, _, err := e.Execute(Command{Op: OpSet, Key: "colour", Value: "1"}, 0); err == nil {
		t.Fatalf("unknown key should be rejected")
	}

	res, _, err := e.Execute(Command{Op: OpSet, Key: "mode", Value: "hybrid"}, 0)
	if err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if res.(map[string]string)["mode"] != "hybrid" || e.Config().Parallax.Weights.Cursor != 0.3 {
		t.Fatalf("mode result %v weights %+v", res, e.Config().Parallax.Weights)
	}
	if v, _ := e.Get("debounce_ms"); v != "50" {
		t.Fatalf("debounce_ms = %q", v)
	}

	res, mutated, err := e.Execute(Command{Op: OpLayerAdd, Layer: half()}, 0)
	if err != nil || !mutated {
		t.Fatalf("layer add: %v", err)
	}
	id := res.(LayerStatus).ID
	if _, _, err := e.Execute(Command{Op: OpLayerModify, LayerID: id, Property: "opacity", Value: "0.5"}, 0); err != nil {
		t.Fatalf("layer modify: %v", err)
	}
	list, _, _ := e.Execute(Command{Op: OpLayerList}, 0)
	if ls := list.([]LayerStatus); len(ls) != 1 || ls[0].Opacity != 0.5 {
		t.Fatalf("layer list = %+v", ls)
	}
	if _, _, err := e.Execute(Command{Op: OpLayerRemove, LayerID: 99}, 0); err == nil {
		t.Fatalf("removing a missing layer should fail")
	}
	if _, _, err := e.Execute(Command{Op: "explode"}, 0); err == nil {
		t.Fatalf("unknown op should fail")
	}
}
