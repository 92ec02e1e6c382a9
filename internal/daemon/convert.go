package daemon

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/parallaxd/internal/anim"
	"github.com/1broseidon/parallaxd/internal/config"
	"github.com/1broseidon/parallaxd/internal/cursor"
	"github.com/1broseidon/parallaxd/internal/easing"
	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/parallax"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

// ResolveCompositor applies compositor.kind and compositor.model, detecting
// whichever is "auto".
func ResolveCompositor(cfg *config.Config, getenv func(string) string) (workspace.Compositor, workspace.Model) {
	comp, ok := workspace.ParseCompositor(cfg.Compositor.Kind)
	if !ok {
		comp = workspace.DetectCompositorEnv(getenv)
	}
	model, ok := workspace.ParseModel(cfg.Compositor.Model)
	if !ok {
		model = workspace.DetectModel(comp)
	}
	return comp, model
}

// EngineConfig converts the effective configuration for one compositor.
// Frame callbacks are forced off when no websocket renderer can ack.
func EngineConfig(cfg *config.Config, comp workspace.Compositor, model workspace.Model, logger *slog.Logger) (engine.Config, error) {
	ease, ok := easing.Parse(cfg.Global.Easing)
	if !ok {
		return engine.Config{}, fmt.Errorf("global.easing: unknown easing %q", cfg.Global.Easing)
	}
	cursorEase, ok := easing.Parse(cfg.Input.Cursor.Easing)
	if !ok {
		return engine.Config{}, fmt.Errorf("input.cursor.easing: unknown easing %q", cfg.Input.Cursor.Easing)
	}
	mode, err := parallax.ParseMode(cfg.Parallax.Mode)
	if err != nil {
		return engine.Config{}, fmt.Errorf("parallax.mode: %w", err)
	}
	policy, err := workspace.ParseTagPolicy(cfg.Compositor.TagPolicy)
	if err != nil {
		return engine.Config{}, fmt.Errorf("compositor.tag_policy: %w", err)
	}

	frameCallbacks := cfg.Global.FrameCallbacks && cfg.Output.WebSocket.Enabled
	if cfg.Global.FrameCallbacks && !frameCallbacks && logger != nil {
		logger.Warn("frame_callbacks disabled: no websocket renderer to acknowledge frames")
	}

	inv := cfg.Parallax.Invert
	cur := cfg.Input.Cursor

	out := engine.Config{
		Logger:     logger,
		Compositor: string(comp),
		Model:      model,
		TagPolicy:  policy,
		Timing: engine.Timing{
			FPS:            cfg.Global.FPS,
			IdlePollRate:   cfg.Global.IdlePollRate,
			Debounce:       cfg.Global.DebounceMS / 1000,
			FrameCallbacks: frameCallbacks,
			CursorPoll:     cur.PollMS / 1000,
		},
		Shift:    float32(cfg.Global.Shift),
		Duration: cfg.Global.Duration,
		Easing:   ease,
		Parallax: parallax.Settings{
			Mode: mode,
			Weights: parallax.Weights{
				Workspace: float32(cfg.Parallax.Sources.Workspace.Weight),
				Cursor:    float32(cfg.Parallax.Sources.Cursor.Weight),
			},
			InvertWorkspace: invert(inv.Workspace),
			InvertCursor:    invert(inv.Cursor),
			MaxOffset: anim.Vec{
				X: float32(cfg.Parallax.MaxOffsetPx.X),
				Y: float32(cfg.Parallax.MaxOffsetPx.Y),
			},
			CursorShift: float32(cur.Shift),
		},
		Cursor: cursor.Config{
			SensitivityX: float32(cur.SensitivityX),
			SensitivityY: float32(cur.SensitivityY),
			DeadzonePx:   float32(cur.DeadzonePx),
			EMAAlpha:     float32(cur.EMAAlpha),
			AnimDuration: cur.AnimationDuration,
			Easing:       cursorEase,
			FollowGlobal: cur.FollowGlobal,
		},
		MonitorShift: cfg.MonitorShift(),
	}

	for _, l := range cfg.Layers {
		out.Layers = append(out.Layers, parallax.Spec{
			Path:            l.Path,
			Multiplier:      anim.Vec{X: float32(l.ShiftMultiplier.X), Y: float32(l.ShiftMultiplier.Y)},
			Opacity:         float32(l.Opacity),
			Blur:            float32(l.Blur),
			InvertWorkspace: invert(l.Invert.Workspace),
			InvertCursor:    invert(l.Invert.Cursor),
		})
	}
	return out, nil
}

func invert(a config.Axes) parallax.Invert {
	return parallax.Invert{X: a.X, Y: a.Y}
}
