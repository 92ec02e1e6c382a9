package config

import (
	"fmt"

	"github.com/1broseidon/parallaxd/internal/parallax"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BuildEffectiveConfig applies raw over DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if g := raw.Global; g != nil {
		assign(&cfg.Global.FPS, g.FPS)
		assign(&cfg.Global.Duration, g.Duration)
		assign(&cfg.Global.Shift, g.Shift)
		assign(&cfg.Global.Easing, g.Easing)
		assign(&cfg.Global.IdlePollRate, g.IdlePollRate)
		assign(&cfg.Global.DebounceMS, g.DebounceMS)
		assign(&cfg.Global.FrameCallbacks, g.FrameCallbacks)
		assign(&cfg.Global.Debug, g.Debug)
		assign(&cfg.Global.LogLevel, g.LogLevel)
	}
	if cfg.Global.Debug {
		cfg.Global.LogLevel = "debug"
	}

	if c := raw.Compositor; c != nil {
		assign(&cfg.Compositor.Kind, c.Kind)
		assign(&cfg.Compositor.Model, c.Model)
		assign(&cfg.Compositor.TagPolicy, c.TagPolicy)
	}

	if err := applyParallax(cfg, raw.Parallax); err != nil {
		return nil, err
	}

	if raw.Input != nil && raw.Input.Cursor != nil {
		c := raw.Input.Cursor
		cur := &cfg.Input.Cursor
		assign(&cur.SensitivityX, c.SensitivityX)
		assign(&cur.SensitivityY, c.SensitivityY)
		assign(&cur.DeadzonePx, c.DeadzonePx)
		assign(&cur.EMAAlpha, c.EMAAlpha)
		assign(&cur.AnimationDuration, c.AnimationDuration)
		assign(&cur.Easing, c.Easing)
		assign(&cur.FollowGlobal, c.FollowGlobal)
		assign(&cur.PollMS, c.PollMS)
		assign(&cur.Shift, c.Shift)
	}

	for name, m := range raw.Monitors {
		mc := cfg.Monitors[name]
		assign(&mc.Shift, m.Shift)
		cfg.Monitors[name] = mc
	}

	if raw.Layers != nil {
		cfg.Layers = make([]LayerConfig, 0, len(raw.Layers))
		for _, rl := range raw.Layers {
			cfg.Layers = append(cfg.Layers, buildLayer(rl))
		}
	}

	if o := raw.Output; o != nil {
		assign(&cfg.Output.LogFrames, o.LogFrames)
		if ws := o.WebSocket; ws != nil {
			assign(&cfg.Output.WebSocket.Enabled, ws.Enabled)
			assign(&cfg.Output.WebSocket.Listen, ws.Listen)
			assign(&cfg.Output.WebSocket.Path, ws.Path)
		}
	}

	if h := raw.Hotkeys; h != nil {
		assign(&cfg.Hotkeys.ToggleMode, h.ToggleMode)
		assign(&cfg.Hotkeys.Pause, h.Pause)
		assign(&cfg.Hotkeys.Palette, h.Palette)
		assign(&cfg.Hotkeys.PaletteBackend, h.PaletteBackend)
	}

	return cfg, nil
}

// applyParallax sets the mode first so its default weights can be
// overridden by explicit source weights.
func applyParallax(cfg *Config, raw *RawParallax) error {
	if raw == nil {
		return nil
	}
	if raw.Mode != nil {
		mode, err := parallax.ParseMode(*raw.Mode)
		if err != nil {
			return &ValidationError{Path: "parallax.mode", Err: err}
		}
		w := parallax.DefaultWeights(mode)
		cfg.Parallax.Mode = mode.String()
		cfg.Parallax.Sources.Workspace.Weight = float64(w.Workspace)
		cfg.Parallax.Sources.Cursor.Weight = float64(w.Cursor)
	}
	if s := raw.Sources; s != nil {
		if s.Workspace != nil {
			assign(&cfg.Parallax.Sources.Workspace.Weight, s.Workspace.Weight)
		}
		if s.Cursor != nil {
			assign(&cfg.Parallax.Sources.Cursor.Weight, s.Cursor.Weight)
		}
	}
	if raw.Invert != nil {
		cfg.Parallax.Invert = buildInvert(cfg.Parallax.Invert, raw.Invert)
	}
	if off := raw.MaxOffsetPx; off != nil {
		assign(&cfg.Parallax.MaxOffsetPx.X, off.X)
		assign(&cfg.Parallax.MaxOffsetPx.Y, off.Y)
	}
	return nil
}

func buildLayer(raw RawLayer) LayerConfig {
	l := LayerConfig{
		ShiftMultiplier: Multiplier{X: 1, Y: 1},
		Opacity:         1,
	}
	assign(&l.Path, raw.Path)
	assign(&l.ShiftMultiplier, raw.ShiftMultiplier)
	assign(&l.Opacity, raw.Opacity)
	assign(&l.Blur, raw.Blur)
	if raw.Invert != nil {
		l.Invert = buildInvert(l.Invert, raw.Invert)
	}
	return l
}

func buildInvert(base InvertConfig, raw *RawInvert) InvertConfig {
	out := base
	if raw.Workspace != nil {
		assign(&out.Workspace.X, raw.Workspace.X)
		assign(&out.Workspace.Y, raw.Workspace.Y)
	}
	if raw.Cursor != nil {
		assign(&out.Cursor.X, raw.Cursor.X)
		assign(&out.Cursor.Y, raw.Cursor.Y)
	}
	return out
}

func assign[T any](dst *T, p *T) {
	if p != nil {
		*dst = *p
	}
}
