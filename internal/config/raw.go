package config

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// Multiplier is a per-axis layer multiplier. It accepts either a scalar
// applied to both axes:
//
//	shift_multiplier: 0.5
//
// or a mapping:
//
//	shift_multiplier: {x: 0.5, y: 0.2}
type Multiplier struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (m *Multiplier) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		v, err := strconv.ParseFloat(value.Value, 64)
		if err != nil {
			return fmt.Errorf("shift_multiplier must be a number or {x, y}")
		}
		m.X, m.Y = v, v
		return nil
	case yaml.MappingNode:
		var axes struct {
			X *float64 `yaml:"x"`
			Y *float64 `yaml:"y"`
		}
		if err := value.Decode(&axes); err != nil {
			return err
		}
		if axes.X == nil && axes.Y == nil {
			return fmt.Errorf("shift_multiplier needs x or y")
		}
		// A missing axis follows the other one.
		if axes.X == nil {
			axes.X = axes.Y
		}
		if axes.Y == nil {
			axes.Y = axes.X
		}
		m.X, m.Y = *axes.X, *axes.Y
		return nil
	default:
		return fmt.Errorf("shift_multiplier must be a number or {x, y}")
	}
}

func (m Multiplier) MarshalYAML() (any, error) {
	if m.X == m.Y {
		return m.X, nil
	}
	return struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	}{m.X, m.Y}, nil
}

type RawGlobal struct {
	FPS            *float64 `yaml:"fps"`
	Duration       *float64 `yaml:"duration"`
	Shift          *float64 `yaml:"shift"`
	Easing         *string  `yaml:"easing"`
	IdlePollRate   *float64 `yaml:"idle_poll_rate"`
	DebounceMS     *float64 `yaml:"debounce_ms"`
	FrameCallbacks *bool    `yaml:"frame_callbacks"`
	Debug          *bool    `yaml:"debug"`
	LogLevel       *string  `yaml:"log_level"`
}

type RawCompositor struct {
	Kind      *string `yaml:"kind"`
	Model     *string `yaml:"model"`
	TagPolicy *string `yaml:"tag_policy"`
}

type RawSourceWeight struct {
	Weight *float64 `yaml:"weight"`
}

type RawSources struct {
	Workspace *RawSourceWeight `yaml:"workspace"`
	Cursor    *RawSourceWeight `yaml:"cursor"`
}

type RawAxes struct {
	X *bool `yaml:"x"`
	Y *bool `yaml:"y"`
}

type RawInvert struct {
	Workspace *RawAxes `yaml:"workspace"`
	Cursor    *RawAxes `yaml:"cursor"`
}

type RawOffset struct {
	X *float64 `yaml:"x"`
	Y *float64 `yaml:"y"`
}

type RawParallax struct {
	Mode        *string     `yaml:"mode"`
	Sources     *RawSources `yaml:"sources"`
	Invert      *RawInvert  `yaml:"invert"`
	MaxOffsetPx *RawOffset  `yaml:"max_offset_px"`
}

type RawCursor struct {
	SensitivityX      *float64 `yaml:"sensitivity_x"`
	SensitivityY      *float64 `yaml:"sensitivity_y"`
	DeadzonePx        *float64 `yaml:"deadzone_px"`
	EMAAlpha          *float64 `yaml:"ema_alpha"`
	AnimationDuration *float64 `yaml:"animation_duration"`
	Easing            *string  `yaml:"easing"`
	FollowGlobal      *bool    `yaml:"follow_global"`
	PollMS            *float64 `yaml:"poll_ms"`
	Shift             *float64 `yaml:"shift"`
}

type RawInput struct {
	Cursor *RawCursor `yaml:"cursor"`
}

type RawMonitor struct {
	Shift *float64 `yaml:"shift"`
}

type RawLayer struct {
	Path            *string     `yaml:"path"`
	ShiftMultiplier *Multiplier `yaml:"shift_multiplier"`
	Opacity         *float64    `yaml:"opacity"`
	Blur            *float64    `yaml:"blur"`
	Invert          *RawInvert  `yaml:"invert"`
}

type RawWebSocket struct {
	Enabled *bool   `yaml:"enabled"`
	Listen  *string `yaml:"listen"`
	Path    *string `yaml:"path"`
}

type RawOutput struct {
	WebSocket *RawWebSocket `yaml:"websocket"`
	LogFrames *bool         `yaml:"log_frames"`
}

type RawHotkeys struct {
	ToggleMode     *string `yaml:"toggle_mode"`
	Pause          *string `yaml:"pause"`
	Palette        *string `yaml:"palette"`
	PaletteBackend *string `yaml:"palette_backend"`
}

type RawConfig struct {
	Include    IncludeList           `yaml:"include"`
	Global     *RawGlobal            `yaml:"global"`
	Compositor *RawCompositor        `yaml:"compositor"`
	Parallax   *RawParallax          `yaml:"parallax"`
	Input      *RawInput             `yaml:"input"`
	Monitors   map[string]RawMonitor `yaml:"monitors"`
	Layers     []RawLayer            `yaml:"layers"`
	Output     *RawOutput            `yaml:"output"`
	Hotkeys    *RawHotkeys           `yaml:"hotkeys"`
}

// set copies overlay into *dst when overlay is present.
func set[T any](dst **T, overlay *T) {
	if overlay != nil {
		*dst = overlay
	}
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Global != nil {
		g := RawGlobal{}
		if out.Global != nil {
			g = *out.Global
		}
		o := overlay.Global
		set(&g.FPS, o.FPS)
		set(&g.Duration, o.Duration)
		set(&g.Shift, o.Shift)
		set(&g.Easing, o.Easing)
		set(&g.IdlePollRate, o.IdlePollRate)
		set(&g.DebounceMS, o.DebounceMS)
		set(&g.FrameCallbacks, o.FrameCallbacks)
		set(&g.Debug, o.Debug)
		set(&g.LogLevel, o.LogLevel)
		out.Global = &g
	}

	if overlay.Compositor != nil {
		comp := RawCompositor{}
		if out.Compositor != nil {
			comp = *out.Compositor
		}
		set(&comp.Kind, overlay.Compositor.Kind)
		set(&comp.Model, overlay.Compositor.Model)
		set(&comp.TagPolicy, overlay.Compositor.TagPolicy)
		out.Compositor = &comp
	}

	if overlay.Parallax != nil {
		p := RawParallax{}
		if out.Parallax != nil {
			p = *out.Parallax
		}
		o := overlay.Parallax
		set(&p.Mode, o.Mode)
		if o.Sources != nil {
			s := RawSources{}
			if p.Sources != nil {
				s = *p.Sources
			}
			set(&s.Workspace, o.Sources.Workspace)
			set(&s.Cursor, o.Sources.Cursor)
			p.Sources = &s
		}
		if o.Invert != nil {
			merged := mergeRawInvert(p.Invert, o.Invert)
			p.Invert = &merged
		}
		if o.MaxOffsetPx != nil {
			off := RawOffset{}
			if p.MaxOffsetPx != nil {
				off = *p.MaxOffsetPx
			}
			set(&off.X, o.MaxOffsetPx.X)
			set(&off.Y, o.MaxOffsetPx.Y)
			p.MaxOffsetPx = &off
		}
		out.Parallax = &p
	}

	if overlay.Input != nil && overlay.Input.Cursor != nil {
		cur := RawCursor{}
		if out.Input != nil && out.Input.Cursor != nil {
			cur = *out.Input.Cursor
		}
		o := overlay.Input.Cursor
		set(&cur.SensitivityX, o.SensitivityX)
		set(&cur.SensitivityY, o.SensitivityY)
		set(&cur.DeadzonePx, o.DeadzonePx)
		set(&cur.EMAAlpha, o.EMAAlpha)
		set(&cur.AnimationDuration, o.AnimationDuration)
		set(&cur.Easing, o.Easing)
		set(&cur.FollowGlobal, o.FollowGlobal)
		set(&cur.PollMS, o.PollMS)
		set(&cur.Shift, o.Shift)
		out.Input = &RawInput{Cursor: &cur}
	}

	if overlay.Monitors != nil {
		merged := make(map[string]RawMonitor, len(out.Monitors)+len(overlay.Monitors))
		for name, m := range out.Monitors {
			merged[name] = m
		}
		for name, m := range overlay.Monitors {
			base := merged[name]
			set(&base.Shift, m.Shift)
			merged[name] = base
		}
		out.Monitors = merged
	}

	// Layers are a list; the last file that sets them wins outright.
	if overlay.Layers != nil {
		out.Layers = overlay.Layers
	}

	if overlay.Output != nil {
		o := RawOutput{}
		if out.Output != nil {
			o = *out.Output
		}
		set(&o.LogFrames, overlay.Output.LogFrames)
		if ws := overlay.Output.WebSocket; ws != nil {
			w := RawWebSocket{}
			if o.WebSocket != nil {
				w = *o.WebSocket
			}
			set(&w.Enabled, ws.Enabled)
			set(&w.Listen, ws.Listen)
			set(&w.Path, ws.Path)
			o.WebSocket = &w
		}
		out.Output = &o
	}

	if overlay.Hotkeys != nil {
		h := RawHotkeys{}
		if out.Hotkeys != nil {
			h = *out.Hotkeys
		}
		set(&h.ToggleMode, overlay.Hotkeys.ToggleMode)
		set(&h.Pause, overlay.Hotkeys.Pause)
		set(&h.Palette, overlay.Hotkeys.Palette)
		set(&h.PaletteBackend, overlay.Hotkeys.PaletteBackend)
		out.Hotkeys = &h
	}

	return out
}

func mergeRawInvert(base *RawInvert, overlay *RawInvert) RawInvert {
	out := RawInvert{}
	if base != nil {
		out = *base
	}
	if overlay.Workspace != nil {
		out.Workspace = mergeRawAxes(out.Workspace, overlay.Workspace)
	}
	if overlay.Cursor != nil {
		out.Cursor = mergeRawAxes(out.Cursor, overlay.Cursor)
	}
	return out
}

func mergeRawAxes(base *RawAxes, overlay *RawAxes) *RawAxes {
	out := RawAxes{}
	if base != nil {
		out = *base
	}
	set(&out.X, overlay.X)
	set(&out.Y, overlay.Y)
	return &out
}
