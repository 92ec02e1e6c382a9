package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/parallaxd/internal/cursor"
	"github.com/1broseidon/parallaxd/internal/easing"
	"github.com/1broseidon/parallaxd/internal/parallax"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

type setting struct {
	get func(e *Engine) string
	set func(e *Engine, v string) error
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 7, 64)
}

func parseFloat(v string, lo float64, strictLo bool) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	if f < lo || (strictLo && f == lo) {
		if strictLo {
			return 0, fmt.Errorf("must be > %s", formatFloat(lo))
		}
		return 0, fmt.Errorf("must be >= %s", formatFloat(lo))
	}
	return f, nil
}

func floatSetting(get func(e *Engine) float64, set func(e *Engine, v float64), lo float64, strictLo bool) setting {
	return setting{
		get: func(e *Engine) string { return formatFloat(get(e)) },
		set: func(e *Engine, v string) error {
			f, err := parseFloat(v, lo, strictLo)
			if err != nil {
				return err
			}
			set(e, f)
			return nil
		},
	}
}

func boolSetting(get func(e *Engine) bool, set func(e *Engine, v bool)) setting {
	return setting{
		get: func(e *Engine) string { return strconv.FormatBool(get(e)) },
		set: func(e *Engine, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("not a boolean: %q", v)
			}
			set(e, b)
			return nil
		},
	}
}

func easingSetting(get func(e *Engine) easing.Kind, set func(e *Engine, k easing.Kind)) setting {
	return setting{
		get: func(e *Engine) string { return get(e).String() },
		set: func(e *Engine, v string) error {
			k, ok := easing.Parse(v)
			if !ok {
				return fmt.Errorf("unknown easing %q (valid: %s)", v, strings.Join(easing.Names(), ", "))
			}
			set(e, k)
			return nil
		},
	}
}

// cursorConfig edits the sampler config in place.
func cursorConfig(e *Engine, fn func(c *cursor.Config)) {
	fn(&e.cfg.Cursor)
	e.cursor.SetConfig(e.cfg.Cursor)
}

var settings = map[string]setting{
	"fps": floatSetting(
		func(e *Engine) float64 { return e.cfg.Timing.FPS },
		func(e *Engine, v float64) { e.cfg.Timing.FPS = v }, 0, true),
	"idle_poll_rate": floatSetting(
		func(e *Engine) float64 { return e.cfg.Timing.IdlePollRate },
		func(e *Engine, v float64) { e.cfg.Timing.IdlePollRate = v }, 0, true),
	"debounce_ms": floatSetting(
		func(e *Engine) float64 { return e.cfg.Timing.Debounce * 1000 },
		func(e *Engine, v float64) { e.cfg.Timing.Debounce = v / 1000 }, 0, false),
	"frame_callbacks": boolSetting(
		func(e *Engine) bool { return e.cfg.Timing.FrameCallbacks },
		func(e *Engine, v bool) {
			e.cfg.Timing.FrameCallbacks = v
			if !v {
				e.FrameDone("")
			}
		}),
	"duration": floatSetting(
		func(e *Engine) float64 { return e.cfg.Duration },
		func(e *Engine, v float64) { e.cfg.Duration = v }, 0, false),
	"shift": floatSetting(
		func(e *Engine) float64 { return float64(e.cfg.Shift) },
		func(e *Engine, v float64) { e.cfg.Shift = float32(v) }, 0, false),
	"easing": easingSetting(
		func(e *Engine) easing.Kind { return e.cfg.Easing },
		func(e *Engine, k easing.Kind) { e.cfg.Easing = k }),
	"mode": {
		get: func(e *Engine) string { return e.cfg.Parallax.Mode.String() },
		set: func(e *Engine, v string) error {
			m, err := parallax.ParseMode(v)
			if err != nil {
				return err
			}
			e.setMode(m)
			return nil
		},
	},
	"weights.workspace": floatSetting(
		func(e *Engine) float64 { return float64(e.cfg.Parallax.Weights.Workspace) },
		func(e *Engine, v float64) { e.cfg.Parallax.Weights.Workspace = float32(v) }, 0, false),
	"weights.cursor": floatSetting(
		func(e *Engine) float64 { return float64(e.cfg.Parallax.Weights.Cursor) },
		func(e *Engine, v float64) { e.cfg.Parallax.Weights.Cursor = float32(v) }, 0, false),
	"invert.workspace.x": boolSetting(
		func(e *Engine) bool { return e.cfg.Parallax.InvertWorkspace.X },
		func(e *Engine, v bool) { e.cfg.Parallax.InvertWorkspace.X = v }),
	"invert.workspace.y": boolSetting(
		func(e *Engine) bool { return e.cfg.Parallax.InvertWorkspace.Y },
		func(e *Engine, v bool) { e.cfg.Parallax.InvertWorkspace.Y = v }),
	"invert.cursor.x": boolSetting(
		func(e *Engine) bool { return e.cfg.Parallax.InvertCursor.X },
		func(e *Engine, v bool) { e.cfg.Parallax.InvertCursor.X = v }),
	"invert.cursor.y": boolSetting(
		func(e *Engine) bool { return e.cfg.Parallax.InvertCursor.Y },
		func(e *Engine, v bool) { e.cfg.Parallax.InvertCursor.Y = v }),
	"max_offset.x": floatSetting(
		func(e *Engine) float64 { return float64(e.cfg.Parallax.MaxOffset.X) },
		func(e *Engine, v float64) { e.cfg.Parallax.MaxOffset.X = float32(v) }, 0, false),
	"max_offset.y": floatSetting(
		func(e *Engine) float64 { return float64(e.cfg.Parallax.MaxOffset.Y) },
		func(e *Engine, v float64) { e.cfg.Parallax.MaxOffset.Y = float32(v) }, 0, false),
	"tag_policy": {
		get: func(e *Engine) string { return e.cfg.TagPolicy.String() },
		set: func(e *Engine, v string) error {
			p, err := workspace.ParseTagPolicy(v)
			if err != nil {
				return err
			}
			e.cfg.TagPolicy = p
			e.motion.Policy = p
			return nil
		},
	},
	"cursor.poll_ms": floatSetting(
		func(e *Engine) float64 { return e.cfg.Timing.CursorPoll * 1000 },
		func(e *Engine, v float64) { e.cfg.Timing.CursorPoll = v / 1000 }, 0, true),
	"cursor.shift": floatSetting(
		func(e *Engine) float64 { return float64(e.cfg.Parallax.CursorShift) },
		func(e *Engine, v float64) { e.cfg.Parallax.CursorShift = float32(v) }, 0, false),
	"cursor.sensitivity_x": floatSetting(
		func(e *Engine) float64 { return float64(e.cfg.Cursor.SensitivityX) },
		func(e *Engine, v float64) { cursorConfig(e, func(c *cursor.Config) { c.SensitivityX = float32(v) }) }, 0, false),
	"cursor.sensitivity_y": floatSetting(
		func(e *Engine) float64 { return float64(e.cfg.Cursor.SensitivityY) },
		func(e *Engine, v float64) { cursorConfig(e, func(c *cursor.Config) { c.SensitivityY = float32(v) }) }, 0, false),
	"cursor.deadzone_px": floatSetting(
		func(e *Engine) float64 { return float64(e.cfg.Cursor.DeadzonePx) },
		func(e *Engine, v float64) { cursorConfig(e, func(c *cursor.Config) { c.DeadzonePx = float32(v) }) }, 0, false),
	"cursor.ema_alpha": floatSetting(
		func(e *Engine) float64 { return float64(e.cfg.Cursor.EMAAlpha) },
		func(e *Engine, v float64) { cursorConfig(e, func(c *cursor.Config) { c.EMAAlpha = float32(v) }) }, 0, false),
	"cursor.animation_duration": floatSetting(
		func(e *Engine) float64 { return e.cfg.Cursor.AnimDuration },
		func(e *Engine, v float64) { cursorConfig(e, func(c *cursor.Config) { c.AnimDuration = v }) }, 0, false),
	"cursor.easing": easingSetting(
		func(e *Engine) easing.Kind { return e.cfg.Cursor.Easing },
		func(e *Engine, k easing.Kind) { cursorConfig(e, func(c *cursor.Config) { c.Easing = k }) }),
	"cursor.follow_global": boolSetting(
		func(e *Engine) bool { return e.cfg.Cursor.FollowGlobal },
		func(e *Engine, v bool) { cursorConfig(e, func(c *cursor.Config) { c.FollowGlobal = v }) }),
}

// SettingKeys lists the keys accepted by Set and Get.
func SettingKeys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set changes one runtime setting from its string form.
func (e *Engine) Set(key, value string) error {
	s, ok := settings[normalizeKey(key)]
	if !ok {
		return fmt.Errorf("unknown setting %q", key)
	}
	if err := s.set(e, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// Get returns one runtime setting in string form.
func (e *Engine) Get(key string) (string, error) {
	s, ok := settings[normalizeKey(key)]
	if !ok {
		return "", fmt.Errorf("unknown setting %q", key)
	}
	return s.get(e), nil
}

// normalizeKey accepts a few spellings used by the config file.
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.TrimPrefix(key, "global.")
	key = strings.TrimPrefix(key, "parallax.")
	key = strings.TrimPrefix(key, "input.")
	switch key {
	case "target_fps":
		return "fps"
	case "animation_duration":
		return "duration"
	case "shift_pixels":
		return "shift"
	case "default_easing":
		return "easing"
	case "max_offset_px.x":
		return "max_offset.x"
	case "max_offset_px.y":
		return "max_offset.y"
	}
	return key
}

// setMode switches the parallax mode and its default weights.
func (e *Engine) setMode(m parallax.Mode) {
	e.cfg.Parallax.Mode = m
	e.cfg.Parallax.Weights = parallax.DefaultWeights(m)
	if !e.CursorEnabled() {
		e.cursor.Reset()
	}
	e.logger.Info("parallax mode changed", "mode", m.String())
}
