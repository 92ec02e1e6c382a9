package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/parallaxd/internal/easing"
	"github.com/1broseidon/parallaxd/internal/parallax"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

// GlobalConfig holds animation and pacing defaults.
type GlobalConfig struct {
	FPS            float64 `yaml:"fps"`
	Duration       float64 `yaml:"duration"`        // seconds
	Shift          float64 `yaml:"shift"`           // pixels per workspace step
	Easing         string  `yaml:"easing"`
	IdlePollRate   float64 `yaml:"idle_poll_rate"`  // Hz
	DebounceMS     float64 `yaml:"debounce_ms"`     // 0 = apply immediately
	FrameCallbacks bool    `yaml:"frame_callbacks"`
	Debug          bool    `yaml:"debug"`
	LogLevel       string  `yaml:"log_level"`
}

// CompositorConfig selects the workspace source and addressing model.
type CompositorConfig struct {
	Kind      string `yaml:"kind"`  // auto or a compositor name
	Model     string `yaml:"model"` // auto or a workspace model
	TagPolicy string `yaml:"tag_policy"`
}

type SourceWeight struct {
	Weight float64 `yaml:"weight"`
}

type SourcesConfig struct {
	Workspace SourceWeight `yaml:"workspace"`
	Cursor    SourceWeight `yaml:"cursor"`
}

// Axes is a per-axis toggle.
type Axes struct {
	X bool `yaml:"x"`
	Y bool `yaml:"y"`
}

type InvertConfig struct {
	Workspace Axes `yaml:"workspace"`
	Cursor    Axes `yaml:"cursor"`
}

// Offset is a per-axis pixel limit.
type Offset struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ParallaxConfig blends workspace and cursor motion.
type ParallaxConfig struct {
	Mode        string        `yaml:"mode"`
	Sources     SourcesConfig `yaml:"sources"`
	Invert      InvertConfig  `yaml:"invert"`
	MaxOffsetPx Offset        `yaml:"max_offset_px"` // 0 = unclamped
}

// CursorConfig tunes the cursor sampler.
type CursorConfig struct {
	SensitivityX      float64 `yaml:"sensitivity_x"`
	SensitivityY      float64 `yaml:"sensitivity_y"`
	DeadzonePx        float64 `yaml:"deadzone_px"`
	EMAAlpha          float64 `yaml:"ema_alpha"`
	AnimationDuration float64 `yaml:"animation_duration"`
	Easing            string  `yaml:"easing"`
	FollowGlobal      bool    `yaml:"follow_global"`
	PollMS            float64 `yaml:"poll_ms"`
	Shift             float64 `yaml:"shift"` // 0 = global.shift
}

type InputConfig struct {
	Cursor CursorConfig `yaml:"cursor"`
}

// MonitorConfig overrides settings for one output.
type MonitorConfig struct {
	Shift float64 `yaml:"shift,omitempty"`
}

// LayerConfig is one background layer.
type LayerConfig struct {
	Path            string       `yaml:"path"`
	ShiftMultiplier Multiplier   `yaml:"shift_multiplier"`
	Opacity         float64      `yaml:"opacity"`
	Blur            float64      `yaml:"blur"`
	Invert          InvertConfig `yaml:"invert,omitempty"`
}

type WebSocketConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// OutputConfig selects the frame sinks.
type OutputConfig struct {
	WebSocket WebSocketConfig `yaml:"websocket"`
	LogFrames bool            `yaml:"log_frames"`
}

// HotkeysConfig binds X11 key sequences; empty disables a binding.
type HotkeysConfig struct {
	ToggleMode     string `yaml:"toggle_mode"`
	Pause          string `yaml:"pause"`
	Palette        string `yaml:"palette"`         // spawns "parallaxd palette"
	PaletteBackend string `yaml:"palette_backend"` // auto, rofi, fuzzel, wofi or dmenu
}

// Config is the effective configuration.
type Config struct {
	Global     GlobalConfig             `yaml:"global"`
	Compositor CompositorConfig         `yaml:"compositor"`
	Parallax   ParallaxConfig           `yaml:"parallax"`
	Input      InputConfig              `yaml:"input"`
	Monitors   map[string]MonitorConfig `yaml:"monitors,omitempty"`
	Layers     []LayerConfig            `yaml:"layers,omitempty"`
	Output     OutputConfig             `yaml:"output"`
	Hotkeys    HotkeysConfig            `yaml:"hotkeys"`
}

const (
	DefaultFPS          = 144
	DefaultDuration     = 1.0
	DefaultShift        = 150
	DefaultIdlePollRate = 2
	DefaultDebounceMS   = 50
	DefaultCursorPollMS = 16
	DefaultListen       = "127.0.0.1:7411"
	DefaultFramesPath   = "/frames"
)

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "parallaxd", "config.yaml"), nil
}

func DefaultConfig() *Config {
	weights := parallax.DefaultWeights(parallax.ModeWorkspace)
	return &Config{
		Global: GlobalConfig{
			FPS:          DefaultFPS,
			Duration:     DefaultDuration,
			Shift:        DefaultShift,
			Easing:       easing.Default.String(),
			IdlePollRate: DefaultIdlePollRate,
			DebounceMS:   DefaultDebounceMS,
			LogLevel:     "info",
		},
		Compositor: CompositorConfig{
			Kind:      "auto",
			Model:     "auto",
			TagPolicy: workspace.TagFocused.String(),
		},
		Parallax: ParallaxConfig{
			Mode: parallax.ModeWorkspace.String(),
			Sources: SourcesConfig{
				Workspace: SourceWeight{Weight: float64(weights.Workspace)},
				Cursor:    SourceWeight{Weight: float64(weights.Cursor)},
			},
		},
		Input: InputConfig{
			Cursor: CursorConfig{
				SensitivityX:      1,
				SensitivityY:      1,
				DeadzonePx:        3,
				EMAAlpha:          0.25,
				AnimationDuration: 3.0,
				Easing:            easing.Expo.String(),
				PollMS:            DefaultCursorPollMS,
			},
		},
		Monitors: map[string]MonitorConfig{},
		Output: OutputConfig{
			WebSocket: WebSocketConfig{
				Listen: DefaultListen,
				Path:   DefaultFramesPath,
			},
		},
		Hotkeys: HotkeysConfig{PaletteBackend: "auto"},
	}
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	save := *c
	if len(save.Monitors) == 0 {
		save.Monitors = nil
	}

	data, err := yaml.Marshal(&save)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MonitorShift returns the per-monitor shift overrides in pixels.
func (c *Config) MonitorShift() map[string]float32 {
	out := make(map[string]float32, len(c.Monitors))
	for name, m := range c.Monitors {
		if m.Shift > 0 {
			out[name] = float32(m.Shift)
		}
	}
	return out
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	g := c.Global
	if g.FPS < 1 || g.FPS > 1000 {
		return &ValidationError{Path: "global.fps", Err: fmt.Errorf("fps must be between 1 and 1000")}
	}
	if g.Duration < 0 {
		return &ValidationError{Path: "global.duration", Err: fmt.Errorf("duration must be >= 0")}
	}
	if g.Shift < 0 {
		return &ValidationError{Path: "global.shift", Err: fmt.Errorf("shift must be >= 0")}
	}
	if err := validateEasing("global.easing", g.Easing); err != nil {
		return err
	}
	if g.IdlePollRate <= 0 {
		return &ValidationError{Path: "global.idle_poll_rate", Err: fmt.Errorf("idle_poll_rate must be > 0")}
	}
	if g.DebounceMS < 0 {
		return &ValidationError{Path: "global.debounce_ms", Err: fmt.Errorf("debounce_ms must be >= 0")}
	}
	switch g.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "global.log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}

	if c.Compositor.Kind != "auto" {
		if _, ok := workspace.ParseCompositor(c.Compositor.Kind); !ok {
			return &ValidationError{Path: "compositor.kind", Err: fmt.Errorf("unknown compositor %q", c.Compositor.Kind)}
		}
	}
	if c.Compositor.Model != "auto" {
		if _, ok := workspace.ParseModel(c.Compositor.Model); !ok {
			return &ValidationError{Path: "compositor.model", Err: fmt.Errorf("model must be one of: auto, global, per_output, tag, set")}
		}
	}
	if _, err := workspace.ParseTagPolicy(c.Compositor.TagPolicy); err != nil {
		return &ValidationError{Path: "compositor.tag_policy", Err: err}
	}

	p := c.Parallax
	if _, err := parallax.ParseMode(p.Mode); err != nil {
		return &ValidationError{Path: "parallax.mode", Err: err}
	}
	if p.Sources.Workspace.Weight < 0 {
		return &ValidationError{Path: "parallax.sources.workspace.weight", Err: fmt.Errorf("weight must be >= 0")}
	}
	if p.Sources.Cursor.Weight < 0 {
		return &ValidationError{Path: "parallax.sources.cursor.weight", Err: fmt.Errorf("weight must be >= 0")}
	}
	if p.MaxOffsetPx.X < 0 || p.MaxOffsetPx.Y < 0 {
		return &ValidationError{Path: "parallax.max_offset_px", Err: fmt.Errorf("max_offset_px values must be >= 0")}
	}

	cur := c.Input.Cursor
	if cur.SensitivityX < 0 || cur.SensitivityY < 0 {
		return &ValidationError{Path: "input.cursor", Err: fmt.Errorf("sensitivity must be >= 0")}
	}
	if cur.DeadzonePx < 0 {
		return &ValidationError{Path: "input.cursor.deadzone_px", Err: fmt.Errorf("deadzone_px must be >= 0")}
	}
	if cur.EMAAlpha < 0 || cur.EMAAlpha > 1 {
		return &ValidationError{Path: "input.cursor.ema_alpha", Err: fmt.Errorf("ema_alpha must be between 0 and 1")}
	}
	if cur.AnimationDuration < 0 {
		return &ValidationError{Path: "input.cursor.animation_duration", Err: fmt.Errorf("animation_duration must be >= 0")}
	}
	if err := validateEasing("input.cursor.easing", cur.Easing); err != nil {
		return err
	}
	if cur.PollMS <= 0 {
		return &ValidationError{Path: "input.cursor.poll_ms", Err: fmt.Errorf("poll_ms must be > 0")}
	}
	if cur.Shift < 0 {
		return &ValidationError{Path: "input.cursor.shift", Err: fmt.Errorf("shift must be >= 0")}
	}

	for _, name := range sortedKeys(c.Monitors) {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "monitors", Err: fmt.Errorf("monitors contains an empty name")}
		}
		if c.Monitors[name].Shift < 0 {
			return &ValidationError{Path: "monitors." + name + ".shift", Err: fmt.Errorf("shift must be >= 0")}
		}
	}

	for i, l := range c.Layers {
		path := fmt.Sprintf("layers.%d", i)
		if strings.TrimSpace(l.Path) == "" {
			return &ValidationError{Path: path + ".path", Err: fmt.Errorf("path is required")}
		}
		if l.Opacity < 0 || l.Opacity > 1 {
			return &ValidationError{Path: path + ".opacity", Err: fmt.Errorf("opacity must be between 0 and 1")}
		}
		if l.Blur < 0 {
			return &ValidationError{Path: path + ".blur", Err: fmt.Errorf("blur must be >= 0")}
		}
	}

	if c.Output.WebSocket.Enabled {
		if strings.TrimSpace(c.Output.WebSocket.Listen) == "" {
			return &ValidationError{Path: "output.websocket.listen", Err: fmt.Errorf("listen address is required")}
		}
		if !strings.HasPrefix(c.Output.WebSocket.Path, "/") {
			return &ValidationError{Path: "output.websocket.path", Err: fmt.Errorf("path must start with /")}
		}
	}

	switch c.Hotkeys.PaletteBackend {
	case "auto", "rofi", "fuzzel", "wofi", "dmenu":
	default:
		return &ValidationError{Path: "hotkeys.palette_backend", Err: fmt.Errorf("palette_backend must be one of: auto, rofi, fuzzel, wofi, dmenu")}
	}

	if warnings := c.validationWarnings(); len(warnings) > 0 {
		for _, w := range warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}
	return nil
}

func validateEasing(path, name string) error {
	if _, ok := easing.Parse(name); !ok {
		return &ValidationError{Path: path, Err: fmt.Errorf("unknown easing %q (valid: %s)", name, strings.Join(easing.Names(), ", "))}
	}
	return nil
}

func (c *Config) validationWarnings() []string {
	var warnings []string
	if c.Global.FrameCallbacks && !c.Output.WebSocket.Enabled {
		warnings = append(warnings, "global.frame_callbacks needs output.websocket to deliver frame_done acks; it will be ignored")
	}
	if c.Parallax.Sources.Workspace.Weight == 0 && c.Parallax.Sources.Cursor.Weight == 0 {
		warnings = append(warnings, "both parallax source weights are 0; layers will not move")
	}
	return warnings
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
