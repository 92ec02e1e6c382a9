package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Global.FPS != DefaultFPS || cfg.Global.Shift != DefaultShift {
		t.Fatalf("unexpected defaults: %+v", cfg.Global)
	}
	if cfg.Parallax.Sources.Workspace.Weight != 1 || cfg.Parallax.Sources.Cursor.Weight != 0 {
		t.Fatalf("expected workspace-only weights, got %+v", cfg.Parallax.Sources)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Global.Duration != DefaultDuration {
		t.Fatalf("expected default duration, got %v", res.Config.Global.Duration)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Global.Easing != "cubic" {
		t.Fatalf("expected default easing cubic, got %q", res.Config.Global.Easing)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "global:\n  fsp: 60\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "fsp") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_IncludeDirectoryOrderAndMainOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.d", "10-base.yaml"), "global:\n  fps: 60\n  shift: 100\n")
	writeFile(t, filepath.Join(dir, "config.d", "20-override.yaml"), "global:\n  fps: 90\n")

	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"include:",
		"  - config.d",
		"global:",
		"  fps: 120",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Global.FPS != 120 {
		t.Fatalf("expected fps 120, got %v", res.Config.Global.FPS)
	}
	if res.Config.Global.Shift != 100 {
		t.Fatalf("expected shift from include, got %v", res.Config.Global.Shift)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %v", res.Files)
	}
}

func TestLoadFromPath_IncludeMissingPathHasContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "include:\n  - missing.yaml\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "include") || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected include error, got %v", err)
	}
	if !strings.Contains(err.Error(), path+":") {
		t.Fatalf("expected error to include file:line:col prefix, got %v", err)
	}
}

func TestLoadFromPath_IncludeCycleDetection(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, filepath.Join(dir, "b.yaml"), "include: a.yaml\n")

	_, err := LoadFromPath(a)
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	if !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestLoadFromPath_ModeWeightsAndExplicitOverride(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		workspace float64
		cursor    float64
	}{
		{"hybrid defaults", "parallax:\n  mode: hybrid\n", 0.7, 0.3},
		{"cursor defaults", "parallax:\n  mode: cursor\n", 0, 1},
		{
			"explicit weight wins",
			"parallax:\n  mode: hybrid\n  sources:\n    cursor:\n      weight: 0.5\n",
			0.7, 0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.data)

			res, err := LoadFromPath(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			s := res.Config.Parallax.Sources
			if fmt.Sprintf("%.2f/%.2f", s.Workspace.Weight, s.Cursor.Weight) != fmt.Sprintf("%.2f/%.2f", tt.workspace, tt.cursor) {
				t.Fatalf("weights = %v/%v, want %v/%v", s.Workspace.Weight, s.Cursor.Weight, tt.workspace, tt.cursor)
			}
		})
	}
}

func TestLoadFromPath_LayersScalarAndMapMultiplier(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, `
layers:
  - path: bg/far.png
    shift_multiplier: 0.3
  - path: /abs/near.png
    shift_multiplier: {x: 1.5}
    opacity: 0.8
  - path: mid.png
    shift_multiplier: {x: 0.5, y: 0.2}
    invert:
      cursor:
        y: true
`)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	layers := res.Config.Layers
	if len(layers) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(layers))
	}

	if layers[0].ShiftMultiplier != (Multiplier{X: 0.3, Y: 0.3}) {
		t.Fatalf("scalar multiplier = %+v", layers[0].ShiftMultiplier)
	}
	if layers[0].Opacity != 1 {
		t.Fatalf("expected default opacity 1, got %v", layers[0].Opacity)
	}
	canonDir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}
	if want := filepath.Join(canonDir, "bg", "far.png"); layers[0].Path != want {
		t.Fatalf("relative layer path = %q, want %q", layers[0].Path, want)
	}

	if layers[1].ShiftMultiplier != (Multiplier{X: 1.5, Y: 1.5}) {
		t.Fatalf("single-axis multiplier = %+v", layers[1].ShiftMultiplier)
	}
	if layers[1].Path != "/abs/near.png" || layers[1].Opacity != 0.8 {
		t.Fatalf("layer 1 = %+v", layers[1])
	}

	if layers[2].ShiftMultiplier != (Multiplier{X: 0.5, Y: 0.2}) {
		t.Fatalf("map multiplier = %+v", layers[2].ShiftMultiplier)
	}
	if !layers[2].Invert.Cursor.Y || layers[2].Invert.Cursor.X {
		t.Fatalf("layer invert = %+v", layers[2].Invert)
	}
}

func TestLoadFromPath_IncludedLayersReplacedByMain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), "layers:\n  - path: a.png\n  - path: b.png\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include: base.yaml\nlayers:\n  - path: c.png\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Config.Layers) != 1 || filepath.Base(res.Config.Layers[0].Path) != "c.png" {
		t.Fatalf("layers = %+v", res.Config.Layers)
	}
}

func TestLoadFromPath_ValidationErrorHasSourceContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "global:\n  fps: 0\n")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	if verr.Path != "global.fps" {
		t.Fatalf("expected path global.fps, got %q", verr.Path)
	}
	if verr.Source.Kind != SourceFile || verr.Source.Line != 2 {
		t.Fatalf("expected file source at line 2, got %+v", verr.Source)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected file:line prefix, got %v", err)
	}
}

func TestLoadFromPath_UnknownEasingAndMode(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
	}{
		{"easing", "global:\n  easing: wobble\n", "global.easing"},
		{"cursor easing", "input:\n  cursor:\n    easing: nope\n", "input.cursor.easing"},
		{"mode", "parallax:\n  mode: sideways\n", "parallax.mode"},
		{"model", "compositor:\n  model: cube\n", "compositor.model"},
		{"layer opacity", "layers:\n  - path: a.png\n    opacity: 2\n", "layers.0.opacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeFile(t, path, tt.data)

			_, err := LoadFromPath(path)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("path = %q, want %q", verr.Path, tt.path)
			}
		})
	}
}

func TestLoadFromPath_DebugForcesLogLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "global:\n  debug: true\n  log_level: error\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Global.LogLevel != "debug" {
		t.Fatalf("expected debug log level, got %q", res.Config.Global.LogLevel)
	}
}

func TestExplain_FileAndDefaultSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "global:\n  shift: 200\nlayers:\n  - path: a.png\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	val, src, err := Explain(res, "global.shift")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if fmt.Sprint(val) != "200" {
		t.Fatalf("expected 200, got %#v", val)
	}
	if src.Kind != SourceFile || src.Line != 2 {
		t.Fatalf("expected file source line 2, got %+v", src)
	}

	val, src, err = Explain(res, "global.fps")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if fmt.Sprint(val) != "144" || src.Kind != SourceDefault {
		t.Fatalf("expected default 144, got %#v from %+v", val, src)
	}

	// Defaulted field of a file-declared layer.
	val, src, err = Explain(res, "layers.0.opacity")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if fmt.Sprint(val) != "1" || src.Kind != SourceFile {
		t.Fatalf("expected opacity 1 from file, got %#v from %+v", val, src)
	}

	if _, _, err := Explain(res, "global.nope"); err == nil {
		t.Fatalf("expected unknown path error")
	}
	if _, _, err := Explain(res, "layers.3.path"); err == nil {
		t.Fatalf("expected out-of-range error")
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Global.FPS = 60
	cfg.Parallax.Mode = "hybrid"
	cfg.Layers = []LayerConfig{
		{Path: "/bg/a.png", ShiftMultiplier: Multiplier{X: 0.5, Y: 0.5}, Opacity: 1},
		{Path: "/bg/b.png", ShiftMultiplier: Multiplier{X: 1, Y: 0.25}, Opacity: 0.5},
	}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if res.Config.Global.FPS != 60 || res.Config.Parallax.Mode != "hybrid" {
		t.Fatalf("reloaded = %+v", res.Config.Global)
	}
	if len(res.Config.Layers) != 2 || res.Config.Layers[1].ShiftMultiplier != (Multiplier{X: 1, Y: 0.25}) {
		t.Fatalf("reloaded layers = %+v", res.Config.Layers)
	}
}

func TestSaveTo_RejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Global.Easing = "bouncy-castle"
	if err := cfg.SaveTo(filepath.Join(t.TempDir(), "config.yaml")); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestMonitorShift(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Monitors["DP-1"] = MonitorConfig{Shift: 300}
	cfg.Monitors["HDMI-A-1"] = MonitorConfig{}

	got := cfg.MonitorShift()
	if len(got) != 1 || got["DP-1"] != 300 {
		t.Fatalf("MonitorShift = %v", got)
	}
}
