package main

import (
	"log/slog"
	"testing"

	"github.com/1broseidon/parallaxd/internal/config"
)

func TestParseWorkspaceArgs(t *testing.T) {
	p, err := parseWorkspaceArgs([]string{"--from", "1", "--monitor", "DP-1", "3"})
	if err != nil {
		t.Fatal(err)
	}
	if p.To != 3 || p.From != 1 || p.Monitor != "DP-1" {
		t.Errorf("payload = %+v", p)
	}

	p, err = parseWorkspaceArgs([]string{"--from", "0,0", "2,1"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ToX != 2 || p.ToY != 1 || p.FromX != 0 || p.To != 0 {
		t.Errorf("grid payload = %+v", p)
	}

	p, err = parseWorkspaceArgs([]string{"--tags", "6", "--focused-tag", "4", "0"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Tags != 6 || p.FocusedTag != 4 {
		t.Errorf("tag payload = %+v", p)
	}

	for _, bad := range [][]string{{}, {"x"}, {"1", "2"}, {"1,y"}, {"--from", "z", "1"}} {
		if _, err := parseWorkspaceArgs(bad); err == nil {
			t.Errorf("args %v: expected error", bad)
		}
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		g    config.GlobalConfig
		want slog.Level
	}{
		{config.GlobalConfig{LogLevel: "info"}, slog.LevelInfo},
		{config.GlobalConfig{LogLevel: "warning"}, slog.LevelWarn},
		{config.GlobalConfig{LogLevel: "error"}, slog.LevelError},
		{config.GlobalConfig{LogLevel: "debug"}, slog.LevelDebug},
		{config.GlobalConfig{LogLevel: "error", Debug: true}, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := logLevel(tt.g); got != tt.want {
			t.Errorf("logLevel(%+v) = %v, want %v", tt.g, got, tt.want)
		}
	}
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		src  config.Source
		want string
	}{
		{config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}, "file:/c.yaml:3:5"},
		{config.Source{Kind: config.SourceFile, File: "/c.yaml"}, "file:/c.yaml"},
		{config.Source{Kind: config.SourceDefault, Name: "defaults"}, "default:defaults"},
		{config.Source{Kind: config.SourceDefault}, "default"},
	}
	for _, tt := range tests {
		if got := formatSource(tt.src); got != tt.want {
			t.Errorf("formatSource(%+v) = %q, want %q", tt.src, got, tt.want)
		}
	}
}
