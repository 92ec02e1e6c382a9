// Package sink hands computed frames to whatever draws them.
package sink

import (
	"context"
	"errors"
	"log/slog"

	"github.com/1broseidon/parallaxd/internal/monitor"
)

// LayerView is the per-layer draw input for one frame.
type LayerView struct {
	ID      uint32  `json:"id"`
	Path    string  `json:"path"`
	OffsetX float32 `json:"offset_x"`
	OffsetY float32 `json:"offset_y"`
	Opacity float32 `json:"opacity"`
	Blur    float32 `json:"blur"`
}

// MonitorView is the per-monitor viewport for one frame.
type MonitorView struct {
	ID       uint32           `json:"id"`
	Name     string           `json:"name"`
	Geometry monitor.Geometry `json:"geometry"`
	OffsetX  float32          `json:"offset_x"`
	OffsetY  float32          `json:"offset_y"`
	Primary  bool             `json:"primary"`
}

// Frame is everything a renderer needs to draw once.
type Frame struct {
	Seq      uint64        `json:"seq"`
	Time     float64       `json:"time"`
	Monitors []MonitorView `json:"monitors"`
	Layers   []LayerView   `json:"layers"`
}

// FrameSink consumes frames. Submit is called on the loop goroutine and must
// not block.
type FrameSink interface {
	Submit(f Frame) error
	Close() error
}

// Discard drops every frame.
type Discard struct{}

func (Discard) Submit(Frame) error { return nil }
func (Discard) Close() error { return nil }

// LogSink writes a debug line per frame.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Submit(f Frame) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return nil
	}
	attrs := []any{"seq", f.Seq, "monitors", len(f.Monitors), "layers", len(f.Layers)}
	for _, l := range f.Layers {
		attrs = append(attrs, slog.Group("layer", "id", l.ID, "x", l.OffsetX, "y", l.OffsetY))
	}
	logger.Debug("frame", attrs...)
	return nil
}

func (LogSink) Close() error { return nil }

// Multi fans a frame out to several sinks. Every sink sees the frame even if
// an earlier one fails.
type Multi []FrameSink

func (m Multi) Submit(f Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Submit(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
