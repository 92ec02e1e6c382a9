package engine

import (
	"github.com/1broseidon/parallaxd/internal/monitor"
	"github.com/1broseidon/parallaxd/internal/parallax"
	"github.com/1broseidon/parallaxd/internal/sink"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

// Render composes the current state into a frame and submits it. With frame
// callbacks enabled every monitor is marked pending until FrameDone.
func (e *Engine) Render(now float64) error {
	if e.monitors.Len() == 0 {
		return ErrNoMonitors
	}

	settings := e.cfg.Parallax
	if settings.CursorShift <= 0 {
		settings.CursorShift = e.cfg.Shift
	}
	cur := e.cursor.Value()

	e.frames++
	frame := sink.Frame{
		Seq:      e.frames,
		Time:     now,
		Monitors: make([]sink.MonitorView, 0, e.monitors.Len()),
		Layers:   make([]sink.LayerView, 0, e.layers.Len()),
	}
	for _, m := range e.monitors.All() {
		frame.Monitors = append(frame.Monitors, sink.MonitorView{
			ID:       m.ID,
			Name:     m.Name,
			Geometry: m.Geom,
			OffsetX:  m.Parallax.Value.X,
			OffsetY:  m.Parallax.Value.Y,
			Primary:  m.Primary,
		})
		if e.cfg.Timing.FrameCallbacks {
			m.FramePending = true
		}
	}
	for _, l := range e.layers.List() {
		off := parallax.Compose(settings, l, cur)
		frame.Layers = append(frame.Layers, sink.LayerView{
			ID:      l.ID,
			Path:    l.Path,
			OffsetX: off.X,
			OffsetY: off.Y,
			Opacity: l.Opacity,
			Blur:    l.Blur,
		})
	}
	return e.sink.Submit(frame)
}

// Frames returns the number of frames rendered.
func (e *Engine) Frames() uint64 { return e.frames }

// FrameDone clears the pending flag of the named monitor, or of every
// monitor when name is empty.
func (e *Engine) FrameDone(name string) {
	for _, m := range e.monitors.All() {
		if name == "" || m.Name == name {
			m.FramePending = false
		}
	}
}

// FrameReady reports whether at least one monitor can take a new frame.
func (e *Engine) FrameReady() bool {
	return e.monitors.AnyFrameReady()
}

// AddMonitor registers an output. Its parallax starts at rest on the
// model's initial workspace.
func (e *Engine) AddMonitor(name string, geom monitor.Geometry, output uint64) *monitor.Monitor {
	if m := e.monitors.ByName(name); m != nil {
		m.Geom = geom
		m.Output = output
		return m
	}
	m := e.monitors.Add(name, geom, output, workspace.Initial(e.cfg.Model), e.cfg.MonitorShift[name])
	m.Parallax.Set(e.monitorTarget(m))
	e.logger.Info("monitor added", "name", name, "width", geom.Width, "height", geom.Height, "primary", m.Primary)
	return m
}

// RemoveMonitor drops the named output.
func (e *Engine) RemoveMonitor(name string) bool {
	m := e.monitors.ByName(name)
	if m == nil {
		return false
	}
	e.monitors.Remove(m.ID)
	e.logger.Info("monitor removed", "name", name, "remaining", e.monitors.Len())
	return true
}

// UpdateMonitor applies a geometry change; an empty name means the primary
// monitor. It reports whether anything changed, which the caller treats as a
// render trigger.
func (e *Engine) UpdateMonitor(name string, geom monitor.Geometry) bool {
	m := e.monitors.Primary()
	if name != "" {
		m = e.monitors.ByName(name)
	}
	if m == nil {
		return false
	}
	if geom.Scale <= 0 {
		geom.Scale = m.Geom.Scale
	}
	if geom.RefreshHz <= 0 {
		geom.RefreshHz = m.Geom.RefreshHz
	}
	if m.Geom == geom {
		return false
	}
	m.Geom = geom
	return true
}
