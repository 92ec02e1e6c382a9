package engine

import (
	"fmt"

	"github.com/1broseidon/parallaxd/internal/anim"
	"github.com/1broseidon/parallaxd/internal/monitor"
	"github.com/1broseidon/parallaxd/internal/parallax"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

// Op names a control operation.
type Op string

const (
	OpStatus      Op = "status"
	OpMonitors    Op = "monitors"
	OpWorkspace   Op = "workspace"
	OpCursor      Op = "cursor"
	OpLayerAdd    Op = "layer.add"
	OpLayerRemove Op = "layer.remove"
	OpLayerModify Op = "layer.modify"
	OpLayerList   Op = "layer.list"
	OpLayerClear  Op = "layer.clear"
	OpSet         Op = "set"
	OpGet         Op = "get"
	OpCycleMode   Op = "mode.next"
	OpPause       Op = "pause"
	OpResume      Op = "resume"
	OpTogglePause Op = "pause.toggle"
)

// Command is a control request executed on the loop goroutine.
type Command struct {
	Op Op

	Event workspace.Event // OpWorkspace
	X, Y  float64         // OpCursor

	Layer    parallax.Spec // OpLayerAdd
	LayerID  uint32        // OpLayerRemove, OpLayerModify
	Property string        // OpLayerModify
	Key      string        // OpSet, OpGet
	Value    string        // OpSet, OpLayerModify
}

// Execute applies cmd at time now. mutated reports whether visible state may
// have changed and a render should follow.
func (e *Engine) Execute(cmd Command, now float64) (result any, mutated bool, err error) {
	switch cmd.Op {
	case OpStatus:
		return e.Status(), false, nil
	case OpMonitors:
		return e.Status().Monitors, false, nil

	case OpWorkspace:
		if e.paused {
			return nil, false, fmt.Errorf("input handling is paused")
		}
		return nil, e.HandleWorkspaceEvent(cmd.Event, now), nil

	case OpCursor:
		if e.paused {
			return nil, false, fmt.Errorf("input handling is paused")
		}
		return nil, e.SampleCursor(cmd.X, cmd.Y, now), nil

	case OpLayerAdd:
		if cmd.Layer.Path == "" {
			return nil, false, fmt.Errorf("layer path is required")
		}
		l := e.layers.Add(cmd.Layer)
		l.Motion.Set(e.layerTarget(l))
		return layerStatus(l), true, nil

	case OpLayerRemove:
		if !e.layers.Remove(cmd.LayerID) {
			return nil, false, fmt.Errorf("layer %d not found", cmd.LayerID)
		}
		return nil, true, nil

	case OpLayerModify:
		if err := e.layers.Modify(cmd.LayerID, cmd.Property, cmd.Value); err != nil {
			return nil, false, err
		}
		l := e.layers.Get(cmd.LayerID)
		if cmd.Property == "shift_multiplier" || cmd.Property == "shift" ||
			cmd.Property == "shift_multiplier.x" || cmd.Property == "shift_multiplier.y" {
			l.Motion.Retarget(now, e.layerTarget(l), e.cfg.Duration, e.cfg.Easing)
		}
		return layerStatus(l), true, nil

	case OpLayerList:
		return e.Status().Layers, false, nil

	case OpLayerClear:
		n := e.layers.Len()
		e.layers.Clear()
		return map[string]int{"removed": n}, n > 0, nil

	case OpSet:
		if err := e.Set(cmd.Key, cmd.Value); err != nil {
			return nil, false, err
		}
		v, _ := e.Get(cmd.Key)
		return map[string]string{cmd.Key: v}, true, nil

	case OpGet:
		v, err := e.Get(cmd.Key)
		if err != nil {
			return nil, false, err
		}
		return map[string]string{cmd.Key: v}, false, nil

	case OpCycleMode:
		e.setMode(e.cfg.Parallax.Mode.Next())
		return map[string]string{"mode": e.cfg.Parallax.Mode.String()}, true, nil

	case OpPause:
		e.SetPaused(true)
		return nil, false, nil
	case OpResume:
		e.SetPaused(false)
		return nil, false, nil
	case OpTogglePause:
		e.SetPaused(!e.paused)
		return map[string]bool{"paused": e.paused}, false, nil

	default:
		return nil, false, fmt.Errorf("unknown operation %q", cmd.Op)
	}
}

// MonitorStatus is a snapshot of one monitor.
type MonitorStatus struct {
	ID           uint32            `json:"id"`
	Name         string            `json:"name"`
	Geometry     monitor.Geometry  `json:"geometry"`
	Current      workspace.Context `json:"current"`
	Previous     workspace.Context `json:"previous"`
	Offset       anim.Vec          `json:"offset"`
	Shift        float32           `json:"shift"`
	Animating    bool              `json:"animating"`
	Primary      bool              `json:"primary"`
	FramePending bool              `json:"frame_pending"`
}

// LayerStatus is a snapshot of one layer.
type LayerStatus struct {
	ID              uint32          `json:"id"`
	Path            string          `json:"path"`
	Multiplier      anim.Vec        `json:"shift_multiplier"`
	Opacity         float32         `json:"opacity"`
	Blur            float32         `json:"blur"`
	InvertWorkspace parallax.Invert `json:"invert_workspace"`
	InvertCursor    parallax.Invert `json:"invert_cursor"`
	Offset          anim.Vec        `json:"offset"`
	Animating       bool            `json:"animating"`
}

// Status is a snapshot of the whole engine.
type Status struct {
	Compositor string            `json:"compositor"`
	Model      string            `json:"model"`
	Mode       string            `json:"mode"`
	Paused     bool              `json:"paused"`
	Animating  bool              `json:"animating"`
	Frames     uint64            `json:"frames"`
	Timing     Timing            `json:"timing"`
	Shift      float32           `json:"shift"`
	Duration   float64           `json:"duration"`
	Easing     string            `json:"easing"`
	Weights    parallax.Weights  `json:"weights"`
	Cursor     anim.Vec          `json:"cursor"`
	Legacy     workspace.Context `json:"legacy"`
	Monitors   []MonitorStatus   `json:"monitors"`
	Layers     []LayerStatus     `json:"layers"`
}

func layerStatus(l *parallax.Layer) LayerStatus {
	return LayerStatus{
		ID:              l.ID,
		Path:            l.Path,
		Multiplier:      l.Multiplier,
		Opacity:         l.Opacity,
		Blur:            l.Blur,
		InvertWorkspace: l.InvertWorkspace,
		InvertCursor:    l.InvertCursor,
		Offset:          l.Offset(),
		Animating:       l.Motion.Active(),
	}
}

// Status returns a snapshot for control clients.
func (e *Engine) Status() Status {
	st := Status{
		Compositor: e.cfg.Compositor,
		Model:      e.cfg.Model.String(),
		Mode:       e.cfg.Parallax.Mode.String(),
		Paused:     e.paused,
		Animating:  e.Animating(),
		Frames:     e.frames,
		Timing:     e.cfg.Timing,
		Shift:      e.cfg.Shift,
		Duration:   e.cfg.Duration,
		Easing:     e.cfg.Easing.String(),
		Weights:    e.cfg.Parallax.Weights,
		Cursor:     e.cursor.Value(),
		Legacy:     e.legacy,
		Monitors:   make([]MonitorStatus, 0, e.monitors.Len()),
		Layers:     make([]LayerStatus, 0, e.layers.Len()),
	}
	for _, m := range e.monitors.All() {
		st.Monitors = append(st.Monitors, MonitorStatus{
			ID:           m.ID,
			Name:         m.Name,
			Geometry:     m.Geom,
			Current:      m.Current,
			Previous:     m.Previous,
			Offset:       m.Parallax.Value,
			Shift:        e.shiftFor(m),
			Animating:    m.Parallax.Active(),
			Primary:      m.Primary,
			FramePending: m.FramePending,
		})
	}
	for _, l := range e.layers.List() {
		st.Layers = append(st.Layers, layerStatus(l))
	}
	return st
}
