package daemon

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/parallaxd/internal/anim"
	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/ipc"
	"github.com/1broseidon/parallaxd/internal/parallax"
	"github.com/1broseidon/parallaxd/internal/source"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

// Dispatcher answers control requests on the loop goroutine. It is the
// scheduler's Control source.
type Dispatcher struct {
	server *ipc.Server
	engine *engine.Engine
	// inject receives WORKSPACE requests so they are debounced like
	// compositor events.
	inject *source.Injected
	reload func() error
	clock  func() float64
	logger *slog.Logger
}

// DispatcherConfig wires a Dispatcher.
type DispatcherConfig struct {
	Server *ipc.Server
	Engine *engine.Engine
	Inject *source.Injected
	Reload func() error
	Clock  func() float64
	Logger *slog.Logger
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		server: cfg.Server,
		engine: cfg.Engine,
		inject: cfg.Inject,
		reload: cfg.Reload,
		clock:  cfg.Clock,
		logger: logger,
	}
}

func (d *Dispatcher) Fd() int { return d.server.Fd() }

// ProcessPending drains the control queue and reports whether any request
// changed visible state.
func (d *Dispatcher) ProcessPending() bool {
	owed := false
	d.server.ProcessPending(func(req *ipc.Request) *ipc.Response {
		resp, mutated := d.Handle(req)
		owed = owed || mutated
		return resp
	})
	return owed
}

// Handle executes one request.
func (d *Dispatcher) Handle(req *ipc.Request) (*ipc.Response, bool) {
	switch req.Command {
	case ipc.CommandReload:
		if d.reload == nil {
			return ipc.NewErrorResponse("reload is not supported"), false
		}
		if err := d.reload(); err != nil {
			return ipc.NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err)), false
		}
		return ok(nil), true

	case ipc.CommandWorkspace:
		var p ipc.WorkspacePayload
		if err := req.DecodePayload(&p); err != nil {
			return ipc.NewErrorResponse(err.Error()), false
		}
		if d.engine.Paused() {
			return ipc.NewErrorResponse("input handling is paused"), false
		}
		if !d.inject.Push(workspaceEvent(p)) {
			return ipc.NewErrorResponse("workspace queue is full"), false
		}
		return ok(nil), false
	}

	cmd, err := command(req)
	if err != nil {
		return ipc.NewErrorResponse(err.Error()), false
	}
	result, mutated, err := d.engine.Execute(cmd, d.clock())
	if err != nil {
		return ipc.NewErrorResponse(err.Error()), false
	}

	switch cmd.Op {
	case engine.OpSet, engine.OpGet:
		if kv, isMap := result.(map[string]string); isMap {
			result = ipc.KeyValue{Key: cmd.Key, Value: kv[cmd.Key]}
		}
	}
	if mutated {
		d.logger.Debug("control command applied", "command", req.Command)
	}
	return ok(result), mutated
}

func ok(data any) *ipc.Response {
	resp, err := ipc.NewOKResponse(data)
	if err != nil {
		return ipc.NewErrorResponse(err.Error())
	}
	return resp
}

// command translates a request that maps one-to-one onto an engine
// operation.
func command(req *ipc.Request) (engine.Command, error) {
	switch req.Command {
	case ipc.CommandGetStatus:
		return engine.Command{Op: engine.OpStatus}, nil
	case ipc.CommandGetMonitors:
		return engine.Command{Op: engine.OpMonitors}, nil
	case ipc.CommandLayerList:
		return engine.Command{Op: engine.OpLayerList}, nil
	case ipc.CommandLayerClear:
		return engine.Command{Op: engine.OpLayerClear}, nil
	case ipc.CommandPause:
		return engine.Command{Op: engine.OpPause}, nil
	case ipc.CommandResume:
		return engine.Command{Op: engine.OpResume}, nil
	case ipc.CommandToggleMode:
		return engine.Command{Op: engine.OpCycleMode}, nil
	case ipc.CommandTogglePause:
		return engine.Command{Op: engine.OpTogglePause}, nil

	case ipc.CommandCursor:
		var p ipc.CursorPayload
		if err := req.DecodePayload(&p); err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Op: engine.OpCursor, X: p.X, Y: p.Y}, nil

	case ipc.CommandSet:
		var p ipc.SetPayload
		if err := req.DecodePayload(&p); err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Op: engine.OpSet, Key: p.Key, Value: p.Value}, nil

	case ipc.CommandGet:
		var p ipc.GetPayload
		if err := req.DecodePayload(&p); err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Op: engine.OpGet, Key: p.Key}, nil

	case ipc.CommandLayerAdd:
		var p ipc.LayerAddPayload
		if err := req.DecodePayload(&p); err != nil {
			return engine.Command{}, err
		}
		spec, err := layerSpec(p)
		if err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Op: engine.OpLayerAdd, Layer: spec}, nil

	case ipc.CommandLayerRemove:
		var p ipc.LayerIDPayload
		if err := req.DecodePayload(&p); err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Op: engine.OpLayerRemove, LayerID: p.ID}, nil

	case ipc.CommandLayerModify:
		var p ipc.LayerModifyPayload
		if err := req.DecodePayload(&p); err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Op: engine.OpLayerModify, LayerID: p.ID, Property: p.Property, Value: p.Value}, nil

	default:
		return engine.Command{}, fmt.Errorf("unknown command: %s", req.Command)
	}
}

func layerSpec(p ipc.LayerAddPayload) (parallax.Spec, error) {
	spec := parallax.Spec{
		Path:       p.Path,
		Multiplier: anim.Vec{X: 1, Y: 1},
		Opacity:    1,
		Blur:       p.Blur,
	}
	if p.ShiftMultiplier != "" {
		m, err := parallax.ParseMultiplier(p.ShiftMultiplier)
		if err != nil {
			return parallax.Spec{}, err
		}
		spec.Multiplier = m
	}
	if p.Opacity != nil {
		if *p.Opacity < 0 || *p.Opacity > 1 {
			return parallax.Spec{}, fmt.Errorf("opacity must be within [0, 1]")
		}
		spec.Opacity = *p.Opacity
	}
	if p.Blur < 0 {
		return parallax.Spec{}, fmt.Errorf("blur must be >= 0")
	}
	return spec, nil
}

func workspaceEvent(p ipc.WorkspacePayload) workspace.Event {
	return workspace.Event{
		FromID:     p.From,
		ToID:       p.To,
		FromXY:     workspace.Point{X: p.FromX, Y: p.FromY},
		ToXY:       workspace.Point{X: p.ToX, Y: p.ToY},
		Tags:       p.Tags,
		FocusedTag: p.FocusedTag,
		Monitor:    p.Monitor,
	}
}
