package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/ipc"
)

type fakeController struct {
	status    engine.Status
	settings  map[string]string
	layers    []engine.LayerStatus
	workspace []ipc.WorkspacePayload
	paused    bool
	reloads   int
	err       error
}

func newFake() *fakeController {
	return &fakeController{settings: map[string]string{"fps": "144"}}
}

func (f *fakeController) GetStatus() (*engine.Status, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &f.status, nil
}

func (f *fakeController) Workspace(p ipc.WorkspacePayload) error {
	f.workspace = append(f.workspace, p)
	return f.err
}

func (f *fakeController) Cursor(x, y float64) error { return f.err }

func (f *fakeController) Set(key, value string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.settings[key] = value
	return value, nil
}

func (f *fakeController) Get(key string) (string, error) {
	v, ok := f.settings[key]
	if !ok {
		return "", errors.New("daemon error: unknown setting")
	}
	return v, nil
}

func (f *fakeController) AddLayer(p ipc.LayerAddPayload) (*engine.LayerStatus, error) {
	l := engine.LayerStatus{ID: uint32(len(f.layers) + 1), Path: p.Path}
	f.layers = append(f.layers, l)
	return &l, nil
}

func (f *fakeController) RemoveLayer(id uint32) error {
	for i, l := range f.layers {
		if l.ID == id {
			f.layers = append(f.layers[:i], f.layers[i+1:]...)
			return nil
		}
	}
	return errors.New("daemon error: layer not found")
}

func (f *fakeController) ModifyLayer(id uint32, property, value string) (*engine.LayerStatus, error) {
	for i := range f.layers {
		if f.layers[i].ID == id {
			if property == "path" {
				f.layers[i].Path = value
			}
			return &f.layers[i], nil
		}
	}
	return nil, errors.New("daemon error: layer not found")
}

func (f *fakeController) ListLayers() ([]engine.LayerStatus, error) { return f.layers, nil }

func (f *fakeController) ClearLayers() (int, error) {
	n := len(f.layers)
	f.layers = nil
	return n, nil
}

func (f *fakeController) Reload() error {
	f.reloads++
	return f.err
}

func (f *fakeController) Pause() error  { f.paused = true; return nil }
func (f *fakeController) Resume() error { f.paused = false; return nil }

func (f *fakeController) TogglePause() (bool, error) {
	f.paused = !f.paused
	return f.paused, nil
}

func newTestServer(ctl Controller) *Server {
	return NewServer(ctl, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleSet_ReadsWithoutValue(t *testing.T) {
	ctl := newFake()
	s := newTestServer(ctl)
	ctx := context.Background()

	_, out, err := s.handleSet(ctx, nil, SetInput{Key: "fps"})
	if err != nil || out.Value != "144" {
		t.Fatalf("read fps = %+v, %v", out, err)
	}

	_, out, err = s.handleSet(ctx, nil, SetInput{Key: " fps ", Value: "60"})
	if err != nil || out.Key != "fps" || out.Value != "60" {
		t.Fatalf("set fps = %+v, %v", out, err)
	}
	if ctl.settings["fps"] != "60" {
		t.Fatalf("controller not updated: %v", ctl.settings)
	}

	if _, _, err := s.handleSet(ctx, nil, SetInput{}); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestHandleLayers_Actions(t *testing.T) {
	ctl := newFake()
	s := newTestServer(ctl)
	ctx := context.Background()

	if _, _, err := s.handleLayers(ctx, nil, LayersInput{Action: "add"}); err == nil {
		t.Fatalf("add without path should fail")
	}
	_, out, err := s.handleLayers(ctx, nil, LayersInput{Action: "add", Path: "/tmp/far.png"})
	if err != nil || len(out.Layers) != 1 || out.Layers[0].ID != 1 {
		t.Fatalf("add = %+v, %v", out, err)
	}
	s.handleLayers(ctx, nil, LayersInput{Action: "add", Path: "/tmp/near.png"})

	_, out, err = s.handleLayers(ctx, nil, LayersInput{Action: "modify", ID: 2, Property: "path", Value: "/tmp/mid.png"})
	if err != nil || out.Layers[0].Path != "/tmp/mid.png" {
		t.Fatalf("modify = %+v, %v", out, err)
	}

	_, out, err = s.handleLayers(ctx, nil, LayersInput{})
	if err != nil || len(out.Layers) != 2 {
		t.Fatalf("list = %+v, %v", out, err)
	}

	if _, _, err := s.handleLayers(ctx, nil, LayersInput{Action: "remove"}); err == nil {
		t.Fatalf("remove without id should fail")
	}
	_, out, err = s.handleLayers(ctx, nil, LayersInput{Action: "CLEAR"})
	if err != nil || out.Removed != 2 {
		t.Fatalf("clear = %+v, %v", out, err)
	}

	_, _, err = s.handleLayers(ctx, nil, LayersInput{Action: "shuffle"})
	if err == nil || !strings.Contains(err.Error(), "unknown action") {
		t.Fatalf("unknown action = %v", err)
	}
}

func TestHandleWorkspace_ForwardsPayload(t *testing.T) {
	ctl := newFake()
	s := newTestServer(ctl)

	if _, _, err := s.handleWorkspace(context.Background(), nil, WorkspaceInput{}); err == nil {
		t.Fatalf("expected error for missing target")
	}
	_, out, err := s.handleWorkspace(context.Background(), nil, WorkspaceInput{To: 4, Monitor: "DP-2"})
	if err != nil || !out.OK {
		t.Fatalf("workspace = %+v, %v", out, err)
	}
	if len(ctl.workspace) != 1 || ctl.workspace[0].To != 4 || ctl.workspace[0].Monitor != "DP-2" {
		t.Fatalf("forwarded = %+v", ctl.workspace)
	}
}

func TestHandlePause_Actions(t *testing.T) {
	ctl := newFake()
	s := newTestServer(ctl)
	ctx := context.Background()

	_, out, _ := s.handlePause(ctx, nil, PauseInput{})
	if !out.Paused || !ctl.paused {
		t.Fatalf("toggle = %+v", out)
	}
	_, out, _ = s.handlePause(ctx, nil, PauseInput{Action: "resume"})
	if out.Paused || ctl.paused {
		t.Fatalf("resume = %+v", out)
	}
	if _, _, err := s.handlePause(ctx, nil, PauseInput{Action: "sleep"}); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestHandlers_PropagateDaemonErrors(t *testing.T) {
	ctl := newFake()
	ctl.err = errors.New("failed to connect to daemon")
	s := newTestServer(ctl)

	if _, _, err := s.handleStatus(context.Background(), nil, StatusInput{}); err == nil {
		t.Fatalf("status should surface the connection error")
	}
	if _, _, err := s.handleReload(context.Background(), nil, ReloadInput{}); err == nil || ctl.reloads != 1 {
		t.Fatalf("reload err=%v reloads=%d", err, ctl.reloads)
	}
}
