package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/parallaxd/internal/config"
	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/ipc"
)

type fakeController struct {
	calls     []string
	workspace ipc.WorkspacePayload
	values    map[string]string
	removed   []uint32
	err       error
}

func (f *fakeController) record(s string) error {
	f.calls = append(f.calls, s)
	return f.err
}

func (f *fakeController) GetStatus() (*engine.Status, error) {
	return &engine.Status{Mode: "workspace"}, f.record("status")
}

func (f *fakeController) Workspace(p ipc.WorkspacePayload) error {
	f.workspace = p
	return f.record("workspace")
}

func (f *fakeController) Cursor(x, y float64) error { return f.record("cursor") }

func (f *fakeController) Set(key, value string) (string, error) {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return value, f.record("set " + key)
}

func (f *fakeController) Get(key string) (string, error) {
	return f.values[key], f.record("get " + key)
}

func (f *fakeController) RemoveLayer(id uint32) error {
	f.removed = append(f.removed, id)
	return f.record("remove")
}

func (f *fakeController) Pause() error  { return f.record("pause") }
func (f *fakeController) Resume() error { return f.record("resume") }
func (f *fakeController) Reload() error { return f.record("reload") }

func TestRunCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    string
		call    string
		wantErr string
	}{
		{line: "workspace 3", want: "workspace 3 queued", call: "workspace"},
		{line: "ws 2 DP-1", want: "workspace 2 queued", call: "workspace"},
		{line: "mode hybrid", want: "mode = hybrid", call: "set mode"},
		{line: "set shift 200", want: "shift = 200", call: "set shift"},
		{line: "cursor 10 20", want: "cursor 10,20", call: "cursor"},
		{line: "pause", want: "paused", call: "pause"},
		{line: "layer remove 4", want: "layer 4 removed", call: "remove"},
		{line: "workspace x", wantErr: "invalid workspace"},
		{line: "cursor 1", wantErr: "usage: cursor"},
		{line: "layer drop 4", wantErr: "usage: layer"},
		{line: "teleport", wantErr: "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			f := &fakeController{}
			got, err := runCommand(f, tt.line)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				if len(f.calls) != 0 {
					t.Fatalf("calls = %v, want none", f.calls)
				}
				return
			}
			if err != nil {
				t.Fatalf("runCommand: %v", err)
			}
			if got != tt.want {
				t.Errorf("result = %q, want %q", got, tt.want)
			}
			if len(f.calls) != 1 || f.calls[0] != tt.call {
				t.Errorf("calls = %v, want [%s]", f.calls, tt.call)
			}
		})
	}
}

func TestRunCommand_WorkspaceMonitor(t *testing.T) {
	f := &fakeController{}
	if _, err := runCommand(f, "workspace 5 HDMI-A-1"); err != nil {
		t.Fatal(err)
	}
	if f.workspace.To != 5 || f.workspace.Monitor != "HDMI-A-1" {
		t.Errorf("payload = %+v", f.workspace)
	}
}

func TestRunCommand_PropagatesDaemonError(t *testing.T) {
	f := &fakeController{err: errors.New("daemon not running")}
	if _, err := runCommand(f, "reload"); err == nil {
		t.Fatal("expected error")
	}
}

func TestConfigDiff(t *testing.T) {
	a := config.DefaultConfig()
	b := cloneConfig(a)
	if b == nil {
		t.Fatal("clone failed")
	}
	if lines := configDiff(a, b); lines != nil {
		t.Fatalf("identical configs diffed: %v", lines)
	}

	b.Global.Shift = 321
	lines := configDiff(a, b)
	var added, removed int
	for _, l := range lines {
		switch l.kind {
		case diffAdded:
			added++
			if !strings.Contains(l.text, "321") {
				t.Errorf("added line %q", l.text)
			}
		case diffRemoved:
			removed++
		}
	}
	if added != 1 || removed != 1 {
		t.Errorf("added=%d removed=%d, want 1/1: %v", added, removed, lines)
	}
}

func TestDiffLines_ContextAndGaps(t *testing.T) {
	a := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	b := []string{"a", "b", "c", "d", "e", "f", "g", "X"}
	got := withContext(diffLines(a, b), 1)
	want := []diffLine{
		{diffContext, "..."},
		{diffContext, "g"},
		{diffRemoved, "h"},
		{diffAdded, "X"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDiffLines_MarksBothElidedEnds(t *testing.T) {
	a := []string{"a", "b", "c", "d", "e", "f", "g"}
	b := []string{"a", "b", "c", "X", "e", "f", "g"}
	got := withContext(diffLines(a, b), 1)
	want := []diffLine{
		{diffContext, "..."},
		{diffContext, "c"},
		{diffRemoved, "d"},
		{diffAdded, "X"},
		{diffContext, "e"},
		{diffContext, "..."},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSettingsForm_Apply(t *testing.T) {
	cfg := config.DefaultConfig()
	f := formFromConfig(cfg)
	f.fps = "60"
	f.duration = "0.5"
	f.shift = "42"
	f.mode = "hybrid"
	if err := f.apply(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Global.FPS != 60 || cfg.Global.Duration != 0.5 || cfg.Global.Shift != 42 || cfg.Parallax.Mode != "hybrid" {
		t.Errorf("global = %+v mode = %s", cfg.Global, cfg.Parallax.Mode)
	}

	f.fps = "fast"
	if err := f.apply(cfg); err == nil {
		t.Error("expected parse error")
	}
	if err := numberIn(1, 1000)("0"); err == nil {
		t.Error("0 fps accepted")
	}
}

func TestLayersTab_KeepsSelection(t *testing.T) {
	tab := NewLayersTab(nil)
	tab.SetLayers([]engine.LayerStatus{{ID: 1}, {ID: 2}, {ID: 3}})
	tab.list.Select(2)
	tab.SetLayers([]engine.LayerStatus{{ID: 2}, {ID: 3}})

	it, ok := tab.list.SelectedItem().(layerItem)
	if !ok || it.layer.ID != 3 {
		t.Fatalf("selected = %+v, want layer 3", tab.list.SelectedItem())
	}
}

func TestModel_StatusAndNotice(t *testing.T) {
	f := &fakeController{}
	m := newModel(t.TempDir()+"/missing.yaml", f)

	next, _ := m.Update(statusMsg{status: &engine.Status{Mode: "cursor", Layers: []engine.LayerStatus{{ID: 7}}}})
	m = next.(model)
	if m.status == nil || m.status.Mode != "cursor" {
		t.Fatalf("status not stored: %+v", m.status)
	}
	if n := len(m.layersTab.list.Items()); n != 1 {
		t.Errorf("layer items = %d, want 1", n)
	}

	next, _ = m.Update(commandResultMsg{err: errors.New("boom")})
	m = next.(model)
	if !strings.Contains(m.notice, "boom") {
		t.Errorf("notice = %q", m.notice)
	}
	next, _ = m.Update(clearNoticeMsg{seq: m.noticeSeq})
	if next.(model).notice != "" {
		t.Error("notice not cleared")
	}

	next, _ = m.Update(statusMsg{err: errors.New("no socket")})
	if next.(model).status != nil {
		t.Error("status kept after connection error")
	}
}

func TestModel_TabSwitching(t *testing.T) {
	m := newModel(t.TempDir()+"/missing.yaml", nil)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	if got := next.(model).activeTab; got != TabSettings {
		t.Errorf("activeTab = %v, want Settings", got)
	}
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := next.(model).activeTab; got != TabStatus {
		t.Errorf("activeTab = %v, want Status", got)
	}
}
