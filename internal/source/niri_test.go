package source

import (
	"testing"

	"github.com/1broseidon/parallaxd/internal/niri"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

func niriEvent(t *testing.T, line string) niri.Event {
	t.Helper()
	ev, err := niri.ParseEvent([]byte(line))
	if err != nil {
		t.Fatalf("ParseEvent(%s): %v", line, err)
	}
	return ev
}

func TestNiriTracker_GridEvents(t *testing.T) {
	tr := newNiriTracker()

	snapshot := []string{
		`{"WorkspacesChanged":{"workspaces":[` +
			`{"id":1,"idx":1,"output":"DP-1","is_active":true,"is_focused":true},` +
			`{"id":2,"idx":2,"output":"DP-1","is_active":false},` +
			`{"id":3,"idx":1,"output":"HDMI-A-1","is_active":true}]}}`,
		`{"WindowsChanged":{"windows":[{"id":10,"workspace_id":1,"is_focused":true,"layout":{"pos_in_scrolling_layout":[2,1]}}]}}`,
	}
	for _, line := range snapshot {
		if evs := tr.apply(niriEvent(t, line)); len(evs) != 0 {
			t.Fatalf("snapshot %s emitted %+v", line, evs)
		}
	}

	evs := tr.apply(niriEvent(t, `{"WorkspaceActivated":{"id":2,"focused":true}}`))
	want := workspace.Event{
		FromID:  1,
		ToID:    2,
		FromXY:  workspace.Point{X: 2, Y: 1},
		ToXY:    workspace.Point{X: 1, Y: 2},
		Monitor: "DP-1",
	}
	if len(evs) != 1 || evs[0] != want {
		t.Fatalf("WorkspaceActivated = %+v, want %+v", evs, want)
	}

	evs = tr.apply(niriEvent(t, `{"WindowOpenedOrChanged":{"window":{"id":11,"workspace_id":2,"is_focused":true,"layout":{"pos_in_scrolling_layout":[3,1]}}}}`))
	if len(evs) != 1 || evs[0].ToXY != (workspace.Point{X: 3, Y: 2}) || evs[0].FromXY != (workspace.Point{X: 1, Y: 2}) {
		t.Fatalf("column change = %+v", evs)
	}

	// Focus on a window of a hidden workspace moves nothing.
	if evs := tr.apply(niriEvent(t, `{"WindowFocusChanged":{"id":10}}`)); len(evs) != 0 {
		t.Fatalf("hidden workspace focus emitted %+v", evs)
	}
	// Returning to workspace 1 restores its remembered column.
	evs = tr.apply(niriEvent(t, `{"WorkspaceActivated":{"id":1,"focused":true}}`))
	if len(evs) != 1 || evs[0].ToXY != (workspace.Point{X: 2, Y: 1}) {
		t.Fatalf("back to workspace 1 = %+v", evs)
	}
}

func TestNiriTracker_IgnoresNoise(t *testing.T) {
	tr := newNiriTracker()
	tr.apply(niriEvent(t, `{"WorkspacesChanged":{"workspaces":[{"id":1,"idx":1,"output":"DP-1","is_active":true}]}}`))

	for _, line := range []string{
		`{"WorkspaceActivated":{"id":1,"focused":true}}`,
		`{"WorkspaceActivated":{"id":99,"focused":true}}`,
		`{"WindowFocusChanged":{"id":null}}`,
		`{"WindowFocusChanged":{"id":42}}`,
		`{"WindowClosed":{"id":42}}`,
		`{"KeyboardLayoutSwitched":{"idx":1}}`,
	} {
		if evs := tr.apply(niriEvent(t, line)); len(evs) != 0 {
			t.Errorf("%s emitted %+v", line, evs)
		}
	}
}

func TestNiriTracker_EventsResolveToGrid(t *testing.T) {
	tr := newNiriTracker()
	tr.apply(niriEvent(t, `{"WorkspacesChanged":{"workspaces":[{"id":5,"idx":1,"output":"eDP-1","is_active":true},{"id":6,"idx":3,"output":"eDP-1"}]}}`))
	evs := tr.apply(niriEvent(t, `{"WorkspaceActivated":{"id":6,"focused":true}}`))
	if len(evs) != 1 {
		t.Fatalf("events = %+v", evs)
	}
	ctx, fallback := workspace.Resolve(workspace.DetectModel(workspace.Niri), evs[0])
	if fallback || ctx != workspace.Grid(1, 3) {
		t.Fatalf("Resolve = %+v (fallback %v), want grid (1,3)", ctx, fallback)
	}
}
