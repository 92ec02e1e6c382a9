package workspace

import (
	"math"
	"testing"
)

func TestCalculateDelta_GlobalNumeric(t *testing.T) {
	got := CalculateDelta(Global(1), Global(3), 150)
	if got != 300 {
		t.Fatalf("delta = %v, want 300", got)
	}
	if got := CalculateDelta(Global(4), Global(2), 100); got != -200 {
		t.Fatalf("reverse delta = %v, want -200", got)
	}
}

func TestCalculateDelta_Deterministic(t *testing.T) {
	prev, next := Grid(2, 3), Grid(5, 1)
	a := CalculateDelta(prev, next, 137.25)
	b := CalculateDelta(prev, next, 137.25)
	if math.Float32bits(a) != math.Float32bits(b) {
		t.Fatalf("non-deterministic delta: %v vs %v", a, b)
	}
}

func TestCalculateDelta_ModelMismatchIsZero(t *testing.T) {
	if got := CalculateDelta(Global(1), Grid(3, 1), 100); got != 0 {
		t.Fatalf("delta across models = %v, want 0", got)
	}
}

func TestDelta2D_GridAxes(t *testing.T) {
	dx, dy := Delta2D(Grid(1, 1), Grid(3, 2), 100)
	if dx != 200 || dy != 100 {
		t.Fatalf("Delta2D = (%v,%v), want (200,100)", dx, dy)
	}
}

func TestDelta2D_SetBasedSetChangeMovesVertically(t *testing.T) {
	dx, dy := Delta2D(Set(1, 3), Set(2, 3), 50)
	if dx != 0 || dy != 50 {
		t.Fatalf("Delta2D = (%v,%v), want (0,50)", dx, dy)
	}
	dx, dy = Delta2D(Set(1, 1), Set(1, 4), 50)
	if dx != 150 || dy != 0 {
		t.Fatalf("same-set Delta2D = (%v,%v), want (150,0)", dx, dy)
	}
}

func TestDelta2D_SetBasedMatchesPosition(t *testing.T) {
	var m Motion
	prev, next := Set(1, 1), Set(2, 3)
	dx, dy := m.Delta2D(prev, next, 50)
	px0, py0 := m.Position(prev)
	px1, py1 := m.Position(next)
	if dx != (px1-px0)*50 || dy != (py1-py0)*50 {
		t.Fatalf("Delta2D = (%v,%v), position moved (%v,%v) steps", dx, dy, px1-px0, py1-py0)
	}
	if d := m.Delta(prev, next, 50); d != 0 {
		t.Fatalf("scalar Delta across sets = %v, want 0", d)
	}
}

func TestMotion_TagPolicies(t *testing.T) {
	prev := Tags(0b0001, 0b0001)
	next := Tags(0b0110, 0b0010)

	cases := []struct {
		policy TagPolicy
		want   float32
	}{
		{TagFocused, 10},   // tag 1 -> tag 2
		{TagLowest, 10},    // lowest visible: 1 -> 2
		{TagHighest, 20},   // highest visible: 1 -> 3
		{TagNoParallax, 0}, // two tags visible after the change
	}
	for _, tc := range cases {
		got := Motion{Policy: tc.policy}.Delta(prev, next, 10)
		if got != tc.want {
			t.Errorf("%s: delta = %v, want %v", tc.policy, got, tc.want)
		}
	}
}

func TestPosition_AbsoluteFromBase(t *testing.T) {
	m := Motion{}
	if px, py := m.Position(Global(3)); px != 2 || py != 0 {
		t.Fatalf("Position(global 3) = (%v,%v)", px, py)
	}
	if px, py := m.Position(Grid(2, 3)); px != 1 || py != 2 {
		t.Fatalf("Position(grid 2,3) = (%v,%v)", px, py)
	}
	if px, _ := m.Position(Tags(0b100, 0)); px != 2 {
		t.Fatalf("Position(tag 3) = %v", px)
	}
}

func TestLinearize_Grid(t *testing.T) {
	if got := Linearize(Grid(2, 1)); got != 1002 {
		t.Fatalf("Linearize(2,1) = %d, want 1002", got)
	}
	if got := Linearize(Global(7)); got != 7 {
		t.Fatalf("Linearize(global 7) = %d", got)
	}
}

func TestContext_Equal(t *testing.T) {
	if !Global(2).Equal(Global(2)) {
		t.Fatalf("equal globals reported different")
	}
	if Global(2).Equal(Grid(2, 0)) {
		t.Fatalf("different models reported equal")
	}
	if Grid(1, 2).Equal(Grid(2, 1)) {
		t.Fatalf("transposed grid reported equal")
	}
}

func TestCompare_Orders(t *testing.T) {
	if Compare(Global(1), Global(2)) >= 0 {
		t.Fatalf("expected 1 < 2")
	}
	if Compare(Set(1, 9), Set(2, 1)) >= 0 {
		t.Fatalf("expected set 1 before set 2")
	}
	if Compare(Grid(1, 1), Grid(1, 1)) != 0 {
		t.Fatalf("expected equal")
	}
}

func TestDetectModel(t *testing.T) {
	cases := map[Compositor]Model{
		Hyprland: GlobalNumeric,
		Sway:     GlobalNumeric,
		River:    TagBased,
		Niri:     PerOutputNumeric,
		Wayfire:  PerOutputNumeric,
		X11:      GlobalNumeric,
		Generic:  GlobalNumeric,
	}
	for c, want := range cases {
		if got := DetectModel(c); got != want {
			t.Errorf("DetectModel(%s) = %s, want %s", c, got, want)
		}
	}
}

func TestDetectCompositor_Env(t *testing.T) {
	env := map[string]string{"SWAYSOCK": "/run/user/1000/sway.sock"}
	got := DetectCompositorEnv(func(k string) string { return env[k] })
	if got != Sway {
		t.Fatalf("detect = %s, want sway", got)
	}

	env = map[string]string{"XDG_CURRENT_DESKTOP": "river", "WAYLAND_DISPLAY": "wayland-1"}
	if got := DetectCompositorEnv(func(k string) string { return env[k] }); got != River {
		t.Fatalf("detect = %s, want river", got)
	}

	env = map[string]string{"DISPLAY": ":0"}
	if got := DetectCompositorEnv(func(k string) string { return env[k] }); got != X11 {
		t.Fatalf("detect = %s, want x11", got)
	}
}

func TestResolve_2DUnderGlobalFallsBackToSet(t *testing.T) {
	ev := Event{ToXY: Point{X: 2, Y: 3}}
	ctx, fallback := Resolve(GlobalNumeric, ev)
	if !fallback {
		t.Fatalf("expected fallback")
	}
	if ctx != Set(3, 2) {
		t.Fatalf("ctx = %v, want set 3 index 2", ctx)
	}
}

func TestResolve_LinearAndGrid(t *testing.T) {
	if ctx, fb := Resolve(GlobalNumeric, Event{FromID: 1, ToID: 4}); fb || ctx != Global(4) {
		t.Fatalf("linear resolve = %v fallback=%v", ctx, fb)
	}
	if ctx, fb := Resolve(PerOutputNumeric, Event{ToXY: Point{X: 2, Y: 1}}); fb || ctx != Grid(2, 1) {
		t.Fatalf("grid resolve = %v fallback=%v", ctx, fb)
	}
}
