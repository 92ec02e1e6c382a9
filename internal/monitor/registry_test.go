package monitor

import (
	"testing"

	"github.com/1broseidon/parallaxd/internal/workspace"
)

func addN(r *Registry, names ...string) {
	x := 0
	for _, n := range names {
		r.Add(n, Geometry{X: x, Width: 1920, Height: 1080}, 0, workspace.Global(1), 150)
		x += 1920
	}
}

func TestRegistry_FirstAddedIsPrimary(t *testing.T) {
	r := NewRegistry()
	addN(r, "DP-1", "HDMI-A-1")

	p := r.Primary()
	if p == nil || p.Name != "DP-1" {
		t.Fatalf("primary = %+v, want DP-1", p)
	}
	if r.ByName("HDMI-A-1").Primary {
		t.Fatalf("second monitor should not be primary")
	}
	if p.ID != 1 || r.ByName("HDMI-A-1").ID != 2 {
		t.Fatalf("ids should start at 1 and increase")
	}
}

func TestRegistry_Defaults(t *testing.T) {
	r := NewRegistry()
	m := r.Add("eDP-1", Geometry{Width: 100, Height: 100}, 7, workspace.Global(1), 200)
	if m.Geom.Scale != 1 || m.Geom.RefreshHz != 60 {
		t.Fatalf("defaults = %+v", m.Geom)
	}
	if r.ByOutput(7) != m {
		t.Fatalf("ByOutput lookup failed")
	}
	if r.ByID(m.ID) != m {
		t.Fatalf("ByID lookup failed")
	}
}

func TestRegistry_RemovePrimaryPromotesHead(t *testing.T) {
	r := NewRegistry()
	addN(r, "A", "B", "C")

	if !r.Remove(r.ByName("A").ID) {
		t.Fatalf("remove failed")
	}
	p := r.Primary()
	if p == nil || p.Name != "B" {
		t.Fatalf("primary after removal = %+v, want B", p)
	}
	if r.Len() != 2 {
		t.Fatalf("len = %d", r.Len())
	}
}

func TestRegistry_RemoveNonPrimaryKeepsPrimary(t *testing.T) {
	r := NewRegistry()
	addN(r, "A", "B")
	r.Remove(r.ByName("B").ID)
	if p := r.Primary(); p == nil || p.Name != "A" {
		t.Fatalf("primary = %+v", p)
	}
	if r.Remove(99) {
		t.Fatalf("removing unknown id should report false")
	}
}

func TestRegistry_ResolveFallbackOrder(t *testing.T) {
	r := NewRegistry()
	if m, how := r.Resolve("DP-1"); m != nil || how != ResolvedNone {
		t.Fatalf("empty registry resolved %v via %s", m, how)
	}

	addN(r, "A", "B")
	if m, how := r.Resolve("B"); m.Name != "B" || how != ResolvedByName {
		t.Fatalf("by name: %s via %s", m.Name, how)
	}
	if m, how := r.Resolve("missing"); m.Name != "A" || how != ResolvedPrimary {
		t.Fatalf("fallback: %s via %s", m.Name, how)
	}

	r.ByName("A").Primary = false
	if m, how := r.Resolve(""); m.Name != "A" || how != ResolvedHead {
		t.Fatalf("head fallback: %s via %s", m.Name, how)
	}
}

func TestRegistry_AtAndBounds(t *testing.T) {
	r := NewRegistry()
	addN(r, "A", "B")
	if m := r.At(2000, 10); m == nil || m.Name != "B" {
		t.Fatalf("At(2000,10) = %+v", m)
	}
	if m := r.At(-5, 10); m != nil {
		t.Fatalf("At outside = %+v", m)
	}
	b := r.Bounds()
	if b.Width != 3840 || b.Height != 1080 {
		t.Fatalf("bounds = %+v", b)
	}
}

func TestRegistry_FrameReady(t *testing.T) {
	r := NewRegistry()
	addN(r, "A", "B")
	for _, m := range r.All() {
		m.FramePending = true
	}
	if r.AnyFrameReady() {
		t.Fatalf("all pending should not be ready")
	}
	r.ByName("B").FramePending = false
	if !r.AnyFrameReady() {
		t.Fatalf("expected ready")
	}
}
