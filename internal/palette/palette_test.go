package palette

import (
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/parallaxd/internal/engine"
)

func TestRofiRenderRow_SingleNulSeparator(t *testing.T) {
	l := &launcher{spec: launchers["rofi"]}
	out := l.renderRow(Item{Label: "Layers", IsHeader: true, Icon: "folder", Meta: "bg"})

	if got := strings.Count(out, "\x00"); got != 1 {
		t.Fatalf("NUL separators = %d in %q", got, out)
	}
	if !strings.HasPrefix(out, "<b>Layers</b>\x00nonselectable\x1ftrue") {
		t.Errorf("header row = %q", out)
	}
	if !strings.Contains(out, "icon\x1ffolder") || !strings.Contains(out, "meta\x1fbg") {
		t.Errorf("missing props in %q", out)
	}
}

func TestRofiRenderRow_EscapesMarkup(t *testing.T) {
	l := &launcher{spec: launchers["rofi"]}
	if out := l.renderRow(Item{Label: "a <b> & c"}); out != "a &lt;b&gt; &amp; c" {
		t.Errorf("row = %q", out)
	}
}

func TestRofiArgs_ActiveAndSelectedRows(t *testing.T) {
	l := &launcher{spec: launchers["rofi"]}
	_, hints := l.render([]Item{
		{Label: "title", IsHeader: true},
		{Label: "a"},
		{Label: "b", IsActive: true},
	})
	args := strings.Join(l.spec.args("p", "msg", hints), " ")
	for _, want := range []string{"-format i", "-no-custom", "-a 2", "-selected-row 2", "-mesg msg"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}

func TestLauncherShow_PicksByIndexOrLabel(t *testing.T) {
	items := []Item{{Label: "one", Action: "1"}, {Label: "two", Action: "2"}}

	rofi := &launcher{spec: launchers["rofi"], run: func(string, []string, string) (string, error) { return "1", nil }}
	if got, err := rofi.Show("p", items, ""); err != nil || got.Action != "2" {
		t.Errorf("rofi picked %+v, %v", got, err)
	}

	dmenu := &launcher{spec: launchers["dmenu"], run: func(_ string, _ []string, stdin string) (string, error) {
		if stdin != "one\ntwo" {
			t.Errorf("stdin = %q", stdin)
		}
		return "one", nil
	}}
	if got, err := dmenu.Show("p", items, ""); err != nil || got.Action != "1" {
		t.Errorf("dmenu picked %+v, %v", got, err)
	}

	empty := &launcher{spec: launchers["wofi"], run: func(string, []string, string) (string, error) { return "", nil }}
	if _, err := empty.Show("p", items, ""); !errors.Is(err, ErrCancelled) {
		t.Errorf("empty selection err = %v", err)
	}
}

func TestDisambiguate(t *testing.T) {
	items := []Item{{Label: "x"}, {Label: "x"}, {Label: "x", IsHeader: true}, {Label: "x"}}
	disambiguate(items)
	got := []string{items[0].Label, items[1].Label, items[2].Label, items[3].Label}
	want := []string{"x", "x (2)", "x", "x (3)"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labels = %v, want %v", got, want)
		}
	}
}

// scripted answers each Show call with the item whose label starts with the
// next prefix.
type scripted struct {
	picks   []string
	prompts []string
}

func (s *scripted) Show(prompt string, items []Item, _ string) (Item, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.picks) == 0 {
		return Item{}, ErrCancelled
	}
	next := s.picks[0]
	s.picks = s.picks[1:]
	for _, it := range items {
		if strings.HasPrefix(it.Label, next) {
			return it, nil
		}
	}
	return Item{}, errors.New("no row " + next)
}

func TestMenu_SubmenuAndBack(t *testing.T) {
	status := &engine.Status{Mode: "workspace", Easing: "expo"}
	b := &scripted{picks: []string{"Mode", "← Back", "Mode", "hybrid"}}
	action, err := NewMenu(b, "parallaxd", BuildMenu(status)).Show()
	if err != nil {
		t.Fatal(err)
	}
	if action != "mode:hybrid" {
		t.Errorf("action = %q", action)
	}
	if len(b.prompts) != 4 || b.prompts[1] != "Mode: workspace" {
		t.Errorf("prompts = %v", b.prompts)
	}
}

func TestBuildMenu(t *testing.T) {
	menu := BuildMenu(&engine.Status{Mode: "cursor", Easing: "expo", Paused: true, Layers: []engine.LayerStatus{{ID: 3, Path: "/bg/far.png"}}})
	if menu[0].Action != "resume" {
		t.Errorf("first item = %+v, want resume", menu[0])
	}
	var layers *MenuItem
	for i := range menu {
		if strings.HasPrefix(menu[i].Label, "Layers") {
			layers = &menu[i]
		}
	}
	if layers == nil {
		t.Fatal("no layers submenu")
	}
	if layers.Submenu[1].Action != "layer.remove:3" || layers.Submenu[1].Label != "#3 far.png" {
		t.Errorf("layer entry = %+v", layers.Submenu[1])
	}
	for _, m := range menu[1].Submenu {
		if m.Active != (m.Label == "cursor") {
			t.Errorf("mode %s active = %t", m.Label, m.Active)
		}
	}
}

type fakeController struct {
	set     map[string]string
	removed []uint32
	calls   []string
}

func (f *fakeController) GetStatus() (*engine.Status, error) {
	return &engine.Status{Mode: "workspace", Easing: "expo", Compositor: "sway"}, nil
}

func (f *fakeController) Set(key, value string) (string, error) {
	if f.set == nil {
		f.set = map[string]string{}
	}
	f.set[key] = value
	return value, nil
}

func (f *fakeController) Pause() error  { f.calls = append(f.calls, "pause"); return nil }
func (f *fakeController) Resume() error { f.calls = append(f.calls, "resume"); return nil }
func (f *fakeController) Reload() error { f.calls = append(f.calls, "reload"); return nil }

func (f *fakeController) RemoveLayer(id uint32) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeController) ClearLayers() (int, error) { return 2, nil }

func TestExecute(t *testing.T) {
	f := &fakeController{}
	if out, err := Execute(f, "easing:sine"); err != nil || out != "easing = sine" || f.set["easing"] != "sine" {
		t.Errorf("easing: %q %v %v", out, err, f.set)
	}
	if _, err := Execute(f, "layer.remove:9"); err != nil || len(f.removed) != 1 || f.removed[0] != 9 {
		t.Errorf("remove: %v %v", err, f.removed)
	}
	if out, _ := Execute(f, "layer.clear"); out != "2 layers removed" {
		t.Errorf("clear = %q", out)
	}
	if _, err := Execute(f, "layer.remove:x"); err == nil {
		t.Error("bad id accepted")
	}
	if _, err := Execute(f, "explode"); err == nil {
		t.Error("unknown action accepted")
	}
}

func TestRun_ExecutesChoice(t *testing.T) {
	f := &fakeController{}
	out, err := Run(f, &scripted{picks: []string{"Pause"}})
	if err != nil || out != "paused" || len(f.calls) != 1 {
		t.Fatalf("Run = %q, %v, calls %v", out, err, f.calls)
	}
	if _, err := Run(f, &scripted{}); !errors.Is(err, ErrCancelled) {
		t.Errorf("cancel err = %v", err)
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	if _, err := NewBackend("zenity"); err == nil {
		t.Error("expected error")
	}
}
