package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/1broseidon/parallaxd/internal/config"
	"github.com/1broseidon/parallaxd/internal/easing"
)

// settingsForm holds the string-typed form values bound to huh fields.
type settingsForm struct {
	fps      string
	duration string
	shift    string
	easing   string
	mode     string
}

func formFromConfig(cfg *config.Config) settingsForm {
	return settingsForm{
		fps:      formatFloat(cfg.Global.FPS),
		duration: formatFloat(cfg.Global.Duration),
		shift:    formatFloat(cfg.Global.Shift),
		easing:   cfg.Global.Easing,
		mode:     cfg.Parallax.Mode,
	}
}

// apply writes the form into cfg. Values were validated by the form.
func (f settingsForm) apply(cfg *config.Config) error {
	fps, err := strconv.ParseFloat(strings.TrimSpace(f.fps), 64)
	if err != nil {
		return fmt.Errorf("fps: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(f.duration), 64)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	shift, err := strconv.ParseFloat(strings.TrimSpace(f.shift), 64)
	if err != nil {
		return fmt.Errorf("shift: %w", err)
	}
	cfg.Global.FPS = fps
	cfg.Global.Duration = duration
	cfg.Global.Shift = shift
	cfg.Global.Easing = f.easing
	cfg.Parallax.Mode = f.mode
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func numberIn(lo, hi float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if v < lo || v > hi {
			return fmt.Errorf("must be between %g and %g", lo, hi)
		}
		return nil
	}
}

// SettingsTab edits the global animation settings in the loaded config.
// Edits stay in memory until ctrl-s saves them.
type SettingsTab struct {
	cfg     *config.Config
	form    *huh.Form
	values  *settingsForm // huh binds field pointers; shared across copies
	editing bool
	err     error
	width   int
	height  int
}

func NewSettingsTab(cfg *config.Config) SettingsTab {
	return SettingsTab{cfg: cfg}
}

func (t *SettingsTab) startEditing() tea.Cmd {
	v := formFromConfig(t.cfg)
	t.values = &v
	t.err = nil
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("FPS").Value(&t.values.fps).Validate(numberIn(1, 1000)),
			huh.NewInput().Title("Duration (s)").Value(&t.values.duration).Validate(numberIn(0, 60)),
			huh.NewInput().Title("Shift (px)").Value(&t.values.shift).Validate(numberIn(0, 10000)),
			huh.NewSelect[string]().Title("Easing").
				Options(huh.NewOptions(easing.Names()...)...).
				Value(&t.values.easing),
			huh.NewSelect[string]().Title("Mode").
				Options(huh.NewOptions("workspace", "cursor", "hybrid")...).
				Value(&t.values.mode),
		),
	).WithShowHelp(true).WithWidth(max(t.width-4, 30))
	t.editing = true
	return t.form.Init()
}

func (t SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if wm, ok := msg.(tea.WindowSizeMsg); ok {
		t.width = wm.Width
		t.height = wm.Height
		if !t.editing {
			return t, nil
		}
	}

	if !t.editing {
		if km, ok := msg.(tea.KeyMsg); ok && (km.String() == "e" || km.String() == "enter") && t.cfg != nil {
			cmd := t.startEditing()
			return t, cmd
		}
		return t, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		t.editing = false
		t.form = nil
		return t, nil
	}

	model, cmd := t.form.Update(msg)
	if f, ok := model.(*huh.Form); ok {
		t.form = f
	}
	switch t.form.State {
	case huh.StateCompleted:
		t.err = t.values.apply(t.cfg)
		t.editing = false
		t.form = nil
		return t, nil
	case huh.StateAborted:
		t.editing = false
		t.form = nil
		return t, nil
	}
	return t, cmd
}

func (t SettingsTab) View() string {
	if t.cfg == nil {
		return dimStyle.Render("  config could not be loaded")
	}
	if t.editing && t.form != nil {
		return t.form.View()
	}
	g := t.cfg.Global
	row := func(label, value string) string {
		return "  " + labelStyle.Render(label) + valueStyle.Render(value) + "\n"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("  Global") + "\n")
	b.WriteString(row("fps", formatFloat(g.FPS)))
	b.WriteString(row("duration", formatFloat(g.Duration)+"s"))
	b.WriteString(row("shift", formatFloat(g.Shift)+"px"))
	b.WriteString(row("easing", g.Easing))
	b.WriteString(row("mode", t.cfg.Parallax.Mode))
	b.WriteString("\n")
	if t.err != nil {
		b.WriteString("  " + errorStyle.Render(t.err.Error()) + "\n")
	}
	b.WriteString(dimStyle.Render("  e: edit  ctrl-s: save and reload"))
	return b.String()
}
