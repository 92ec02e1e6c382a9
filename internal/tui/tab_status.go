package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/parallaxd/internal/engine"
)

// commandResultMsg carries the outcome of a prompt command.
type commandResultMsg struct {
	text string
	err  error
}

// StatusTab shows the live engine snapshot and hosts the command prompt.
type StatusTab struct {
	client    Controller
	status    *engine.Status
	prompt    textinput.Model
	prompting bool
	width     int
	height    int
}

func NewStatusTab(client Controller) StatusTab {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "workspace 3, mode hybrid, set shift 200, pause"
	ti.CharLimit = 128
	return StatusTab{client: client, prompt: ti}
}

func (t *StatusTab) SetStatus(s *engine.Status) { t.status = s }

func (t StatusTab) Update(msg tea.Msg) (StatusTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		t.prompt.Width = max(msg.Width-6, 10)
		return t, nil

	case tea.KeyMsg:
		if !t.prompting {
			if msg.String() == ":" || msg.String() == "/" || msg.String() == "enter" {
				t.prompting = true
				cmd := t.prompt.Focus()
				return t, cmd
			}
			return t, nil
		}
		switch msg.String() {
		case "esc":
			t.prompting = false
			t.prompt.Blur()
			t.prompt.Reset()
			return t, nil
		case "enter":
			line := t.prompt.Value()
			t.prompting = false
			t.prompt.Blur()
			t.prompt.Reset()
			if strings.TrimSpace(line) == "" || t.client == nil {
				return t, nil
			}
			client := t.client
			return t, func() tea.Msg {
				text, err := runCommand(client, line)
				return commandResultMsg{text: text, err: err}
			}
		}
	}

	if t.prompting {
		var cmd tea.Cmd
		t.prompt, cmd = t.prompt.Update(msg)
		return t, cmd
	}
	return t, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func (t StatusTab) View() string {
	var b strings.Builder
	if t.status == nil {
		b.WriteString(dimStyle.Render("  waiting for daemon..."))
		b.WriteString("\n\n")
	} else {
		b.WriteString(renderEngine(t.status))
		b.WriteString("\n")
		b.WriteString(renderMonitors(t.status.Monitors))
		b.WriteString("\n")
	}

	if t.prompting {
		b.WriteString("  " + t.prompt.View())
	} else {
		b.WriteString(dimStyle.Render("  : or enter to type a command"))
	}
	return b.String()
}

func renderEngine(s *engine.Status) string {
	row := func(label, value string) string {
		return "  " + labelStyle.Render(label) + valueStyle.Render(value) + "\n"
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("  Engine") + "\n")
	b.WriteString(row("compositor", s.Compositor+" ("+s.Model+")"))
	b.WriteString(row("mode", s.Mode))
	b.WriteString(row("animation", fmt.Sprintf("%s over %.2fs, shift %.0fpx", s.Easing, s.Duration, s.Shift)))
	b.WriteString(row("timing", fmt.Sprintf("%.0f fps, idle %.1f Hz, debounce %.0f ms", s.Timing.FPS, s.Timing.IdlePollRate, s.Timing.Debounce*1000)))
	b.WriteString(row("cursor", fmt.Sprintf("%.2f, %.2f", s.Cursor.X, s.Cursor.Y)))
	b.WriteString(row("frames", fmt.Sprintf("%d", s.Frames)))
	state := "idle"
	switch {
	case s.Paused:
		state = "paused"
	case s.Animating:
		state = activeStyle.Render("animating")
	}
	b.WriteString(row("state", state))
	return b.String()
}

func renderMonitors(monitors []engine.MonitorStatus) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("  Monitors") + "\n")
	if len(monitors) == 0 {
		b.WriteString(dimStyle.Render("  none") + "\n")
		return b.String()
	}
	for _, m := range monitors {
		name := m.Name
		if m.Primary {
			name += "*"
		}
		g := m.Geometry
		line := fmt.Sprintf("  %-12s %dx%d+%d+%d  ws %-8s offset %7.1f,%7.1f",
			name, g.Width, g.Height, g.X, g.Y, m.Current.String(), m.Offset.X, m.Offset.Y)
		if m.Animating {
			line += activeStyle.Render("  ~")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
