package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/parallaxd/internal/config"
)

var errNoChanges = errors.New("no changes to save")

type savePhase int

const (
	saveHidden  savePhase = iota
	savePreview           // diff shown, awaiting confirm
	saveResult
)

type diffKind int

const (
	diffContext diffKind = iota
	diffRemoved
	diffAdded
)

type diffLine struct {
	kind diffKind
	text string
}

// saveOutcome is what confirming the overlay produced.
type saveOutcome struct {
	saveErr   error
	reloadErr error
	reloaded  bool
}

// SaveOverlay previews pending config edits as a YAML diff and, on
// confirm, writes the file and asks the daemon to reload it.
type SaveOverlay struct {
	phase   savePhase
	lines   []diffLine
	outcome saveOutcome
	scroll  int
}

func (s SaveOverlay) Active() bool { return s.phase != saveHidden }

// Saved reports whether the last confirm wrote the file.
func (s SaveOverlay) Saved() bool {
	return s.phase == saveResult && s.outcome.saveErr == nil
}

// Show diffs original against current and opens the preview.
func (s *SaveOverlay) Show(original, current *config.Config) {
	s.outcome = saveOutcome{}
	s.scroll = 0
	s.lines = configDiff(original, current)
	if len(s.lines) == 0 {
		s.outcome.saveErr = errNoChanges
		s.phase = saveResult
		return
	}
	s.phase = savePreview
}

// Update handles a key while the overlay is open. save writes the config;
// reload may be nil when no daemon is reachable.
func (s SaveOverlay) Update(msg tea.Msg, save, reload func() error) SaveOverlay {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s
	}
	if s.phase == saveResult {
		s.phase = saveHidden
		return s
	}
	switch km.String() {
	case "esc", "n":
		s.phase = saveHidden
	case "enter", "y":
		s.outcome = saveOutcome{saveErr: save()}
		if s.outcome.saveErr == nil && reload != nil {
			s.outcome.reloadErr = reload()
			s.outcome.reloaded = s.outcome.reloadErr == nil
		}
		s.phase = saveResult
	case "up", "k":
		if s.scroll > 0 {
			s.scroll--
		}
	case "down", "j":
		if s.scroll < len(s.lines)-1 {
			s.scroll++
		}
	}
	return s
}

func (s SaveOverlay) View(width, height int) string {
	var body string
	boxW := clamp(width-8, 30, 80)
	switch s.phase {
	case savePreview:
		body = s.previewBody(boxW-6, clamp(height-10, 3, height))
	case saveResult:
		body = s.resultBody()
		boxW = clamp(width-8, 30, 60)
	default:
		return ""
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(boxW).
		Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

func (s SaveOverlay) previewBody(innerW, rows int) string {
	addStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	rmStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	ctxStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	off := min(s.scroll, max(len(s.lines)-rows, 0))
	end := min(off+rows, len(s.lines))

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Save config: pending changes"))
	b.WriteString("\n\n")
	for _, l := range s.lines[off:end] {
		text := truncate(l.text, innerW-2)
		switch l.kind {
		case diffAdded:
			b.WriteString(addStyle.Render("+ " + text))
		case diffRemoved:
			b.WriteString(rmStyle.Render("- " + text))
		default:
			b.WriteString(ctxStyle.Render("  " + text))
		}
		b.WriteByte('\n')
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter: save and reload  esc: cancel  j/k: scroll"))
	return b.String()
}

func (s SaveOverlay) resultBody() string {
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

	var msg string
	switch o := s.outcome; {
	case o.saveErr != nil:
		msg = errStyle.Render("Error: " + o.saveErr.Error())
	case o.reloadErr != nil:
		msg = okStyle.Render("Config saved") + "\n" + errStyle.Render("Reload failed: "+o.reloadErr.Error())
	case o.reloaded:
		msg = okStyle.Render("Config saved, daemon reloaded")
	default:
		msg = okStyle.Render("Config saved") + "\n" + dimStyle.Render("daemon not running; changes apply on next start")
	}
	return msg + "\n\n" + dimStyle.Render("press any key to dismiss")
}

// configDiff renders both configs as YAML and returns the changed lines
// with two lines of context, or nil when they are equal.
func configDiff(original, current *config.Config) []diffLine {
	if original == nil || current == nil {
		return nil
	}
	a, err := yaml.Marshal(original)
	if err != nil {
		return nil
	}
	b, err := yaml.Marshal(current)
	if err != nil {
		return nil
	}
	as := strings.TrimSpace(string(a))
	bs := strings.TrimSpace(string(b))
	if as == bs {
		return nil
	}
	return withContext(diffLines(strings.Split(as, "\n"), strings.Split(bs, "\n")), 2)
}

// diffLines is a longest-common-subsequence line diff. The shared prefix and
// suffix are peeled off first so the table only covers the edited region.
func diffLines(a, b []string) []diffLine {
	var head, tail []diffLine
	for len(a) > 0 && len(b) > 0 && a[0] == b[0] {
		head = append(head, diffLine{diffContext, a[0]})
		a, b = a[1:], b[1:]
	}
	for len(a) > 0 && len(b) > 0 && a[len(a)-1] == b[len(b)-1] {
		tail = append([]diffLine{{diffContext, a[len(a)-1]}}, tail...)
		a, b = a[:len(a)-1], b[:len(b)-1]
	}

	m, n := len(a), len(b)
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	out := head
	i, j := 0, 0
	for i < m || j < n {
		switch {
		case i < m && j < n && a[i] == b[j]:
			out = append(out, diffLine{diffContext, a[i]})
			i++
			j++
		case j == n || (i < m && lcs[i+1][j] >= lcs[i][j+1]):
			out = append(out, diffLine{diffRemoved, a[i]})
			i++
		default:
			out = append(out, diffLine{diffAdded, b[j]})
			j++
		}
	}
	return append(out, tail...)
}

// withContext keeps changed lines plus ctx lines around each, marking
// skipped runs with "...".
func withContext(lines []diffLine, ctx int) []diffLine {
	keep := make([]bool, len(lines))
	changed := false
	for i, l := range lines {
		if l.kind == diffContext {
			continue
		}
		changed = true
		for j := max(i-ctx, 0); j <= min(i+ctx, len(lines)-1); j++ {
			keep[j] = true
		}
	}
	if !changed {
		return nil
	}

	var out []diffLine
	gap := false
	for i, l := range lines {
		if !keep[i] {
			gap = true
			continue
		}
		if gap {
			out = append(out, diffLine{diffContext, "..."})
		}
		gap = false
		out = append(out, l)
	}
	if gap {
		out = append(out, diffLine{diffContext, "..."})
	}
	return out
}

// cloneConfig deep-copies cfg through YAML.
func cloneConfig(cfg *config.Config) *config.Config {
	if cfg == nil {
		return nil
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil
	}
	var out config.Config
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil
	}
	return &out
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return min(max(v, lo), hi)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
