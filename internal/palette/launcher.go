package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

// launcherSpec describes how to drive one dmenu-compatible program.
type launcherSpec struct {
	command string
	// byIndex launchers print the chosen row number instead of its text.
	byIndex bool
	markup  bool
	// rowProps launchers understand rofi's "\0key\x1fvalue" row properties.
	rowProps bool
	args     func(prompt, message string, rows rowHints) []string
}

var launchers = map[string]launcherSpec{
	"rofi": {
		command:  "rofi",
		byIndex:  true,
		markup:   true,
		rowProps: true,
		args: func(prompt, message string, rows rowHints) []string {
			args := []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows", "-show-icons"}
			if prompt != "" {
				args = append(args, "-p", prompt)
			}
			if len(rows.active) > 0 {
				args = append(args, "-a", joinInts(rows.active))
			}
			if rows.selected >= 0 {
				args = append(args, "-selected-row", strconv.Itoa(rows.selected))
			}
			if message != "" {
				args = append(args, "-mesg", message)
			}
			return args
		},
	},
	"fuzzel": {
		command: "fuzzel",
		byIndex: true,
		args: func(prompt, _ string, _ rowHints) []string {
			args := []string{"--dmenu", "--index"}
			if prompt != "" {
				args = append(args, "--prompt", prompt+" ")
			}
			return args
		},
	},
	"wofi": {
		command: "wofi",
		args: func(prompt, _ string, _ rowHints) []string {
			args := []string{"--dmenu"}
			if prompt != "" {
				args = append(args, "--prompt", prompt)
			}
			return args
		},
	},
	"dmenu": {
		command: "dmenu",
		args: func(prompt, _ string, _ rowHints) []string {
			args := []string{"-i"}
			if prompt != "" {
				args = append(args, "-p", prompt)
			}
			return args
		},
	},
}

// rowHints are the row indexes rofi highlights and preselects.
type rowHints struct {
	active   []int
	selected int
}

type launcher struct {
	spec launcherSpec
	// run is replaced in tests.
	run func(name string, args []string, stdin string) (string, error)
}

func (l *launcher) Show(prompt string, items []Item, message string) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}
	rows := append([]Item(nil), items...)
	if !l.spec.byIndex {
		disambiguate(rows)
	}
	input, hints := l.render(rows)

	run := l.run
	if run == nil {
		run = runLauncher
	}
	out, err := run(l.spec.command, l.spec.args(prompt, message, hints), input)
	if err != nil {
		return Item{}, err
	}
	if out == "" {
		return Item{}, ErrCancelled
	}
	return l.pick(out, rows)
}

func (l *launcher) render(items []Item) (string, rowHints) {
	hints := rowHints{selected: -1}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = l.renderRow(it)
		if !it.selectable() {
			continue
		}
		if it.IsActive {
			hints.active = append(hints.active, i)
			if hints.selected < 0 {
				hints.selected = i
			}
		}
	}
	if hints.selected < 0 {
		for i, it := range items {
			if it.selectable() {
				hints.selected = i
				break
			}
		}
	}
	return strings.Join(lines, "\n"), hints
}

func (l *launcher) renderRow(it Item) string {
	text := cleanLabel(it.Label)
	if l.spec.markup {
		text = html.EscapeString(text)
		if it.IsHeader {
			text = "<b>" + text + "</b>"
		}
	}
	if !l.spec.rowProps {
		return text
	}

	var props []string
	if it.IsHeader {
		props = append(props, "nonselectable", "true")
	}
	if it.Icon != "" {
		props = append(props, "icon", cleanField(it.Icon))
	}
	if it.Meta != "" {
		props = append(props, "meta", cleanField(it.Meta))
	}
	if len(props) == 0 {
		return text
	}
	// One NUL, then \x1f-separated key/value pairs.
	return text + "\x00" + strings.Join(props, "\x1f")
}

func (l *launcher) pick(out string, items []Item) (Item, error) {
	if l.spec.byIndex {
		if idx, err := strconv.Atoi(out); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, it := range items {
		if cleanLabel(it.Label) == out {
			return it, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", out)
}

// disambiguate suffixes repeated labels for launchers that answer with the
// row text.
func disambiguate(items []Item) {
	seen := make(map[string]int)
	for i := range items {
		if !items[i].selectable() {
			continue
		}
		key := cleanLabel(items[i].Label)
		if n := seen[key]; n > 0 {
			items[i].Label = fmt.Sprintf("%s (%d)", key, n+1)
		}
		seen[key]++
	}
}

func runLauncher(name string, args []string, stdin string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))
	if err == nil {
		return selection, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// 1 is "nothing chosen", 130 is Ctrl+C.
		if code := exitErr.ExitCode(); (code == 1 || code == 130) && selection == "" {
			return "", ErrCancelled
		}
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return "", fmt.Errorf("%s failed: %s", name, msg)
	}
	return "", fmt.Errorf("%s failed: %w", name, err)
}

func cleanLabel(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
}

func cleanField(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\x00", " ", "\x1f", " ", "\r", " ", "\n", " ").Replace(s))
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
