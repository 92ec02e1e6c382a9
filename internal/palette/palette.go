// Package palette shows daemon controls in a dmenu-style launcher (rofi,
// fuzzel, wofi or dmenu) and runs the chosen action over the control socket.
package palette

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the launcher without
// choosing anything.
var ErrCancelled = errors.New("palette cancelled")

// Item is one row shown by a launcher.
type Item struct {
	Label    string
	Action   string
	Icon     string // icon name, rofi only
	Meta     string // extra search keywords, rofi only
	IsHeader bool   // non-selectable section title
	IsActive bool   // the current value in a choice list
}

func (i Item) selectable() bool { return !i.IsHeader }

// Backend shows items and returns the one the user picked.
type Backend interface {
	Show(prompt string, items []Item, message string) (Item, error)
}

// Backends in detection order.
var backendNames = []string{"rofi", "fuzzel", "wofi", "dmenu"}

// DetectBackend returns the first launcher found in PATH.
func DetectBackend() (string, error) {
	for _, name := range backendNames {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(backendNames, ", "))
}

// NewBackend returns the named launcher; "" and "auto" detect one.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	spec, ok := launchers[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(backendNames, ", "))
	}
	if _, err := exec.LookPath(spec.command); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", name)
	}
	return &launcher{spec: spec}, nil
}
