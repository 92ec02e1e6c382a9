// Package tui is the interactive dashboard for a running daemon: live
// status, a command prompt, the layer list and a settings form.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/ipc"
)

// Controller is the subset of ipc.Client the TUI uses.
type Controller interface {
	GetStatus() (*engine.Status, error)
	Workspace(p ipc.WorkspacePayload) error
	Cursor(x, y float64) error
	Set(key, value string) (string, error)
	Get(key string) (string, error)
	RemoveLayer(id uint32) error
	Pause() error
	Resume() error
	Reload() error
}

var _ Controller = (*ipc.Client)(nil)

// TUI runs the dashboard program.
type TUI struct {
	configPath string
	client     Controller
}

// New creates a TUI for the config at configPath (empty for the default)
// talking to the daemon through client.
func New(configPath string, client Controller) *TUI {
	return &TUI{configPath: configPath, client: client}
}

// Run starts the program and blocks until the user quits.
func (t *TUI) Run() error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	p := tea.NewProgram(newModel(t.configPath, t.client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
