// Package hyprland talks to a running Hyprland instance over its unix sockets.
package hyprland

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"
)

const requestTimeout = 2 * time.Second

// ErrNotRunning is returned when HYPRLAND_INSTANCE_SIGNATURE is unset.
var ErrNotRunning = errors.New("hyprland: HYPRLAND_INSTANCE_SIGNATURE not set")

// Sockets holds the request socket (.socket.sock) and the event socket
// (.socket2.sock) paths.
type Sockets struct {
	Request string
	Events  string
}

// FindSockets locates the sockets of the current instance. Newer releases use
// $XDG_RUNTIME_DIR/hypr, older ones /tmp/hypr.
func FindSockets() (Sockets, error) {
	return findSockets(os.Getenv, fileExists)
}

func findSockets(getenv func(string) string, exists func(string) bool) (Sockets, error) {
	sig := getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if sig == "" {
		return Sockets{}, ErrNotRunning
	}
	var dirs []string
	if rt := getenv("XDG_RUNTIME_DIR"); rt != "" {
		dirs = append(dirs, filepath.Join(rt, "hypr", sig))
	}
	dirs = append(dirs, filepath.Join("/tmp", "hypr", sig))

	for _, dir := range dirs {
		s := Sockets{
			Request: filepath.Join(dir, ".socket.sock"),
			Events:  filepath.Join(dir, ".socket2.sock"),
		}
		if exists(s.Events) {
			return s, nil
		}
	}
	return Sockets{}, fmt.Errorf("hyprland: no event socket found for instance %s", sig)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Client issues requests on the request socket. Each request uses a fresh
// connection, which is how Hyprland expects to be spoken to.
type Client struct {
	path string
}

// NewClient returns a client for the request socket at path.
func NewClient(path string) *Client {
	return &Client{path: path}
}

// Request sends cmd (e.g. "j/monitors") and returns the full reply.
func (c *Client) Request(ctx context.Context, cmd string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return nil, fmt.Errorf("hyprland: connect: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := conn.Write([]byte(cmd)); err != nil {
		return nil, fmt.Errorf("hyprland: write %q: %w", cmd, err)
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("hyprland: read %q: %w", cmd, err)
	}
	return data, nil
}

func (c *Client) requestJSON(ctx context.Context, cmd string, v any) error {
	data, err := c.Request(ctx, cmd)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("hyprland: decode %s: %w", cmd, err)
	}
	return nil
}

// WorkspaceRef is the short workspace form embedded in other replies.
type WorkspaceRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Monitor is one entry of j/monitors.
type Monitor struct {
	ID              int          `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	RefreshRate     float64      `json:"refreshRate"`
	X               int          `json:"x"`
	Y               int          `json:"y"`
	ActiveWorkspace WorkspaceRef `json:"activeWorkspace"`
	Scale           float64      `json:"scale"`
	Focused         bool         `json:"focused"`
	Disabled        bool         `json:"disabled"`
}

// Monitors returns the enabled monitors.
func (c *Client) Monitors(ctx context.Context) ([]Monitor, error) {
	var all []Monitor
	if err := c.requestJSON(ctx, "j/monitors", &all); err != nil {
		return nil, err
	}
	out := all[:0]
	for _, m := range all {
		if !m.Disabled {
			out = append(out, m)
		}
	}
	return out, nil
}

// CursorPos returns the pointer position in global layout coordinates.
func (c *Client) CursorPos(ctx context.Context) (x, y float64, err error) {
	var pos struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := c.requestJSON(ctx, "j/cursorpos", &pos); err != nil {
		return 0, 0, err
	}
	return pos.X, pos.Y, nil
}
