// Package niri talks to a running niri instance over $NIRI_SOCKET.
//
// Requests and replies are single JSON lines. A reply is {"Ok": ...} or
// {"Err": "message"}. Requesting "EventStream" turns the connection into a
// stream of event lines.
package niri

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"time"
)

const requestTimeout = 2 * time.Second

// ErrNotRunning is returned when NIRI_SOCKET is unset.
var ErrNotRunning = errors.New("niri: NIRI_SOCKET not set")

// FindSocket returns the IPC socket of the current instance.
func FindSocket() (string, error) {
	return findSocket(os.Getenv)
}

func findSocket(getenv func(string) string) (string, error) {
	p := getenv("NIRI_SOCKET")
	if p == "" {
		return "", ErrNotRunning
	}
	return p, nil
}

// Client issues requests on the IPC socket, one connection per request.
type Client struct {
	path string
}

// NewClient returns a client for the socket at path.
func NewClient(path string) *Client {
	return &Client{path: path}
}

// Path is the socket path.
func (c *Client) Path() string { return c.path }

type reply struct {
	Ok  json.RawMessage `json:"Ok"`
	Err *string         `json:"Err"`
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.path)
	if err != nil {
		return nil, fmt.Errorf("niri: connect: %w", err)
	}
	return conn, nil
}

// send writes req as one JSON line and decodes the reply line.
func send(conn net.Conn, r *bufio.Reader, req any) (json.RawMessage, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(append(data, '\n')); err != nil {
		return nil, fmt.Errorf("niri: write %s: %w", data, err)
	}
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("niri: read reply to %s: %w", data, err)
	}
	var rep reply
	if err := json.Unmarshal(line, &rep); err != nil {
		return nil, fmt.Errorf("niri: decode reply to %s: %w", data, err)
	}
	if rep.Err != nil {
		return nil, fmt.Errorf("niri: %s: %s", data, *rep.Err)
	}
	return rep.Ok, nil
}

// Request sends req (a bare string such as "Outputs") and returns the Ok
// payload.
func (c *Client) Request(ctx context.Context, req any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return send(conn, bufio.NewReader(conn), req)
}

// Mode is one output mode. RefreshRate is in millihertz.
type Mode struct {
	Width       int  `json:"width"`
	Height      int  `json:"height"`
	RefreshRate int  `json:"refresh_rate"`
	IsPreferred bool `json:"is_preferred"`
}

// Logical is an output's placement in the global layout, already scaled.
type Logical struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

// Output is one entry of the Outputs reply. Logical is nil for disabled
// outputs.
type Output struct {
	Name        string   `json:"name"`
	Make        string   `json:"make"`
	Model       string   `json:"model"`
	Modes       []Mode   `json:"modes"`
	CurrentMode *int     `json:"current_mode"`
	Logical     *Logical `json:"logical"`
}

// RefreshHz returns the current mode's refresh rate, or 0 when unknown.
func (o Output) RefreshHz() float64 {
	if o.CurrentMode == nil || *o.CurrentMode < 0 || *o.CurrentMode >= len(o.Modes) {
		return 0
	}
	return float64(o.Modes[*o.CurrentMode].RefreshRate) / 1000
}

// Outputs returns the enabled outputs sorted by name.
func (c *Client) Outputs(ctx context.Context) ([]Output, error) {
	ok, err := c.Request(ctx, "Outputs")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Outputs map[string]Output `json:"Outputs"`
	}
	if err := json.Unmarshal(ok, &payload); err != nil {
		return nil, fmt.Errorf("niri: decode Outputs: %w", err)
	}
	out := make([]Output, 0, len(payload.Outputs))
	for name, o := range payload.Outputs {
		if o.Logical == nil {
			continue
		}
		if o.Name == "" {
			o.Name = name
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// EventStream opens a connection in event-stream mode. The returned reader
// yields one JSON event per line; closing conn ends the stream.
func (c *Client) EventStream(ctx context.Context) (net.Conn, *bufio.Reader, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, nil, err
	}
	r := bufio.NewReader(conn)
	_ = conn.SetDeadline(time.Now().Add(requestTimeout))
	if _, err := send(conn, r, "EventStream"); err != nil {
		conn.Close()
		return nil, nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	return conn, r, nil
}

// Workspace is one entry of WorkspacesChanged. Idx is the 1-based position on
// its output.
type Workspace struct {
	ID        uint64  `json:"id"`
	Idx       int     `json:"idx"`
	Name      *string `json:"name"`
	Output    *string `json:"output"`
	IsActive  bool    `json:"is_active"`
	IsFocused bool    `json:"is_focused"`
}

// WindowLayout carries a tiled window's [column, row] in the scrolling
// layout, both 1-based. Floating windows have none.
type WindowLayout struct {
	PosInScrollingLayout *[2]int `json:"pos_in_scrolling_layout"`
}

// Window is one entry of WindowsChanged or WindowOpenedOrChanged.
type Window struct {
	ID          uint64       `json:"id"`
	WorkspaceID *uint64      `json:"workspace_id"`
	IsFocused   bool         `json:"is_focused"`
	Layout      WindowLayout `json:"layout"`
}

// Column returns the window's scrolling-layout column, or 0 when it has none.
func (w Window) Column() int {
	if w.Layout.PosInScrollingLayout == nil {
		return 0
	}
	return w.Layout.PosInScrollingLayout[0]
}

// Event is one line of the event stream. Exactly one field is set for the
// events parallaxd cares about; others decode to all-nil.
type Event struct {
	WorkspacesChanged *struct {
		Workspaces []Workspace `json:"workspaces"`
	} `json:"WorkspacesChanged"`
	WorkspaceActivated *struct {
		ID      uint64 `json:"id"`
		Focused bool   `json:"focused"`
	} `json:"WorkspaceActivated"`
	WindowsChanged *struct {
		Windows []Window `json:"windows"`
	} `json:"WindowsChanged"`
	WindowOpenedOrChanged *struct {
		Window Window `json:"window"`
	} `json:"WindowOpenedOrChanged"`
	WindowClosed *struct {
		ID uint64 `json:"id"`
	} `json:"WindowClosed"`
	WindowFocusChanged *struct {
		ID *uint64 `json:"id"`
	} `json:"WindowFocusChanged"`
}

// ParseEvent decodes one event line.
func ParseEvent(line []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(line, &ev); err != nil {
		return Event{}, fmt.Errorf("niri: decode event: %w", err)
	}
	return ev, nil
}
