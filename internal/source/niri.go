package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/1broseidon/parallaxd/internal/niri"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

// niriTracker turns niri's event stream into grid positions. Workspaces stack
// vertically per output (Y is the 1-based idx); windows scroll horizontally
// (X is the focused window's column on that workspace).
type niriTracker struct {
	workspaces map[uint64]niri.Workspace
	active     map[string]uint64 // output -> active workspace id
	windows    map[uint64]niri.Window
	column     map[uint64]int // workspace id -> focused column
}

func newNiriTracker() *niriTracker {
	return &niriTracker{
		workspaces: make(map[uint64]niri.Workspace),
		active:     make(map[string]uint64),
		windows:    make(map[uint64]niri.Window),
		column:     make(map[uint64]int),
	}
}

func wsOutput(w niri.Workspace) string {
	if w.Output == nil {
		return ""
	}
	return *w.Output
}

// point is the grid position of output's active workspace. ok is false until
// the output has a known active workspace.
func (t *niriTracker) point(output string) (workspace.Point, bool) {
	id, ok := t.active[output]
	if !ok {
		return workspace.Point{}, false
	}
	ws, ok := t.workspaces[id]
	if !ok || ws.Idx <= 0 {
		return workspace.Point{}, false
	}
	col := t.column[id]
	if col <= 0 {
		col = workspace.Base
	}
	return workspace.Point{X: col, Y: ws.Idx}, true
}

// apply consumes one event and returns the workspace changes it caused.
func (t *niriTracker) apply(ev niri.Event) []workspace.Event {
	switch {
	case ev.WorkspacesChanged != nil:
		// Full snapshot. Positions are taken as they are, without motion.
		t.workspaces = make(map[uint64]niri.Workspace, len(ev.WorkspacesChanged.Workspaces))
		t.active = make(map[string]uint64)
		for _, w := range ev.WorkspacesChanged.Workspaces {
			t.workspaces[w.ID] = w
			if w.IsActive {
				t.active[wsOutput(w)] = w.ID
			}
		}
		for id := range t.column {
			if _, ok := t.workspaces[id]; !ok {
				delete(t.column, id)
			}
		}

	case ev.WorkspaceActivated != nil:
		ws, ok := t.workspaces[ev.WorkspaceActivated.ID]
		if !ok {
			return nil
		}
		out := wsOutput(ws)
		return t.move(out, func() { t.active[out] = ws.ID })

	case ev.WindowsChanged != nil:
		t.windows = make(map[uint64]niri.Window, len(ev.WindowsChanged.Windows))
		for _, w := range ev.WindowsChanged.Windows {
			t.windows[w.ID] = w
			if w.IsFocused {
				t.noteFocus(w)
			}
		}

	case ev.WindowOpenedOrChanged != nil:
		w := ev.WindowOpenedOrChanged.Window
		t.windows[w.ID] = w
		if w.IsFocused {
			return t.focus(w)
		}

	case ev.WindowClosed != nil:
		delete(t.windows, ev.WindowClosed.ID)

	case ev.WindowFocusChanged != nil:
		if ev.WindowFocusChanged.ID == nil {
			return nil
		}
		if w, ok := t.windows[*ev.WindowFocusChanged.ID]; ok {
			return t.focus(w)
		}
	}
	return nil
}

func (t *niriTracker) noteFocus(w niri.Window) {
	if w.WorkspaceID == nil || w.Column() <= 0 {
		return
	}
	t.column[*w.WorkspaceID] = w.Column()
}

// focus records w's column and reports motion when its workspace is visible.
func (t *niriTracker) focus(w niri.Window) []workspace.Event {
	if w.WorkspaceID == nil || w.Column() <= 0 {
		return nil
	}
	ws, ok := t.workspaces[*w.WorkspaceID]
	if !ok {
		t.noteFocus(w)
		return nil
	}
	return t.move(wsOutput(ws), func() { t.noteFocus(w) })
}

// move applies change and emits an event if output's position moved.
func (t *niriTracker) move(output string, change func()) []workspace.Event {
	from, hadFrom := t.point(output)
	change()
	to, ok := t.point(output)
	if !ok || (hadFrom && from == to) {
		return nil
	}
	if !hadFrom {
		from = workspace.Point{X: workspace.Base, Y: workspace.Base}
	}
	return []workspace.Event{{
		FromID:  from.Y,
		ToID:    to.Y,
		FromXY:  from,
		ToXY:    to,
		Monitor: output,
	}}
}

// NiriConfig configures the niri workspace source.
type NiriConfig struct {
	Client *niri.Client
	Logger *slog.Logger
}

// Niri reads workspace and window-focus events from the niri event stream.
type Niri struct {
	logger  *slog.Logger
	q       *Queue[workspace.Event]
	conn    net.Conn
	tracker *niriTracker
}

// NewNiri opens the event stream and starts reading.
func NewNiri(ctx context.Context, cfg NiriConfig) (*Niri, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conn, r, err := cfg.Client.EventStream(ctx)
	if err != nil {
		return nil, err
	}
	n := &Niri{
		logger:  logger,
		q:       NewQueue[workspace.Event](0),
		conn:    conn,
		tracker: newNiriTracker(),
	}
	go n.readLoop(ctx, r)
	return n, nil
}

type lineReader interface {
	ReadBytes(delim byte) ([]byte, error)
}

func (n *Niri) readLoop(ctx context.Context, r lineReader) {
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			ev, perr := niri.ParseEvent(line)
			if perr != nil {
				n.logger.Debug("skipping niri event", "error", perr)
			} else {
				for _, e := range n.tracker.apply(ev) {
					if !n.q.Push(e) {
						n.logger.Warn("workspace queue full, dropping event", "source", "niri", "to", e.ToID)
					}
				}
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				n.logger.Warn("niri event stream closed")
			} else if !errors.Is(err, net.ErrClosed) {
				n.logger.Warn("niri event stream read failed", "error", err)
			}
			return
		}
	}
}

func (n *Niri) Name() string { return "niri" }
func (n *Niri) Fd() int { return n.q.Fd() }
func (n *Niri) Poll() []workspace.Event { return n.q.Drain() }

// Close stops the reader and releases the queue.
func (n *Niri) Close() error {
	err := n.conn.Close()
	_ = n.q.Close()
	return err
}
