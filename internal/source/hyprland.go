package source

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/1broseidon/parallaxd/internal/hyprland"
	"github.com/1broseidon/parallaxd/internal/workspace"
)

// hyprlandTracker follows the event stream of socket2. It remembers the
// focused monitor and each monitor's workspace so it can fill in FromID.
type hyprlandTracker struct {
	focused string
	current map[string]int
}

func newHyprlandTracker(seed []hyprland.Monitor) *hyprlandTracker {
	t := &hyprlandTracker{current: make(map[string]int)}
	for _, m := range seed {
		t.current[m.Name] = m.ActiveWorkspace.ID
		if m.Focused {
			t.focused = m.Name
		}
	}
	return t
}

// hyprlandUpdate is what one socket2 line produced.
type hyprlandUpdate struct {
	Event    workspace.Event
	HasEvent bool
	Hotplug  *PlatformEvent
}

// apply consumes one "name>>data" line.
func (t *hyprlandTracker) apply(line string) hyprlandUpdate {
	name, data, ok := strings.Cut(strings.TrimSpace(line), ">>")
	if !ok {
		return hyprlandUpdate{}
	}

	switch name {
	case "workspace":
		if id, ok := parseWorkspaceID(data); ok {
			return t.switchTo(t.focused, id)
		}
	case "workspacev2":
		idStr, _, _ := strings.Cut(data, ",")
		if id, ok := parseWorkspaceID(idStr); ok {
			return t.switchTo(t.focused, id)
		}
	case "focusedmon":
		mon, wsName, ok := strings.Cut(data, ",")
		if !ok {
			return hyprlandUpdate{}
		}
		t.focused = mon
		if id, ok := parseWorkspaceID(wsName); ok {
			return t.switchTo(mon, id)
		}
	case "monitoradded":
		return hyprlandUpdate{Hotplug: &PlatformEvent{Kind: PlatformMonitorAdded, Monitor: data}}
	case "monitoraddedv2":
		// id,name,description
		parts := strings.SplitN(data, ",", 3)
		if len(parts) >= 2 {
			return hyprlandUpdate{Hotplug: &PlatformEvent{Kind: PlatformMonitorAdded, Monitor: parts[1]}}
		}
	case "monitorremoved":
		delete(t.current, data)
		return hyprlandUpdate{Hotplug: &PlatformEvent{Kind: PlatformMonitorRemoved, Monitor: data}}
	}
	return hyprlandUpdate{}
}

func (t *hyprlandTracker) switchTo(mon string, id int) hyprlandUpdate {
	prev, known := t.current[mon]
	t.current[mon] = id
	if known && prev == id {
		return hyprlandUpdate{}
	}
	// An unknown monitor reports FromID 0; the engine diffs against the
	// monitor's own context anyway.
	return hyprlandUpdate{
		Event:    workspace.Event{FromID: prev, ToID: id, Monitor: mon},
		HasEvent: true,
	}
}

// parseWorkspaceID accepts positive numeric ids. Named and special
// workspaces carry no position and are ignored.
func parseWorkspaceID(s string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HyprlandConfig configures the Hyprland workspace source.
type HyprlandConfig struct {
	Sockets hyprland.Sockets
	// Seed is the monitor list at startup, used to know each monitor's
	// current workspace before the first event.
	Seed []hyprland.Monitor
	// OnHotplug receives monitor added/removed notifications.
	OnHotplug func(PlatformEvent)
	Logger    *slog.Logger
}

// Hyprland reads workspace events from socket2.
type Hyprland struct {
	logger  *slog.Logger
	q       *Queue[workspace.Event]
	conn    net.Conn
	tracker *hyprlandTracker
	hotplug func(PlatformEvent)
}

// NewHyprland connects to the event socket and starts reading.
func NewHyprland(ctx context.Context, cfg HyprlandConfig) (*Hyprland, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", cfg.Sockets.Events)
	if err != nil {
		return nil, fmt.Errorf("connect hyprland event socket: %w", err)
	}

	h := &Hyprland{
		logger:  logger,
		q:       NewQueue[workspace.Event](0),
		conn:    conn,
		tracker: newHyprlandTracker(cfg.Seed),
		hotplug: cfg.OnHotplug,
	}
	go h.readLoop(ctx)
	return h, nil
}

func (h *Hyprland) readLoop(ctx context.Context) {
	scanner := bufio.NewScanner(h.conn)
	for scanner.Scan() {
		u := h.tracker.apply(scanner.Text())
		if u.HasEvent {
			if !h.q.Push(u.Event) {
				h.logger.Warn("workspace queue full, dropping event", "source", "hyprland", "to", u.Event.ToID)
			}
		}
		if u.Hotplug != nil && h.hotplug != nil {
			h.hotplug(*u.Hotplug)
		}
	}
	if ctx.Err() != nil {
		return
	}
	if err := scanner.Err(); err != nil {
		h.logger.Warn("hyprland event socket read failed", "error", err)
		return
	}
	h.logger.Warn("hyprland event socket closed")
}

func (h *Hyprland) Name() string { return "hyprland" }
func (h *Hyprland) Fd() int { return h.q.Fd() }
func (h *Hyprland) Poll() []workspace.Event { return h.q.Drain() }

// Close stops the reader and releases the queue.
func (h *Hyprland) Close() error {
	err := h.conn.Close()
	_ = h.q.Close()
	return err
}
