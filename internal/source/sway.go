package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joshuarubin/go-sway"

	"github.com/1broseidon/parallaxd/internal/workspace"
)

// Sway subscribes to workspace focus events over the sway/i3 IPC socket.
type Sway struct {
	logger *slog.Logger
	client sway.Client
	q      *Queue[workspace.Event]
	cancel context.CancelFunc
}

type swayHandler struct {
	sway.EventHandler
	src  *Sway
	last map[string]int64
}

// NewSway connects to sway and starts the subscription.
func NewSway(ctx context.Context, logger *slog.Logger) (*Sway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	client, err := sway.New(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect sway: %w", err)
	}

	s := &Sway{
		logger: logger,
		client: client,
		q:      NewQueue[workspace.Event](0),
		cancel: cancel,
	}
	h := &swayHandler{
		EventHandler: sway.NoOpEventHandler(),
		src:          s,
		last:         make(map[string]int64),
	}
	if wss, err := client.GetWorkspaces(ctx); err == nil {
		for _, ws := range wss {
			if ws.Visible || ws.Focused {
				h.last[ws.Output] = ws.Num
			}
		}
	}

	go func() {
		if err := sway.Subscribe(ctx, h, sway.EventTypeWorkspace); err != nil && ctx.Err() == nil {
			logger.Warn("sway subscription ended", "error", err)
		}
	}()
	return s, nil
}

// Workspace handles workspace events; only focus changes move the parallax.
func (h *swayHandler) Workspace(ctx context.Context, e sway.WorkspaceEvent) {
	if e.Change != sway.WorkspaceFocus {
		return
	}
	wss, err := h.src.client.GetWorkspaces(ctx)
	if err != nil {
		h.src.logger.Debug("sway workspace query failed", "error", err)
		return
	}
	for _, ws := range wss {
		if !ws.Focused {
			continue
		}
		if ev, ok := h.focusEvent(ws.Output, ws.Num); ok {
			if !h.src.q.Push(ev) {
				h.src.logger.Warn("workspace queue full, dropping event", "source", "sway", "to", ev.ToID)
			}
		}
		return
	}
}

// focusEvent records that output now shows workspace num. Workspaces without
// a number (num < 1) carry no position.
func (h *swayHandler) focusEvent(output string, num int64) (workspace.Event, bool) {
	if num < 1 {
		return workspace.Event{}, false
	}
	prev, known := h.last[output]
	h.last[output] = num
	if known && prev == num {
		return workspace.Event{}, false
	}
	return workspace.Event{FromID: int(prev), ToID: int(num), Monitor: output}, true
}

func (s *Sway) Name() string { return "sway" }
func (s *Sway) Fd() int { return s.q.Fd() }
func (s *Sway) Poll() []workspace.Event { return s.q.Drain() }

// Close cancels the subscription.
func (s *Sway) Close() error {
	s.cancel()
	return s.q.Close()
}
