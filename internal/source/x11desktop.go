package source

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/parallaxd/internal/workspace"
	"github.com/1broseidon/parallaxd/internal/x11"
)

// X11Desktop follows _NET_CURRENT_DESKTOP on an EWMH window manager. The
// connection's EventLoop must be running for events to arrive.
type X11Desktop struct {
	logger *slog.Logger
	q      *Queue[workspace.Event]

	mu      sync.Mutex
	current int
}

// NewX11Desktop registers a property watch on conn's root window.
func NewX11Desktop(conn *x11.Connection, logger *slog.Logger) (*X11Desktop, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &X11Desktop{logger: logger, q: NewQueue[workspace.Event](0), current: workspace.Base}
	if d, err := conn.CurrentDesktop(); err == nil {
		s.current = d + 1
	}
	if err := conn.WatchCurrentDesktop(s.onDesktop); err != nil {
		s.q.Close()
		return nil, fmt.Errorf("watch current desktop: %w", err)
	}
	return s, nil
}

// Current returns the last seen desktop as a 1-based workspace id.
func (s *X11Desktop) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// onDesktop maps EWMH's 0-based desktop onto 1-based workspace ids.
func (s *X11Desktop) onDesktop(desktop int) {
	id := desktop + 1
	s.mu.Lock()
	prev := s.current
	s.current = id
	s.mu.Unlock()
	if prev == id {
		return
	}
	if !s.q.Push(workspace.Event{FromID: prev, ToID: id}) {
		s.logger.Warn("workspace queue full, dropping event", "source", "x11", "to", id)
	}
}

func (s *X11Desktop) Name() string { return "x11" }
func (s *X11Desktop) Fd() int { return s.q.Fd() }
func (s *X11Desktop) Poll() []workspace.Event { return s.q.Drain() }
func (s *X11Desktop) Close() error { return s.q.Close() }
