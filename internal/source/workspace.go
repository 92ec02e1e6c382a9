package source

import (
	"github.com/1broseidon/parallaxd/internal/workspace"
)

// WorkspaceSource reports workspace changes from a compositor.
type WorkspaceSource interface {
	Name() string
	// Fd becomes readable when Poll has events; -1 means poll every iteration.
	Fd() int
	Poll() []workspace.Event
	Close() error
}

// Injected is a WorkspaceSource fed by hand: control commands, tests and
// compositors without a native adapter.
type Injected struct {
	name string
	q    *Queue[workspace.Event]
}

// NewInjected returns an empty injected source.
func NewInjected(name string) *Injected {
	return &Injected{name: name, q: NewQueue[workspace.Event](0)}
}

func (s *Injected) Name() string { return s.name }
func (s *Injected) Fd() int { return s.q.Fd() }

// Push queues e. It reports false when the queue is full.
func (s *Injected) Push(e workspace.Event) bool { return s.q.Push(e) }

func (s *Injected) Poll() []workspace.Event { return s.q.Drain() }
func (s *Injected) Close() error { return s.q.Close() }
