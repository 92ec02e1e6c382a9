package scheduler

import (
	"github.com/1broseidon/parallaxd/internal/engine"
)

// Mode is the loop state between waits.
type Mode int

const (
	ModeIdleWait Mode = iota
	ModeActiveWait
	ModeRender
)

func (m Mode) String() string {
	switch m {
	case ModeActiveWait:
		return "active_wait"
	case ModeRender:
		return "render"
	default:
		return "idle_wait"
	}
}

// minActiveTimeout bounds the busiest wait.
const minActiveTimeout = 0.001

// gateSlack absorbs float error when a frame timer fires exactly one interval
// after the last render.
const gateSlack = 1e-6

// renderGate decides whether a render is issued now.
func renderGate(needsRender bool, now, lastRender float64, t engine.Timing, frameReady bool) bool {
	if !needsRender {
		return false
	}
	if t.FrameCallbacks {
		return frameReady
	}
	return now-lastRender >= t.FrameInterval()-gateSlack
}

type waitInput struct {
	Now         float64
	LastRender  float64
	Animating   bool
	NeedsRender bool
	FrameReady  bool
	Timing      engine.Timing
	// Deadlines of armed timers that have no descriptor to wake the wait.
	Deadlines []float64
}

type waitPlan struct {
	Mode    Mode
	Timeout float64
}

// planWait computes how long the next wait may block.
func planWait(in waitInput) waitPlan {
	plan := waitPlan{Mode: ModeIdleWait, Timeout: in.Timing.IdleTimeout()}

	owed := in.Animating || in.NeedsRender
	// A render blocked on frame callbacks is woken by the ack, not by time.
	if owed && in.Timing.FrameCallbacks && !in.FrameReady && !in.Animating {
		owed = false
	}
	if owed {
		remaining := in.LastRender + in.Timing.FrameInterval() - in.Now
		plan.Mode = ModeActiveWait
		plan.Timeout = max(remaining, minActiveTimeout)
	}

	for _, d := range in.Deadlines {
		plan.Timeout = min(plan.Timeout, max(d-in.Now, 0))
	}
	return plan
}
