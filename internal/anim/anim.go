// Package anim interpolates a single scalar between two values over time.
//
// A State never deactivates itself: Done reports that the interpolation has
// run its course, and the owner calls Commit to take the exact target value
// and clear Active. Keeping the two steps apart lets the caller render the
// final frame before the animation drops out of the active set.
package anim

import (
	"math"

	"github.com/1broseidon/parallaxd/internal/easing"
)

// Vec is a 2D value in pixels or normalized units depending on context.
type Vec struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// State is one animated scalar. The zero value is inactive.
type State struct {
	StartTime float64     `json:"start_time"`
	Duration  float64     `json:"duration"`
	From      float32     `json:"from"`
	To        float32     `json:"to"`
	Easing    easing.Kind `json:"easing"`
	Active    bool        `json:"active"`
}

// Start overwrites the state unconditionally and activates it at now.
func (s *State) Start(from, to float32, now, duration float64, e easing.Kind) {
	s.From = from
	s.To = to
	s.StartTime = now
	s.Duration = duration
	s.Easing = e
	s.Active = true
}

// IsActive reports whether the animation still owns its value.
func (s *State) IsActive() bool {
	return s.Active
}

// Progress returns the clamped [0,1] progress at now.
func (s State) Progress(now float64) float32 {
	if s.Duration <= 0 {
		return 1
	}
	p := (now - s.StartTime) / s.Duration
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return float32(p)
}

// Evaluate returns the interpolated value at now without mutating the state.
func (s State) Evaluate(now float64) float32 {
	if s.Duration <= 0 {
		return s.To
	}
	p := s.Progress(now)
	if p >= 1 {
		return s.To
	}
	return s.From + (s.To-s.From)*easing.Apply(p, s.Easing)
}

// Done reports whether now is at or past the end of the interpolation.
func (s State) Done(now float64) bool {
	return now >= s.StartTime+s.Duration
}

// Commit takes the value at now and deactivates the animation.
func (s *State) Commit(now float64) float32 {
	v := s.Evaluate(now)
	s.Active = false
	return v
}

// Retarget moves an animation toward target without a visual jump.
//
// An active animation restarts from its current interpolated value; an idle
// one starts from committed, the last value its owner settled on.
func (s *State) Retarget(now float64, committed, target float32, duration float64, e easing.Kind) {
	from := committed
	if s.Active {
		from = s.Evaluate(now)
	}
	s.Start(from, target, now, duration, e)
}

// RetargetThreshold is Retarget with a minimum change below which nothing
// happens. It reports whether the animation was retargeted.
func (s *State) RetargetThreshold(now float64, committed, target, min float32, duration float64, e easing.Kind) bool {
	ref := committed
	if s.Active {
		ref = s.To
	}
	if abs(target-ref) < min {
		return false
	}
	s.Retarget(now, committed, target, duration, e)
	return true
}

func abs(v float32) float32 {
	return float32(math.Abs(float64(v)))
}

// Pair animates an X/Y offset together with its committed value.
type Pair struct {
	X     State `json:"x"`
	Y     State `json:"y"`
	Value Vec   `json:"value"`
}

// Active reports whether either axis is animating.
func (p *Pair) Active() bool {
	return p.X.Active || p.Y.Active
}

// Retarget retargets both axes from the committed value.
func (p *Pair) Retarget(now float64, target Vec, duration float64, e easing.Kind) {
	p.X.Retarget(now, p.Value.X, target.X, duration, e)
	p.Y.Retarget(now, p.Value.Y, target.Y, duration, e)
}

// Set jumps to v and stops both axes.
func (p *Pair) Set(v Vec) {
	p.X.Active = false
	p.Y.Active = false
	p.Value = v
}

// Tick advances both axes to now. finished is true when an axis committed its
// final value during this call.
func (p *Pair) Tick(now float64) (active, finished bool) {
	p.Value.X, active, finished = tickAxis(&p.X, p.Value.X, now, active, finished)
	p.Value.Y, active, finished = tickAxis(&p.Y, p.Value.Y, now, active, finished)
	return active, finished
}

func tickAxis(s *State, cur float32, now float64, active, finished bool) (float32, bool, bool) {
	if !s.Active {
		return cur, active, finished
	}
	if s.Done(now) {
		return s.Commit(now), active, true
	}
	return s.Evaluate(now), true, finished
}
