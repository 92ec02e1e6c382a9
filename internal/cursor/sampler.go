// Package cursor turns raw pointer positions into a smoothed, normalized
// parallax offset in [-1, 1].
package cursor

import (
	"math"

	"github.com/1broseidon/parallaxd/internal/anim"
	"github.com/1broseidon/parallaxd/internal/easing"
	"github.com/1broseidon/parallaxd/internal/monitor"
)

const (
	// RetargetThreshold is the minimum normalized change that restarts the
	// easing pass.
	RetargetThreshold = 0.0003
	// ChangeThreshold is the minimum eased change worth a render.
	ChangeThreshold = 0.0015
)

// Config holds the sampler tuning.
type Config struct {
	SensitivityX float32
	SensitivityY float32
	DeadzonePx   float32
	EMAAlpha     float32
	// AnimDuration enables the easing pass when > 0 (seconds).
	AnimDuration float64
	Easing       easing.Kind
	// FollowGlobal normalizes against the union of all monitors instead of
	// the monitor under the pointer.
	FollowGlobal bool
}

// DefaultConfig mirrors the shipped configuration defaults.
func DefaultConfig() Config {
	return Config{
		SensitivityX: 1,
		SensitivityY: 1,
		DeadzonePx:   3,
		EMAAlpha:     0.25,
		AnimDuration: 3.0,
		Easing:       easing.Expo,
	}
}

// State is the process-wide cursor state.
type State struct {
	Raw        [2]float64 `json:"raw"`
	EMA        anim.Vec   `json:"ema"`
	Normalized anim.Vec   `json:"normalized"`
	Eased      anim.Vec   `json:"eased"`
	Anim       anim.Pair  `json:"anim"`

	EaseInitialized bool `json:"ease_initialized"`

	reported anim.Vec
}

// Sampler owns the cursor state. It is not safe for concurrent use.
type Sampler struct {
	cfg   Config
	state State
}

// NewSampler returns a sampler with cfg.
func NewSampler(cfg Config) *Sampler {
	return &Sampler{cfg: cfg}
}

// Config returns the current tuning.
func (s *Sampler) Config() Config {
	return s.cfg
}

// SetConfig replaces the tuning without resetting state.
func (s *Sampler) SetConfig(cfg Config) {
	s.cfg = cfg
}

// State returns a copy of the current state.
func (s *Sampler) State() State {
	return s.state
}

// Reset returns the sampler to the centered position.
func (s *Sampler) Reset() {
	s.state = State{}
}

// Normalize converts an absolute pointer position into a signed offset from
// the center of rect, divided by its half extents. Distances inside the
// deadzone snap to zero on that axis.
func (s *Sampler) Normalize(x, y float64, rect monitor.Rect) (nx, ny float32) {
	if rect.Width <= 0 || rect.Height <= 0 {
		return 0, 0
	}
	halfW, halfH := rect.Width/2, rect.Height/2
	dx := x - (rect.X + halfW)
	dy := y - (rect.Y + halfH)
	dz := float64(s.cfg.DeadzonePx)
	if math.Abs(dx) < dz {
		dx = 0
	}
	if math.Abs(dy) < dz {
		dy = 0
	}
	return float32(dx / halfW), float32(dy / halfH)
}

// Sample normalizes a raw position against rect and applies it.
func (s *Sampler) Sample(x, y float64, rect monitor.Rect, now float64) bool {
	s.state.Raw = [2]float64{x, y}
	nx, ny := s.Normalize(x, y, rect)
	return s.ApplySample(nx, ny, now)
}

// ApplySample feeds one normalized sample through sensitivity, the EMA and
// the optional easing pass. It reports whether the eased output moved enough
// to justify a render.
func (s *Sampler) ApplySample(nx, ny float32, now float64) bool {
	alpha := clamp(s.cfg.EMAAlpha, 0, 1)
	sx := nx * s.cfg.SensitivityX
	sy := ny * s.cfg.SensitivityY

	st := &s.state
	st.EMA.X += alpha * (sx - st.EMA.X)
	st.EMA.Y += alpha * (sy - st.EMA.Y)
	st.Normalized = anim.Vec{X: clamp(st.EMA.X, -1, 1), Y: clamp(st.EMA.Y, -1, 1)}

	if s.cfg.AnimDuration > 0 {
		if !st.EaseInitialized {
			st.Anim.Set(st.Eased)
			st.EaseInitialized = true
		}
		st.Anim.X.RetargetThreshold(now, st.Anim.Value.X, st.Normalized.X, RetargetThreshold, s.cfg.AnimDuration, s.cfg.Easing)
		st.Anim.Y.RetargetThreshold(now, st.Anim.Value.Y, st.Normalized.Y, RetargetThreshold, s.cfg.AnimDuration, s.cfg.Easing)
		st.Eased = anim.Vec{X: st.Anim.X.Evaluate(now), Y: st.Anim.Y.Evaluate(now)}
		if !st.Anim.X.Active {
			st.Eased.X = st.Anim.Value.X
		}
		if !st.Anim.Y.Active {
			st.Eased.Y = st.Anim.Value.Y
		}
	} else {
		st.Eased = st.Normalized
	}
	return s.consumeChange()
}

// Tick advances the easing pass to now.
func (s *Sampler) Tick(now float64) (active, finished, changed bool) {
	st := &s.state
	if s.cfg.AnimDuration <= 0 || !st.Anim.Active() {
		return false, false, false
	}
	active, finished = st.Anim.Tick(now)
	st.Eased = st.Anim.Value
	return active, finished, s.consumeChange()
}

// Active reports whether the easing pass is animating.
func (s *Sampler) Active() bool {
	return s.state.Anim.Active()
}

// Value returns the current eased normalized offset.
func (s *Sampler) Value() anim.Vec {
	return s.state.Eased
}

func (s *Sampler) consumeChange() bool {
	st := &s.state
	if abs(st.Eased.X-st.reported.X) > ChangeThreshold || abs(st.Eased.Y-st.reported.Y) > ChangeThreshold {
		st.reported = st.Eased
		return true
	}
	return false
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
