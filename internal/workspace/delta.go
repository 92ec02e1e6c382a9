package workspace

import (
	"fmt"
	"math/bits"
	"strings"
)

// Base is the workspace number that sits at zero offset on every axis.
const Base = 1

// TagPolicy selects which tag drives motion when several tags are visible.
type TagPolicy int

const (
	TagFocused TagPolicy = iota
	TagHighest
	TagLowest
	TagNoParallax
)

func (p TagPolicy) String() string {
	switch p {
	case TagHighest:
		return "highest"
	case TagLowest:
		return "lowest"
	case TagNoParallax:
		return "no_parallax"
	default:
		return "focused"
	}
}

// ParseTagPolicy parses a config spelling.
func ParseTagPolicy(s string) (TagPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "focused":
		return TagFocused, nil
	case "highest":
		return TagHighest, nil
	case "lowest":
		return TagLowest, nil
	case "no_parallax", "none":
		return TagNoParallax, nil
	default:
		return TagFocused, fmt.Errorf("unknown tag policy %q", s)
	}
}

// Motion converts contexts into pixel motion. The zero value uses the
// focused-tag policy.
type Motion struct {
	Policy TagPolicy
}

// CalculateDelta is Motion{}.Delta.
func CalculateDelta(prev, next Context, shift float32) float32 {
	return Motion{}.Delta(prev, next, shift)
}

// Delta2D is Motion{}.Delta2D.
func Delta2D(prev, next Context, shift float32) (dx, dy float32) {
	return Motion{}.Delta2D(prev, next, shift)
}

// Delta returns the signed scalar motion along the primary axis. Contexts of
// different models produce no motion, and SetBased only moves within one set.
func (m Motion) Delta(prev, next Context, shift float32) float32 {
	if prev.Model == SetBased && next.Model == SetBased && prev.Y != next.Y {
		return 0
	}
	dx, _ := m.Delta2D(prev, next, shift)
	return dx
}

// Delta2D returns motion on both axes. Linear models move on X only; 2D
// models take X from the column (set index) and Y from the row (set), the
// same axes Position uses for absolute targets.
func (m Motion) Delta2D(prev, next Context, shift float32) (dx, dy float32) {
	if prev.Model != next.Model {
		return 0, 0
	}
	switch prev.Model {
	case GlobalNumeric:
		return float32(next.ID-prev.ID) * shift, 0
	case TagBased:
		if m.Policy == TagNoParallax && (TagCount(prev.Tags) > 1 || TagCount(next.Tags) > 1) {
			return 0, 0
		}
		return float32(m.tagIndex(next)-m.tagIndex(prev)) * shift, 0
	default:
		return float32(next.X-prev.X) * shift, float32(next.Y-prev.Y) * shift
	}
}

// Position returns the absolute offset of c from the base workspace, in
// workspace steps. Multiplying by the shift distance gives an absolute target
// that does not drift across repeated switches.
func (m Motion) Position(c Context) (px, py float32) {
	switch c.Model {
	case GlobalNumeric:
		return float32(c.ID - Base), 0
	case TagBased:
		idx := m.tagIndex(c)
		if idx == 0 {
			return 0, 0
		}
		return float32(idx - Base), 0
	default:
		return float32(c.X - Base), float32(c.Y - Base)
	}
}

func (m Motion) tagIndex(c Context) int {
	switch m.Policy {
	case TagHighest:
		if c.Tags == 0 {
			return 0
		}
		return 32 - bits.LeadingZeros32(c.Tags)
	case TagLowest:
		return TagIndex(c.Tags)
	default:
		if c.Focused != 0 {
			return TagIndex(c.Focused)
		}
		return TagIndex(c.Tags)
	}
}

// Linearize flattens c into a single workspace id. 2D contexts encode as
// row*1000 + column.
func Linearize(c Context) int {
	switch c.Model {
	case GlobalNumeric:
		return c.ID
	case TagBased:
		return TagIndex(c.Focused)
	default:
		return c.Y*1000 + c.X
	}
}
