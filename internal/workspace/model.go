// Package workspace normalizes compositor workspace addressing into contexts
// and turns context changes into parallax motion.
package workspace

import (
	"fmt"
	"math/bits"
	"strings"
)

// Model is a workspace addressing scheme.
type Model int

const (
	// GlobalNumeric: one linear id shared by all outputs (Hyprland, Sway, EWMH).
	GlobalNumeric Model = iota
	// PerOutputNumeric: each output has its own column/row grid (Niri, Wayfire).
	PerOutputNumeric
	// TagBased: a bitmask of visible tags (River).
	TagBased
	// SetBased: workspaces grouped in sets; X is the index, Y the set.
	SetBased
)

func (m Model) String() string {
	switch m {
	case GlobalNumeric:
		return "global"
	case PerOutputNumeric:
		return "per_output"
	case TagBased:
		return "tag"
	case SetBased:
		return "set"
	default:
		return fmt.Sprintf("model(%d)", int(m))
	}
}

// MarshalText renders the config spelling.
func (m Model) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Model) UnmarshalText(b []byte) error {
	parsed, ok := ParseModel(string(b))
	if !ok {
		return fmt.Errorf("unknown workspace model %q", string(b))
	}
	*m = parsed
	return nil
}

// ParseModel parses a config spelling. "auto" and "" report ok=false so the
// caller can fall back to detection.
func ParseModel(s string) (Model, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "global", "global_numeric", "numeric":
		return GlobalNumeric, true
	case "per_output", "per-output", "per_output_numeric", "grid":
		return PerOutputNumeric, true
	case "tag", "tags", "tag_based":
		return TagBased, true
	case "set", "set_based", "sets":
		return SetBased, true
	default:
		return GlobalNumeric, false
	}
}

// Point is a column/row pair. The zero Point means "no 2D information".
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// IsZero reports whether p carries no 2D information.
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Context is a workspace position under one Model. Only the fields used by
// Model are set, so two contexts are equal exactly when == holds.
type Context struct {
	Model   Model  `json:"model"`
	ID      int    `json:"id,omitempty"`
	X       int    `json:"x,omitempty"`
	Y       int    `json:"y,omitempty"`
	Tags    uint32 `json:"tags,omitempty"`
	Focused uint32 `json:"focused,omitempty"`
}

// Global returns a GlobalNumeric context.
func Global(id int) Context {
	return Context{Model: GlobalNumeric, ID: id}
}

// Grid returns a PerOutputNumeric context at column x, row y.
func Grid(x, y int) Context {
	return Context{Model: PerOutputNumeric, X: x, Y: y}
}

// Set returns a SetBased context for workspace index in set.
func Set(set, index int) Context {
	return Context{Model: SetBased, X: index, Y: set}
}

// Tags returns a TagBased context. focused defaults to the lowest visible tag.
func Tags(visible, focused uint32) Context {
	if focused == 0 {
		focused = visible & -visible
	}
	return Context{Model: TagBased, Tags: visible, Focused: focused}
}

// Initial is the context a monitor starts in under model m.
func Initial(m Model) Context {
	switch m {
	case PerOutputNumeric:
		return Grid(1, 1)
	case SetBased:
		return Set(1, 1)
	case TagBased:
		return Tags(1, 1)
	default:
		return Global(1)
	}
}

// Equal reports whether a and b have the same model and payload.
func (c Context) Equal(o Context) bool {
	return c == o
}

// Compare orders contexts: by model first, then by position.
func Compare(a, b Context) int {
	if a.Model != b.Model {
		return int(a.Model) - int(b.Model)
	}
	switch a.Model {
	case GlobalNumeric:
		return a.ID - b.ID
	case TagBased:
		return TagIndex(a.Focused) - TagIndex(b.Focused)
	default:
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	}
}

func (c Context) String() string {
	switch c.Model {
	case GlobalNumeric:
		return fmt.Sprintf("global:%d", c.ID)
	case TagBased:
		return fmt.Sprintf("tag:%#x/%d", c.Tags, TagIndex(c.Focused))
	default:
		return fmt.Sprintf("%s:%d,%d", c.Model, c.X, c.Y)
	}
}

// TagIndex returns the 1-based index of the lowest set bit, or 0 for none.
func TagIndex(mask uint32) int {
	if mask == 0 {
		return 0
	}
	return bits.TrailingZeros32(mask) + 1
}

// TagCount returns the number of set bits.
func TagCount(mask uint32) int {
	return bits.OnesCount32(mask)
}
