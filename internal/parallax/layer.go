// Package parallax holds the background layer stack and blends workspace and
// cursor motion into per-layer pixel offsets.
package parallax

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/1broseidon/parallaxd/internal/anim"
)

// Invert flips an axis of one motion source.
type Invert struct {
	X bool `json:"x" yaml:"x"`
	Y bool `json:"y" yaml:"y"`
}

// Layer is one background image plane. Offset is driven by workspace motion;
// cursor motion is blended in at compose time.
type Layer struct {
	ID         uint32   `json:"id"`
	Path       string   `json:"path"`
	Multiplier anim.Vec `json:"shift_multiplier"`
	Opacity    float32  `json:"opacity"`
	Blur       float32  `json:"blur"`

	InvertWorkspace Invert `json:"invert_workspace"`
	InvertCursor    Invert `json:"invert_cursor"`

	// Motion animates the workspace-driven pixel offset.
	Motion anim.Pair `json:"motion"`
}

// Offset returns the current workspace-driven offset.
func (l *Layer) Offset() anim.Vec {
	return l.Motion.Value
}

// Spec describes a layer to add.
type Spec struct {
	Path            string
	Multiplier      anim.Vec
	Opacity         float32
	Blur            float32
	InvertWorkspace Invert
	InvertCursor    Invert
}

// Stack is the ordered layer list; index order is z-order, back to front.
type Stack struct {
	layers []*Layer
	nextID uint32
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{nextID: 1}
}

// Add appends a layer and returns it.
func (s *Stack) Add(spec Spec) *Layer {
	if s.nextID == 0 {
		s.nextID = 1
	}
	l := &Layer{
		ID:              s.nextID,
		Path:            spec.Path,
		Multiplier:      spec.Multiplier,
		Opacity:         spec.Opacity,
		Blur:            spec.Blur,
		InvertWorkspace: spec.InvertWorkspace,
		InvertCursor:    spec.InvertCursor,
	}
	s.nextID++
	s.layers = append(s.layers, l)
	return l
}

// Remove deletes the layer with id.
func (s *Stack) Remove(id uint32) bool {
	for i, l := range s.layers {
		if l.ID == id {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the layer with id, or nil.
func (s *Stack) Get(id uint32) *Layer {
	for _, l := range s.layers {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// Clear removes every layer. IDs keep increasing.
func (s *Stack) Clear() {
	s.layers = nil
}

// List returns the layers in z-order. The slice is shared.
func (s *Stack) List() []*Layer {
	return s.layers
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	return len(s.layers)
}

// AnyAnimating reports whether any layer offset is animating.
func (s *Stack) AnyAnimating() bool {
	for _, l := range s.layers {
		if l.Motion.Active() {
			return true
		}
	}
	return false
}

// Modify sets one property of the layer with id from its string form.
//
// Properties: path, opacity, blur, shift_multiplier (scalar or "x,y"),
// shift_multiplier.x, shift_multiplier.y, invert.workspace.x|y,
// invert.cursor.x|y.
func (s *Stack) Modify(id uint32, prop, value string) error {
	l := s.Get(id)
	if l == nil {
		return fmt.Errorf("layer %d not found", id)
	}
	switch prop {
	case "path":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("path must not be empty")
		}
		l.Path = value
	case "opacity":
		v, err := parseUnit(value)
		if err != nil {
			return fmt.Errorf("opacity: %w", err)
		}
		l.Opacity = v
	case "blur":
		v, err := parseFloat(value)
		if err != nil || v < 0 {
			return fmt.Errorf("blur must be a number >= 0")
		}
		l.Blur = v
	case "shift_multiplier", "shift":
		v, err := ParseMultiplier(value)
		if err != nil {
			return err
		}
		l.Multiplier = v
	case "shift_multiplier.x":
		v, err := parseFloat(value)
		if err != nil {
			return fmt.Errorf("shift_multiplier.x: %w", err)
		}
		l.Multiplier.X = v
	case "shift_multiplier.y":
		v, err := parseFloat(value)
		if err != nil {
			return fmt.Errorf("shift_multiplier.y: %w", err)
		}
		l.Multiplier.Y = v
	case "invert.workspace.x", "invert.workspace.y", "invert.cursor.x", "invert.cursor.y":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: %w", prop, err)
		}
		target := &l.InvertWorkspace
		if strings.HasPrefix(prop, "invert.cursor") {
			target = &l.InvertCursor
		}
		if strings.HasSuffix(prop, ".x") {
			target.X = b
		} else {
			target.Y = b
		}
	default:
		return fmt.Errorf("unknown layer property %q", prop)
	}
	return nil
}

// ParseMultiplier accepts "0.5" (both axes) or "0.5,0.2".
func ParseMultiplier(value string) (anim.Vec, error) {
	parts := strings.Split(value, ",")
	switch len(parts) {
	case 1:
		v, err := parseFloat(parts[0])
		if err != nil {
			return anim.Vec{}, fmt.Errorf("shift_multiplier: %w", err)
		}
		return anim.Vec{X: v, Y: v}, nil
	case 2:
		x, err := parseFloat(parts[0])
		if err != nil {
			return anim.Vec{}, fmt.Errorf("shift_multiplier.x: %w", err)
		}
		y, err := parseFloat(parts[1])
		if err != nil {
			return anim.Vec{}, fmt.Errorf("shift_multiplier.y: %w", err)
		}
		return anim.Vec{X: x, Y: y}, nil
	default:
		return anim.Vec{}, fmt.Errorf("shift_multiplier must be a number or \"x,y\"")
	}
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return 0, err
	}
	return float32(v), nil
}

func parseUnit(s string) (float32, error) {
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("must be within [0, 1]")
	}
	return v, nil
}
