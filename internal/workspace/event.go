package workspace

// Event is a normalized workspace change reported by a compositor source.
type Event struct {
	FromID int `json:"from_id"`
	ToID   int `json:"to_id"`

	// FromXY/ToXY carry 2D addressing. Zero tuples signal a linear change.
	FromXY Point `json:"from_xy"`
	ToXY   Point `json:"to_xy"`

	// Tags is the visible tag mask for tag-based compositors.
	Tags       uint32 `json:"tags,omitempty"`
	FocusedTag uint32 `json:"focused_tag,omitempty"`

	// Monitor names the output the change happened on; empty means unknown.
	Monitor string `json:"monitor,omitempty"`
}

// Is2D reports whether the event carries a grid/set position.
func (e Event) Is2D() bool {
	return !e.ToXY.IsZero() || !e.FromXY.IsZero()
}

// Resolve builds the target context of e under model. A 2D signal arriving
// under a model with no 2D addressing is reinterpreted as SetBased and
// reported with fallback=true instead of being rejected.
func Resolve(model Model, e Event) (ctx Context, fallback bool) {
	if e.Tags != 0 {
		return Tags(e.Tags, e.FocusedTag), model != TagBased
	}

	if !e.Is2D() {
		switch model {
		case PerOutputNumeric:
			return Grid(e.ToID, Base), false
		case SetBased:
			return Set(Base, e.ToID), false
		default:
			return Global(e.ToID), false
		}
	}

	switch model {
	case PerOutputNumeric:
		return Grid(e.ToXY.X, e.ToXY.Y), false
	case SetBased:
		return Set(e.ToXY.Y, e.ToXY.X), false
	default:
		return Set(e.ToXY.Y, e.ToXY.X), true
	}
}
