package easing

import (
	"math"
	"strings"

	"github.com/tanema/gween/ease"
)

// Kind identifies an easing curve.
type Kind int

const (
	Linear Kind = iota
	Quad
	Cubic
	Quart
	Quint
	Sine
	Expo
	Circ
	Back
	Elastic
	Bounce
	Snap
	kindCount
)

// Default is used when a configured name is not recognized.
const Default = Cubic

var names = [kindCount]string{
	Linear:  "linear",
	Quad:    "quad",
	Cubic:   "cubic",
	Quart:   "quart",
	Quint:   "quint",
	Sine:    "sine",
	Expo:    "expo",
	Circ:    "circ",
	Back:    "back",
	Elastic: "elastic",
	Bounce:  "bounce",
	Snap:    "snap",
}

// Penner out-curves, called with (t, 0, 1, 1) so they map [0,1] onto [0,1].
var curves = [kindCount]ease.TweenFunc{
	Linear:  ease.Linear,
	Quad:    ease.OutQuad,
	Cubic:   ease.OutCubic,
	Quart:   ease.OutQuart,
	Quint:   ease.OutQuint,
	Sine:    ease.OutSine,
	Circ:    ease.OutCirc,
	Back:    ease.OutBack,
	Elastic: ease.OutElastic,
	Bounce:  ease.OutBounce,
}

// Apply maps progress t through the curve k. t is not clamped; callers clamp
// progress to [0,1] first.
func Apply(t float32, k Kind) float32 {
	switch k {
	case Snap:
		return snap(t)
	case Expo:
		return expo(t)
	}
	if k < 0 || k >= kindCount {
		k = Default
	}
	return curves[k](t, 0, 1, 1)
}

// expo is 1-2^(-10t), exact at t=1. gween scales it by 1.001, which
// overshoots 1 just before the end.
func expo(t float32) float32 {
	if t >= 1 {
		return 1
	}
	return 1 - float32(math.Pow(2, float64(-10*t)))
}

// snap overshoots quickly toward the target, then settles with a long tail.
func snap(t float32) float32 {
	if t < 0.4 {
		return 1 - pow(1-2.5*t, 6)
	}
	return 1 - pow(1-t, 8)
}

func pow(x float32, n int) float32 {
	r := float32(1)
	for i := 0; i < n; i++ {
		r *= x
	}
	return r
}

// String returns the canonical config name.
func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return names[Default]
	}
	return names[k]
}

// MarshalText renders the canonical name so JSON/YAML output stays readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts any spelling understood by FromName.
func (k *Kind) UnmarshalText(text []byte) error {
	*k = FromName(string(text))
	return nil
}

// Parse reports the curve for name and whether the name was recognized.
//
// Accepted spellings: "cubic", "Cubic", "ease-out-cubic", "cubic-out",
// "outcubic", "out_cubic" and "ease_out_cubic".
func Parse(name string) (Kind, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	n = strings.TrimPrefix(n, "ease-")
	n = strings.TrimPrefix(n, "out-")
	n = strings.TrimPrefix(n, "out")
	n = strings.TrimSuffix(n, "-out")
	for k, s := range names {
		if s == n {
			return Kind(k), true
		}
	}
	return Default, false
}

// FromName returns the curve for name, falling back to Default.
func FromName(name string) Kind {
	k, _ := Parse(name)
	return k
}

// Names lists every canonical curve name in declaration order.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names[:])
	return out
}
