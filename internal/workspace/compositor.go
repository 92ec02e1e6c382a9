package workspace

import (
	"os"
	"strings"
)

// Compositor identifies the window manager feeding workspace events.
type Compositor string

const (
	Hyprland Compositor = "hyprland"
	Sway     Compositor = "sway"
	River    Compositor = "river"
	Niri     Compositor = "niri"
	Wayfire  Compositor = "wayfire"
	X11      Compositor = "x11"
	Generic  Compositor = "generic"
)

// ParseCompositor parses a config spelling. "auto" and "" report ok=false.
func ParseCompositor(s string) (Compositor, bool) {
	switch c := Compositor(strings.ToLower(strings.TrimSpace(s))); c {
	case Hyprland, Sway, River, Niri, Wayfire, X11, Generic:
		return c, true
	case "i3":
		return Sway, true
	case "ewmh":
		return X11, true
	default:
		return Generic, false
	}
}

// DetectCompositor inspects the session environment.
func DetectCompositor() Compositor {
	return DetectCompositorEnv(os.Getenv)
}

// DetectCompositorEnv is DetectCompositor over an arbitrary environment.
func DetectCompositorEnv(getenv func(string) string) Compositor {
	switch {
	case getenv("HYPRLAND_INSTANCE_SIGNATURE") != "":
		return Hyprland
	case getenv("SWAYSOCK") != "":
		return Sway
	case getenv("NIRI_SOCKET") != "":
		return Niri
	case getenv("WAYFIRE_SOCKET") != "":
		return Wayfire
	}

	desktop := strings.ToLower(getenv("XDG_CURRENT_DESKTOP"))
	for _, c := range []Compositor{Hyprland, Sway, River, Niri, Wayfire} {
		if strings.Contains(desktop, string(c)) {
			return c
		}
	}

	if getenv("WAYLAND_DISPLAY") == "" && getenv("DISPLAY") != "" {
		return X11
	}
	return Generic
}

// DetectModel maps a compositor to its addressing scheme. Unknown
// compositors use GlobalNumeric.
func DetectModel(c Compositor) Model {
	switch c {
	case River:
		return TagBased
	case Niri, Wayfire:
		return PerOutputNumeric
	default:
		return GlobalNumeric
	}
}
