package palette

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/1broseidon/parallaxd/internal/easing"
	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/ipc"
)

// Controller is the part of ipc.Client the palette drives.
type Controller interface {
	GetStatus() (*engine.Status, error)
	Set(key, value string) (string, error)
	Pause() error
	Resume() error
	Reload() error
	RemoveLayer(id uint32) error
	ClearLayers() (int, error)
}

var _ Controller = (*ipc.Client)(nil)

var modes = []string{"workspace", "cursor", "hybrid"}

// BuildMenu lays out the controls for the daemon's current state.
func BuildMenu(s *engine.Status) []MenuItem {
	pause := MenuItem{Label: "Pause", Action: "pause", Icon: "media-playback-pause"}
	if s.Paused {
		pause = MenuItem{Label: "Resume", Action: "resume", Icon: "media-playback-start"}
	}

	modeMenu := make([]MenuItem, len(modes))
	for i, m := range modes {
		modeMenu[i] = MenuItem{Label: m, Action: "mode:" + m, Active: m == s.Mode}
	}
	easeMenu := make([]MenuItem, 0, len(easing.Names()))
	for _, name := range easing.Names() {
		easeMenu = append(easeMenu, MenuItem{Label: name, Action: "easing:" + name, Active: name == s.Easing})
	}

	items := []MenuItem{
		pause,
		{Label: "Mode: " + s.Mode, Icon: "preferences-desktop-wallpaper", Submenu: modeMenu},
		{Label: "Easing: " + s.Easing, Icon: "preferences-system", Submenu: easeMenu},
	}
	if len(s.Layers) > 0 {
		layerMenu := []MenuItem{{Label: "Remove layer", Header: true}}
		for _, l := range s.Layers {
			layerMenu = append(layerMenu, MenuItem{
				Label:  fmt.Sprintf("#%d %s", l.ID, filepath.Base(l.Path)),
				Action: "layer.remove:" + strconv.FormatUint(uint64(l.ID), 10),
				Icon:   "image-x-generic",
			})
		}
		layerMenu = append(layerMenu, MenuItem{Label: "Remove all", Action: "layer.clear", Icon: "edit-clear"})
		items = append(items, MenuItem{Label: fmt.Sprintf("Layers (%d)", len(s.Layers)), Submenu: layerMenu})
	}
	items = append(items, MenuItem{Label: "Reload config", Action: "reload", Icon: "view-refresh"})
	return items
}

// Execute runs one menu action and describes the result.
func Execute(c Controller, action string) (string, error) {
	verb, arg, _ := strings.Cut(action, ":")
	switch verb {
	case "pause":
		return "paused", c.Pause()
	case "resume":
		return "resumed", c.Resume()
	case "reload":
		return "config reloaded", c.Reload()
	case "mode", "easing":
		v, err := c.Set(verb, arg)
		if err != nil {
			return "", err
		}
		return verb + " = " + v, nil
	case "layer.remove":
		id, err := strconv.ParseUint(arg, 10, 32)
		if err != nil {
			return "", fmt.Errorf("invalid layer id %q", arg)
		}
		if err := c.RemoveLayer(uint32(id)); err != nil {
			return "", err
		}
		return fmt.Sprintf("layer %d removed", id), nil
	case "layer.clear":
		n, err := c.ClearLayers()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d layers removed", n), nil
	}
	return "", fmt.Errorf("unknown palette action %q", action)
}

// Run shows the palette for the daemon's current state and executes the
// choice.
func Run(c Controller, b Backend) (string, error) {
	status, err := c.GetStatus()
	if err != nil {
		return "", err
	}
	menu := NewMenu(b, "parallaxd", BuildMenu(status))
	menu.SetMessage(fmt.Sprintf("%s on %s, %d monitors", status.Mode, status.Compositor, len(status.Monitors)))
	action, err := menu.Show()
	if err != nil {
		return "", err
	}
	return Execute(c, action)
}
