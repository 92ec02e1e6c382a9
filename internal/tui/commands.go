package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/1broseidon/parallaxd/internal/ipc"
)

// runCommand executes one prompt line against the daemon and returns a
// short result for the notice line.
//
//	workspace N [monitor]   switch to workspace N
//	cursor X Y              inject a pointer sample
//	mode NAME               shorthand for set mode NAME
//	set KEY VALUE | get KEY
//	pause | resume | reload
//	layer remove ID
func runCommand(c Controller, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "workspace", "ws":
		if len(args) < 1 || len(args) > 2 {
			return "", fmt.Errorf("usage: workspace N [monitor]")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "", fmt.Errorf("invalid workspace %q", args[0])
		}
		p := ipc.WorkspacePayload{To: n}
		if len(args) == 2 {
			p.Monitor = args[1]
		}
		if err := c.Workspace(p); err != nil {
			return "", err
		}
		return fmt.Sprintf("workspace %d queued", n), nil

	case "cursor":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: cursor X Y")
		}
		x, errX := strconv.ParseFloat(args[0], 64)
		y, errY := strconv.ParseFloat(args[1], 64)
		if errX != nil || errY != nil {
			return "", fmt.Errorf("invalid cursor position %q %q", args[0], args[1])
		}
		if err := c.Cursor(x, y); err != nil {
			return "", err
		}
		return fmt.Sprintf("cursor %.0f,%.0f", x, y), nil

	case "mode":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: mode workspace|cursor|hybrid")
		}
		return setValue(c, "mode", args[0])

	case "set":
		if len(args) < 2 {
			return "", fmt.Errorf("usage: set KEY VALUE")
		}
		return setValue(c, args[0], strings.Join(args[1:], " "))

	case "get":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: get KEY")
		}
		v, err := c.Get(args[0])
		if err != nil {
			return "", err
		}
		return args[0] + " = " + v, nil

	case "pause":
		return "paused", c.Pause()
	case "resume":
		return "resumed", c.Resume()
	case "reload":
		return "config reloaded", c.Reload()

	case "layer":
		if len(args) != 2 || args[0] != "remove" {
			return "", fmt.Errorf("usage: layer remove ID")
		}
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return "", fmt.Errorf("invalid layer id %q", args[1])
		}
		if err := c.RemoveLayer(uint32(id)); err != nil {
			return "", err
		}
		return fmt.Sprintf("layer %d removed", id), nil
	}
	return "", fmt.Errorf("unknown command %q", verb)
}

func setValue(c Controller, key, value string) (string, error) {
	v, err := c.Set(key, value)
	if err != nil {
		return "", err
	}
	return key + " = " + v, nil
}
