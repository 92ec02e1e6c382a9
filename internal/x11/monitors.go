package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
)

// Monitor represents a physical display
type Monitor struct {
	Output    uint32
	Name      string
	X         int
	Y         int
	Width     int
	Height    int
	RefreshHz float64
	Primary   bool
}

// Monitors lists active outputs through RandR. Without RandR the whole root
// window is reported as one monitor.
func (c *Connection) Monitors() ([]Monitor, error) {
	conn := c.XUtil.Conn()
	if err := randr.Init(conn); err != nil {
		return c.rootMonitor()
	}

	resources, err := randr.GetScreenResources(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(conn, c.Root).Reply(); err == nil {
		primary = reply.Output
	}

	rates := modeRates(resources.Modes)

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Disabled CRTC.
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		out := info.Outputs[0]
		name := fmt.Sprintf("Monitor%d", i)
		if outInfo, err := randr.GetOutputInfo(conn, out, resources.ConfigTimestamp).Reply(); err == nil {
			name = string(outInfo.Name)
		}

		monitors = append(monitors, Monitor{
			Output:    uint32(out),
			Name:      name,
			X:         int(info.X),
			Y:         int(info.Y),
			Width:     int(info.Width),
			Height:    int(info.Height),
			RefreshHz: rates[info.Mode],
			Primary:   out == primary,
		})
	}

	if len(monitors) == 0 {
		return c.rootMonitor()
	}
	return monitors, nil
}

func (c *Connection) rootMonitor() ([]Monitor, error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get root geometry: %w", err)
	}
	return []Monitor{{
		Name:    "root",
		Width:   int(geom.Width),
		Height:  int(geom.Height),
		Primary: true,
	}}, nil
}

// modeRates maps each RandR mode to its refresh rate in Hz.
func modeRates(modes []randr.ModeInfo) map[randr.Mode]float64 {
	rates := make(map[randr.Mode]float64, len(modes))
	for _, m := range modes {
		rates[randr.Mode(m.Id)] = refreshRate(m.DotClock, m.Htotal, m.Vtotal)
	}
	return rates
}

func refreshRate(dotClock uint32, htotal, vtotal uint16) float64 {
	if htotal == 0 || vtotal == 0 {
		return 0
	}
	return float64(dotClock) / (float64(htotal) * float64(vtotal))
}

// MonitorAt returns the monitor containing (x, y), or nil.
func MonitorAt(monitors []Monitor, x, y int) *Monitor {
	for i := range monitors {
		mon := &monitors[i]
		if x >= mon.X && x < mon.X+mon.Width && y >= mon.Y && y < mon.Y+mon.Height {
			return mon
		}
	}
	return nil
}
