// Package hotkeys binds global X11 key sequences to control commands.
package hotkeys

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/parallaxd/internal/config"
	"github.com/1broseidon/parallaxd/internal/ipc"
	"github.com/1broseidon/parallaxd/internal/x11"
)

// Commander runs a control request on the loop goroutine.
type Commander interface {
	Enqueue(req *ipc.Request) *ipc.Response
}

// Binding maps a key sequence such as "Mod4-Shift-p" to a command.
type Binding struct {
	Keys    string
	Command ipc.CommandType
}

// Bindings lists the configured hotkeys, skipping empty ones.
func Bindings(cfg config.HotkeysConfig) []Binding {
	var out []Binding
	if cfg.ToggleMode != "" {
		out = append(out, Binding{Keys: cfg.ToggleMode, Command: ipc.CommandToggleMode})
	}
	if cfg.Pause != "" {
		out = append(out, Binding{Keys: cfg.Pause, Command: ipc.CommandTogglePause})
	}
	return out
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	cmd    Commander
	logger *slog.Logger
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler on conn. The connection's EventLoop
// delivers the key presses.
func NewHandler(conn *x11.Connection, cmd Commander, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})

	return &Handler{
		xu:     conn.XUtil,
		root:   conn.Root,
		cmd:    cmd,
		logger: logger.With("component", "hotkeys"),
	}
}

// Bind registers every configured hotkey. It stops at the first failure.
func (h *Handler) Bind(cfg config.HotkeysConfig) error {
	for _, b := range Bindings(cfg) {
		if err := h.Register(b); err != nil {
			return err
		}
		h.logger.Info("hotkey bound", "keys", b.Keys, "command", b.Command)
	}
	if cfg.Palette != "" {
		if err := h.RegisterFunc(cfg.Palette, func() { h.launchPalette(cfg.PaletteBackend) }); err != nil {
			return fmt.Errorf("failed to bind %q: %w", cfg.Palette, err)
		}
		h.logger.Info("hotkey bound", "keys", cfg.Palette, "command", "palette")
	}
	return nil
}

// PaletteArgs is the command line the palette hotkey runs after the
// executable path.
func PaletteArgs(backend string) []string {
	if backend == "" || backend == "auto" {
		return []string{"palette"}
	}
	return []string{"palette", "--backend", backend}
}

// launchPalette runs the palette as a child process so the X event loop
// keeps serving while the menu is open.
func (h *Handler) launchPalette(backend string) {
	exe, err := os.Executable()
	if err != nil {
		h.logger.Warn("palette: failed to find executable", "error", err)
		return
	}
	cmd := exec.Command(exe, PaletteArgs(backend)...)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		h.logger.Warn("palette: failed to launch", "error", err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			h.logger.Debug("palette exited", "error", err)
		}
	}()
}

// Register binds one key sequence to a control command.
func (h *Handler) Register(b Binding) error {
	if err := h.RegisterFunc(b.Keys, func() {
		resp := h.cmd.Enqueue(&ipc.Request{Command: b.Command})
		if resp.Status != ipc.StatusOK {
			h.logger.Warn("hotkey command failed", "command", b.Command, "error", resp.Error)
			return
		}
		h.logger.Debug("hotkey triggered", "command", b.Command, "result", string(resp.Data))
	}); err != nil {
		return fmt.Errorf("failed to bind %q: %w", b.Keys, err)
	}
	return nil
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns every OR-combination of base, including 0.
func ignoreMasks(base []uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	out := make([]uint16, 0, len(unique))
	for mask := range unique {
		out = append(out, mask)
	}
	return out
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
