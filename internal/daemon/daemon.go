// Package daemon wires configuration, compositor sources, the engine and the
// control socket into one running parallaxd process.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/1broseidon/parallaxd/internal/config"
	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/hotkeys"
	"github.com/1broseidon/parallaxd/internal/hyprland"
	"github.com/1broseidon/parallaxd/internal/ipc"
	"github.com/1broseidon/parallaxd/internal/niri"
	"github.com/1broseidon/parallaxd/internal/platform"
	"github.com/1broseidon/parallaxd/internal/runtimepath"
	"github.com/1broseidon/parallaxd/internal/scheduler"
	"github.com/1broseidon/parallaxd/internal/sink"
	"github.com/1broseidon/parallaxd/internal/source"
	"github.com/1broseidon/parallaxd/internal/workspace"
	"github.com/1broseidon/parallaxd/internal/x11"
)

// Options configures Run.
type Options struct {
	Config *config.Config
	// ConfigPath is re-read on reload; empty uses the default location.
	ConfigPath string
	Logger     *slog.Logger
	Version    string
	// SocketPath and LockPath override the runtime directory defaults.
	SocketPath string
	LockPath   string
	// ReconcileInterval is how often displays are re-enumerated.
	ReconcileInterval time.Duration
}

// session holds the compositor-specific pieces.
type session struct {
	backend    platform.Backend
	seed       []platform.Display
	workspaces []source.WorkspaceSource
	cursors    source.Chain
	x11        *x11.Connection
	closers    []func() error
}

func (s *session) close(logger *slog.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Debug("close failed", "error", err)
		}
	}
}

// Run starts the daemon and blocks until ctx is done or a termination
// signal arrives.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	lockPath := opts.LockPath
	if lockPath == "" {
		p, err := runtimepath.LockPath()
		if err != nil {
			return err
		}
		lockPath = p
	}
	lock, err := AcquireLock(lockPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	comp, model := ResolveCompositor(cfg, os.Getenv)
	logger.Info("compositor resolved", "compositor", string(comp), "model", model.String())

	plat := source.NewPlatform()
	defer plat.Close()

	sess, err := openSession(ctx, comp, logger)
	if err != nil {
		return err
	}
	defer sess.close(logger)

	// Sinks and frame acks.
	acks := source.NewQueue[string](0)
	defer acks.Close()
	var sinks sink.Multi
	if cfg.Output.LogFrames {
		sinks = append(sinks, sink.LogSink{Logger: logger.With("component", "frames")})
	}
	if ws := cfg.Output.WebSocket; ws.Enabled {
		hub := sink.NewHub(logger.With("component", "hub"), sink.HubConfig{
			OnFrameDone: func(name string) { acks.Push(name) },
		})
		if _, err := hub.Serve(ctx, ws.Listen, ws.Path); err != nil {
			return fmt.Errorf("frame websocket: %w", err)
		}
		sinks = append(sinks, hub)
	}

	engCfg, err := EngineConfig(cfg, comp, model, logger.With("component", "engine"))
	if err != nil {
		return err
	}
	engCfg.Sink = sinks
	eng := engine.New(engCfg)
	for _, d := range sess.seed {
		eng.AddMonitor(d.Name, d.Geometry(), d.Output)
		if d.Primary {
			eng.Monitors().SetPrimary(d.Name)
		}
	}
	logger.Info("engine ready", "monitors", eng.Monitors().Len(), "layers", eng.Layers().Len())

	start := time.Now()
	clock := func() float64 { return time.Since(start).Seconds() }

	reload := func() error {
		var res *config.LoadResult
		var err error
		if opts.ConfigPath == "" {
			res, err = config.LoadWithSources()
		} else {
			res, err = config.LoadFromPath(opts.ConfigPath)
		}
		if err != nil {
			return err
		}
		next, err := EngineConfig(res.Config, comp, model, logger.With("component", "engine"))
		if err != nil {
			return err
		}
		next.Sink = sinks
		eng.Apply(next)
		logger.Info("configuration reloaded")
		return nil
	}

	// Control socket.
	server, err := ipc.NewServer(ipc.ServerConfig{
		Logger:     logger,
		SocketPath: opts.SocketPath,
		Version:    opts.Version,
	})
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop()

	control := source.NewInjected("control")
	defer control.Close()
	dispatcher := NewDispatcher(DispatcherConfig{
		Server: server,
		Engine: eng,
		Inject: control,
		Reload: reload,
		Clock:  clock,
		Logger: logger.With("component", "dispatch"),
	})

	if sess.x11 != nil {
		h := hotkeys.NewHandler(sess.x11, server, logger)
		if err := h.Bind(cfg.Hotkeys); err != nil {
			logger.Warn("hotkeys unavailable", "error", err)
		}
		go sess.x11.EventLoop()
		defer sess.x11.Quit()
	}

	plat.WatchSignals(ctx)
	if sess.backend != nil {
		rec := NewReconciler(ReconcilerConfig{
			Interval: opts.ReconcileInterval,
			Logger:   logger,
		}, sess.backend, plat, sess.seed)
		go rec.Run(ctx)
	}

	var cursorProvider source.CursorProvider
	if len(sess.cursors) > 0 {
		cursorProvider = sess.cursors
	}
	loop, err := scheduler.New(scheduler.Config{
		Logger:     logger.With("component", "scheduler"),
		Engine:     eng,
		Platform:   plat,
		Workspaces: append(sess.workspaces, control),
		Control:    dispatcher,
		Acks:       acks,
		Cursor:     cursorProvider,
		Reload:     reload,
		Clock:      clock,
	})
	if err != nil {
		return err
	}
	defer loop.Close()
	if err := loop.Degraded(); err != nil {
		logger.Warn("running degraded", "error", err)
	}

	logger.Info("parallaxd started", "socket", server.SocketPath(), "version", opts.Version)
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutting down")
	return nil
}

// openSession connects to the compositor. Failures of optional pieces are
// logged; the daemon still runs with control-socket input only.
func openSession(ctx context.Context, comp workspace.Compositor, logger *slog.Logger) (*session, error) {
	s := &session{}

	switch comp {
	case workspace.Hyprland:
		if err := s.openHyprland(ctx, logger); err != nil {
			return nil, err
		}
	case workspace.Niri:
		if err := s.openNiri(ctx, logger); err != nil {
			return nil, err
		}
	case workspace.Sway:
		src, err := source.NewSway(ctx, logger)
		if err != nil {
			return nil, err
		}
		s.workspaces = append(s.workspaces, src)
		s.closers = append(s.closers, src.Close)
		if b, err := platform.NewSwayBackend(ctx); err != nil {
			logger.Warn("sway outputs unavailable", "error", err)
		} else {
			s.backend = b
		}
	}

	// X11 covers pointer queries, hotkeys and, on a plain X session, desktops
	// and monitors.
	if os.Getenv("DISPLAY") != "" {
		conn, err := x11.NewConnection()
		if err != nil {
			if comp == workspace.X11 {
				return nil, fmt.Errorf("connect X11: %w", err)
			}
			logger.Debug("no X11 connection", "error", err)
		} else {
			s.x11 = conn
			s.closers = append(s.closers, func() error { conn.Close(); return nil })
			s.cursors = append(s.cursors, source.X11Pointer{Conn: conn})
			if comp == workspace.X11 {
				desk, err := source.NewX11Desktop(conn, logger)
				if err != nil {
					logger.Warn("desktop tracking unavailable", "error", err)
				} else {
					s.workspaces = append(s.workspaces, desk)
					s.closers = append(s.closers, desk.Close)
				}
			}
			if s.backend == nil {
				s.backend = platform.NewX11Backend(conn)
			}
		}
	}

	if s.backend != nil {
		displays, err := s.backend.Displays()
		if err != nil {
			logger.Warn("display enumeration failed", "backend", s.backend.Name(), "error", err)
		}
		s.seed = displays
		s.closers = append(s.closers, s.backend.Close)
	}
	if len(s.workspaces) == 0 {
		logger.Warn("no workspace source for compositor; only control commands move the parallax", "compositor", string(comp))
	}
	return s, nil
}

func (s *session) openHyprland(ctx context.Context, logger *slog.Logger) error {
	sockets, err := hyprland.FindSockets()
	if err != nil {
		return err
	}
	client := hyprland.NewClient(sockets.Request)

	qctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	monitors, err := client.Monitors(qctx)
	cancel()
	if err != nil {
		logger.Warn("hyprland monitor query failed", "error", err)
	}

	backend := platform.NewHyprlandBackend(client)
	// Hotplug lines carry no geometry; a reconcile pass picks it up.
	hotplug := make(chan struct{}, 1)
	src, err := source.NewHyprland(ctx, source.HyprlandConfig{
		Sockets: sockets,
		Seed:    monitors,
		OnHotplug: func(source.PlatformEvent) {
			select {
			case hotplug <- struct{}{}:
			default:
			}
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	s.backend = &hotplugBackend{Backend: backend, notify: hotplug}
	s.workspaces = append(s.workspaces, src)
	s.closers = append(s.closers, src.Close)
	s.cursors = append(s.cursors, source.HyprlandCursor{Client: client})
	return nil
}

func (s *session) openNiri(ctx context.Context, logger *slog.Logger) error {
	path, err := niri.FindSocket()
	if err != nil {
		return err
	}
	client := niri.NewClient(path)
	src, err := source.NewNiri(ctx, source.NiriConfig{Client: client, Logger: logger})
	if err != nil {
		return fmt.Errorf("niri event stream: %w", err)
	}
	s.workspaces = append(s.workspaces, src)
	s.closers = append(s.closers, src.Close)
	s.backend = platform.NewNiriBackend(client)
	return nil
}

// hotplugBackend exposes a compositor's hotplug notifications to the
// reconciler.
type hotplugBackend struct {
	platform.Backend
	notify <-chan struct{}
}

func (b *hotplugBackend) Changed() <-chan struct{} { return b.notify }
