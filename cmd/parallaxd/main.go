package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/1broseidon/parallaxd/internal/config"
	"github.com/1broseidon/parallaxd/internal/daemon"
	"github.com/1broseidon/parallaxd/internal/tui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		os.Exit(runDaemon(nil))
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "workspace":
		os.Exit(runWorkspace(os.Args[2:]))
	case "cursor":
		os.Exit(runCursor(os.Args[2:]))
	case "set":
		os.Exit(runSet(os.Args[2:]))
	case "get":
		os.Exit(runGet(os.Args[2:]))
	case "layer":
		os.Exit(runLayer(os.Args[2:]))
	case "pause", "resume", "toggle-pause", "toggle-mode", "reload":
		os.Exit(runSimple(os.Args[1], os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
	case "palette":
		os.Exit(runPalette(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "version", "--version":
		fmt.Println("parallaxd " + version)
		os.Exit(0)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: parallaxd [command] [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Run the parallax daemon (default)")
	fmt.Fprintln(w, "  status              Show engine status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  workspace N         Switch to workspace N")
	fmt.Fprintln(w, "  cursor X Y          Inject a pointer position")
	fmt.Fprintln(w, "  set KEY VALUE       Change a runtime setting")
	fmt.Fprintln(w, "  get KEY             Read a runtime setting")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  layer add PATH      Add a layer")
	fmt.Fprintln(w, "  layer remove ID     Remove a layer")
	fmt.Fprintln(w, "  layer modify ID P V Change a layer property")
	fmt.Fprintln(w, "  layer list          List layers")
	fmt.Fprintln(w, "  layer clear         Remove all layers")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  pause | resume      Freeze or resume animation")
	fmt.Fprintln(w, "  toggle-pause        Flip the paused state")
	fmt.Fprintln(w, "  toggle-mode         Cycle workspace, cursor and hybrid modes")
	fmt.Fprintln(w, "  reload              Reload the configuration file")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open interactive dashboard")
	fmt.Fprintln(w, "  palette             Pick a control from a launcher menu")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  version             Print version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'parallaxd <command> --help' for command-specific options.")
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/parallaxd/config.yaml)")
	socket := fs.String("socket", "", "Control socket path (default: $XDG_RUNTIME_DIR/parallaxd/parallaxd.sock)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: parallaxd daemon [--config PATH] [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run the parallax daemon in the foreground. SIGHUP reloads the config;")
		fmt.Fprintln(os.Stderr, "SIGINT and SIGTERM shut down.")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	logger := newLogger(res.Config.Global, os.Stderr)
	slog.SetDefault(logger)
	for _, f := range res.Files {
		logger.Debug("config file loaded", "path", f)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = daemon.Run(ctx, daemon.Options{
		Config:     res.Config,
		ConfigPath: *path,
		Logger:     logger,
		Version:    version,
		SocketPath: *socket,
	})
	if err != nil {
		logger.Error("daemon failed", "error", err)
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return 3
		}
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

// newLogger builds the process logger from the global config: text on a
// terminal, JSON otherwise.
func newLogger(g config.GlobalConfig, w *os.File) *slog.Logger {
	opts := &slog.HandlerOptions{Level: logLevel(g)}
	if term.IsTerminal(int(w.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func logLevel(g config.GlobalConfig) slog.Level {
	if g.Debug {
		return slog.LevelDebug
	}
	switch g.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("config", "", "Config file path (default: ~/.config/parallaxd/config.yaml)")

	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stderr, "Usage: parallaxd tui [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive dashboard for a running daemon. The Settings tab edits the")
		fmt.Fprintln(os.Stderr, "config file even when the daemon is not running.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  tab, 1-3  Switch tabs")
		fmt.Fprintln(os.Stderr, "  :, Enter  Command prompt (Status tab)")
		fmt.Fprintln(os.Stderr, "  x         Remove selected layer (Layers tab)")
		fmt.Fprintln(os.Stderr, "  e         Edit settings (Settings tab)")
		fmt.Fprintln(os.Stderr, "  p         Pause or resume")
		fmt.Fprintln(os.Stderr, "  Ctrl+S    Save config and reload the daemon")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C Quit")
		return 0
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	t := tui.New(*path, newClient())
	if err := t.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
