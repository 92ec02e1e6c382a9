package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/1broseidon/parallaxd/internal/engine"
	"github.com/1broseidon/parallaxd/internal/ipc"
)

func newClient() *ipc.Client {
	return ipc.NewClient()
}

// parseFlags parses args with usage text; ok is false when the caller should
// return code.
func parseFlags(fs *flag.FlagSet, args []string, usage string) (code int, ok bool) {
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func fail(err error) int {
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail(err)
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print the raw status as JSON")
	if code, ok := parseFlags(fs, args, "Usage: parallaxd status [--json]"); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		return 2
	}

	status, err := newClient().GetStatus()
	if err != nil {
		return fail(err)
	}
	if *asJSON {
		return printJSON(status)
	}
	printStatus(status)
	return 0
}

func printStatus(s *engine.Status) {
	state := "idle"
	switch {
	case s.Paused:
		state = "paused"
	case s.Animating:
		state = "animating"
	}
	fmt.Printf("compositor: %s (%s)\n", s.Compositor, s.Model)
	fmt.Printf("mode:       %s\n", s.Mode)
	fmt.Printf("state:      %s, %d frames\n", state, s.Frames)
	fmt.Printf("animation:  %s %.2fs, shift %.0fpx\n", s.Easing, s.Duration, s.Shift)
	fmt.Printf("timing:     %.0f fps, idle %.1f Hz, debounce %.0f ms\n", s.Timing.FPS, s.Timing.IdlePollRate, s.Timing.Debounce*1000)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nMONITOR\tGEOMETRY\tWORKSPACE\tOFFSET\t")
	for _, m := range s.Monitors {
		name := m.Name
		if m.Primary {
			name += "*"
		}
		g := m.Geometry
		fmt.Fprintf(w, "%s\t%dx%d+%d+%d\t%s\t%.1f,%.1f\t\n", name, g.Width, g.Height, g.X, g.Y, m.Current.String(), m.Offset.X, m.Offset.Y)
	}
	w.Flush()
	if len(s.Layers) > 0 {
		fmt.Println()
		printLayers(s.Layers)
	}
}

func printLayers(layers []engine.LayerStatus) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATH\tMULTIPLIER\tOPACITY\tBLUR\t")
	for _, l := range layers {
		fmt.Fprintf(w, "%d\t%s\t%.2f,%.2f\t%.2f\t%.2f\t\n", l.ID, l.Path, l.Multiplier.X, l.Multiplier.Y, l.Opacity, l.Blur)
	}
	w.Flush()
}

// parseWorkspaceArgs builds a payload from "N" or "X,Y" (2D grid) plus
// optional --from and --monitor flags.
func parseWorkspaceArgs(args []string) (ipc.WorkspacePayload, error) {
	fs := flag.NewFlagSet("workspace", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	from := fs.String("from", "", "Previous workspace (N or X,Y)")
	mon := fs.String("monitor", "", "Target monitor name")
	tags := fs.Uint("tags", 0, "Visible tag mask (tag compositors)")
	focused := fs.Uint("focused-tag", 0, "Focused tag mask (tag compositors)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: parallaxd workspace [--from N] [--monitor NAME] N|X,Y")
	}

	var p ipc.WorkspacePayload
	if err := fs.Parse(args); err != nil {
		return p, err
	}
	if fs.NArg() != 1 {
		return p, fmt.Errorf("workspace requires exactly one target")
	}
	to, x, y, err := parseWorkspaceRef(fs.Arg(0))
	if err != nil {
		return p, err
	}
	p.To, p.ToX, p.ToY = to, x, y
	if *from != "" {
		f, fx, fy, err := parseWorkspaceRef(*from)
		if err != nil {
			return p, fmt.Errorf("--from: %w", err)
		}
		p.From, p.FromX, p.FromY = f, fx, fy
	}
	p.Monitor = *mon
	p.Tags = uint32(*tags)
	p.FocusedTag = uint32(*focused)
	return p, nil
}

func parseWorkspaceRef(s string) (n, x, y int, err error) {
	if xs, ys, ok := strings.Cut(s, ","); ok {
		x, errX := strconv.Atoi(strings.TrimSpace(xs))
		y, errY := strconv.Atoi(strings.TrimSpace(ys))
		if errX != nil || errY != nil {
			return 0, 0, 0, fmt.Errorf("invalid grid position %q", s)
		}
		return 0, x, y, nil
	}
	n, err = strconv.Atoi(s)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid workspace %q", s)
	}
	return n, 0, 0, nil
}

func runWorkspace(args []string) int {
	p, err := parseWorkspaceArgs(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := newClient().Workspace(p); err != nil {
		return fail(err)
	}
	return 0
}

func runCursor(args []string) int {
	fs := flag.NewFlagSet("cursor", flag.ContinueOnError)
	if code, ok := parseFlags(fs, args, "Usage: parallaxd cursor X Y"); !ok {
		return code
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: parallaxd cursor X Y")
		return 2
	}
	x, errX := strconv.ParseFloat(fs.Arg(0), 64)
	y, errY := strconv.ParseFloat(fs.Arg(1), 64)
	if errX != nil || errY != nil {
		fmt.Fprintln(os.Stderr, "cursor position must be numeric")
		return 2
	}
	if err := newClient().Cursor(x, y); err != nil {
		return fail(err)
	}
	return 0
}

func runSet(args []string) int {
	fs := flag.NewFlagSet("set", flag.ContinueOnError)
	if code, ok := parseFlags(fs, args, "Usage: parallaxd set KEY VALUE"); !ok {
		return code
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: parallaxd set KEY VALUE")
		return 2
	}
	v, err := newClient().Set(fs.Arg(0), strings.Join(fs.Args()[1:], " "))
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s = %s\n", fs.Arg(0), v)
	return 0
}

func runGet(args []string) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	if code, ok := parseFlags(fs, args, "Usage: parallaxd get KEY"); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: parallaxd get KEY")
		return 2
	}
	v, err := newClient().Get(fs.Arg(0))
	if err != nil {
		return fail(err)
	}
	fmt.Println(v)
	return 0
}

func runSimple(cmd string, args []string) int {
	if len(args) > 0 {
		if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
			fmt.Fprintf(os.Stdout, "Usage: parallaxd %s\n", cmd)
			return 0
		}
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", cmd)
		return 2
	}
	c := newClient()
	var err error
	switch cmd {
	case "pause":
		err = c.Pause()
	case "resume":
		err = c.Resume()
	case "reload":
		err = c.Reload()
	case "toggle-pause":
		var paused bool
		if paused, err = c.TogglePause(); err == nil {
			fmt.Printf("paused: %t\n", paused)
		}
	case "toggle-mode":
		var mode string
		if mode, err = c.ToggleMode(); err == nil {
			fmt.Printf("mode: %s\n", mode)
		}
	}
	if err != nil {
		return fail(err)
	}
	return 0
}

func printLayerUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  parallaxd layer add [--shift M] [--opacity O] [--blur B] PATH")
	fmt.Fprintln(os.Stderr, "  parallaxd layer remove ID")
	fmt.Fprintln(os.Stderr, "  parallaxd layer modify ID PROPERTY VALUE")
	fmt.Fprintln(os.Stderr, "  parallaxd layer list [--json]")
	fmt.Fprintln(os.Stderr, "  parallaxd layer clear")
}

func runLayer(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printLayerUsage()
		return 2
	}
	c := newClient()

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("layer add", flag.ContinueOnError)
		shift := fs.String("shift", "", "Shift multiplier: one number or X,Y")
		opacity := fs.Float64("opacity", -1, "Opacity 0..1 (default 1)")
		blur := fs.Float64("blur", 0, "Blur amount")
		if code, ok := parseFlags(fs, args[1:], "Usage: parallaxd layer add [--shift M] [--opacity O] [--blur B] PATH"); !ok {
			return code
		}
		if fs.NArg() != 1 {
			printLayerUsage()
			return 2
		}
		p := ipc.LayerAddPayload{Path: fs.Arg(0), ShiftMultiplier: *shift, Blur: float32(*blur)}
		if *opacity >= 0 {
			o := float32(*opacity)
			p.Opacity = &o
		}
		layer, err := c.AddLayer(p)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("layer %d added\n", layer.ID)
		return 0

	case "remove":
		if len(args) != 2 {
			printLayerUsage()
			return 2
		}
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid layer id %q\n", args[1])
			return 2
		}
		if err := c.RemoveLayer(uint32(id)); err != nil {
			return fail(err)
		}
		return 0

	case "modify":
		if len(args) != 4 {
			printLayerUsage()
			return 2
		}
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid layer id %q\n", args[1])
			return 2
		}
		if _, err := c.ModifyLayer(uint32(id), args[2], args[3]); err != nil {
			return fail(err)
		}
		return 0

	case "list":
		fs := flag.NewFlagSet("layer list", flag.ContinueOnError)
		asJSON := fs.Bool("json", false, "Print layers as JSON")
		if code, ok := parseFlags(fs, args[1:], "Usage: parallaxd layer list [--json]"); !ok {
			return code
		}
		layers, err := c.ListLayers()
		if err != nil {
			return fail(err)
		}
		if *asJSON {
			return printJSON(layers)
		}
		printLayers(layers)
		return 0

	case "clear":
		n, err := c.ClearLayers()
		if err != nil {
			return fail(err)
		}
		fmt.Printf("%d layers removed\n", n)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown layer subcommand: %s\n", args[0])
		printLayerUsage()
		return 2
	}
}
