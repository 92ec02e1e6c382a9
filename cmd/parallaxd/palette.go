package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/parallaxd/internal/palette"
)

func runPalette(args []string) int {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	backendName := fs.String("backend", "auto", "Launcher: auto, rofi, fuzzel, wofi, dmenu")
	if code, ok := parseFlags(fs, args, "Usage: parallaxd palette [--backend NAME]\n\nPick a daemon control from a rofi/fuzzel/wofi/dmenu menu."); !ok {
		return code
	}

	backend, err := palette.NewBackend(*backendName)
	if err != nil {
		return fail(err)
	}
	result, err := palette.Run(newClient(), backend)
	if errors.Is(err, palette.ErrCancelled) {
		return 0
	}
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(os.Stderr, result)
	return 0
}
