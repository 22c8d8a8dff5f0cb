// evinputd is a demo daemon for the input-device dispatcher library:
//
//	evinputd run            Discover devices under /dev/input, attach dispatchers, and create a virtual mouse/keyboard
//	evinputd list           List currently attached evdev nodes
//	evinputd version        Print version information
//
// run does not read events from the device nodes, so the virtual
// mouse/keyboard receive no input.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"evinput/internal/context"
	"evinput/internal/sink"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		cmdRun(os.Args[2:])
	case "list":
		cmdList(os.Args[2:])
	case "version":
		fmt.Printf("evinputd %s (%s)\n", Version, Commit)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: evinputd <run|list|version> [flags]")
}

func cmdRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	watchDir := fs.String("watch-dir", "/dev/input", "directory to watch for evdev nodes")
	configPath := fs.String("config", "", "path to tuning-table TOML file (default ~/.config/evinput/devices.toml)")
	deviceName := fs.String("name", "evinputd", "name for the virtual uinput devices")
	fs.Parse(args)

	vsink, err := sink.New(*deviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evinputd: create virtual devices: %v\n", err)
		os.Exit(1)
	}
	defer vsink.Close()

	ctx, err := context.New(context.Options{
		Sink:       vsink,
		ConfigPath: *configPath,
		WatchDir:   *watchDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "evinputd: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		ctx.Close()
	}()

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "evinputd: %v\n", err)
		os.Exit(1)
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	watchDir := fs.String("watch-dir", "/dev/input", "directory to watch for evdev nodes")
	fs.Parse(args)

	entries, err := os.ReadDir(*watchDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "evinputd: %v\n", err)
		os.Exit(1)
	}

	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "event") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println(name)
	}
}
