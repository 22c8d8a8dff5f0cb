// Package context implements the public handle (C13): it owns the set
// of live devices, wires the event loop, seat glue, config table, and
// emission sink together, and drives device discovery through the
// hotplug watcher and the device shell.
package context

import (
	"fmt"
	"log"
	"os"
	"regexp"

	evdev "github.com/gvalkov/golang-evdev"

	"evinput/internal/config"
	"evinput/internal/device"
	"evinput/internal/emit"
	"evinput/internal/eventloop"
	"evinput/internal/hotplug"
	"evinput/internal/seat"
)

// Context is the library's public handle.
type Context struct {
	loop    *eventloop.Loop
	seat    *seat.Seat
	config  *config.Config
	sink    emit.Sink
	watcher *hotplug.Watcher

	devices map[string]*openDevice
}

type openDevice struct {
	record  *device.Record
	file    *evdev.InputDevice
	seatFD  *os.File
}

// Options configures a Context. Sink is required; an empty ConfigPath
// selects the default tuning-table path and an empty WatchDir selects
// /dev/input.
type Options struct {
	Sink       emit.Sink
	ConfigPath string
	WatchDir   string
}

// New constructs a Context: it connects to the seat (falling back to
// direct device opens when no session bus is reachable, §4.10), loads
// the tuning table (§4.11), and creates the hotplug watcher (§4.9).
// Neither the watcher nor the event loop is started until Run.
func New(opts Options) (*Context, error) {
	if opts.Sink == nil {
		return nil, fmt.Errorf("context: Sink is required")
	}
	watchDir := opts.WatchDir
	if watchDir == "" {
		watchDir = "/dev/input"
	}

	loop, err := eventloop.New()
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("context: %w", err)
	}

	watcher, err := hotplug.New(watchDir)
	if err != nil {
		loop.Close()
		return nil, fmt.Errorf("context: %w", err)
	}

	return &Context{
		loop:    loop,
		seat:    seat.Open(),
		config:  cfg,
		sink:    opts.Sink,
		watcher: watcher,
		devices: make(map[string]*openDevice),
	}, nil
}

var nodeNumberRE = regexp.MustCompile(`event([0-9]+)$`)

// Run starts hotplug watching and the event loop; it blocks until
// Close is called from another goroutine.
func (c *Context) Run() error {
	if err := c.watcher.Start(); err != nil {
		return fmt.Errorf("context: start watcher: %w", err)
	}
	go c.handleHotplug()
	return c.loop.Run()
}

func (c *Context) handleHotplug() {
	for {
		select {
		case ev, ok := <-c.watcher.Events():
			if !ok {
				return
			}
			if ev.Added {
				if err := c.openNode(ev.Path); err != nil {
					log.Printf("context: open %s: %v", ev.Path, err)
				}
			} else {
				c.closeNode(ev.Path)
			}
		case err, ok := <-c.watcher.Errors():
			if !ok {
				return
			}
			log.Printf("context: watcher error: %v", err)
		}
	}
}

func (c *Context) openNode(path string) error {
	if !nodeNumberRE.MatchString(path) {
		return nil
	}

	// Acquired through the seat (logind TakeDevice, or a direct open
	// when no session bus is reachable); used only to probe
	// capability bitmaps via ioctl. golang-evdev's own fd on the same
	// node supplies the vendor/product ids. No events are read from
	// either fd, so the record's dispatcher receives no input.
	seatFD, err := c.seat.OpenDevice(path)
	if err != nil {
		return err
	}

	ev, err := evdev.Open(path)
	if err != nil {
		c.seat.CloseDevice(seatFD)
		return err
	}

	rec, err := device.Open(path, int(seatFD.Fd()), ev.Inputid.Vendor, ev.Inputid.Product, c.sink, c.loop, c.config, nil)
	if err != nil {
		ev.File.Close()
		c.seat.CloseDevice(seatFD)
		if err == device.ErrUnhandledDevice {
			return nil
		}
		return err
	}

	c.devices[path] = &openDevice{record: rec, file: ev, seatFD: seatFD}
	return nil
}

func (c *Context) closeNode(path string) {
	od, ok := c.devices[path]
	if !ok {
		return
	}
	delete(c.devices, path)

	od.record.Close(func() error {
		closeErr := od.file.File.Close()
		if err := c.seat.CloseDevice(od.seatFD); err != nil && closeErr == nil {
			closeErr = err
		}
		return closeErr
	})
}

// Close tears every device down and stops the event loop and watcher.
func (c *Context) Close() error {
	for path := range c.devices {
		c.closeNode(path)
	}
	_ = c.watcher.Stop()
	_ = c.seat.Close()
	return c.loop.Close()
}

// Devices returns the paths of all currently open devices.
func (c *Context) Devices() []string {
	paths := make([]string, 0, len(c.devices))
	for path := range c.devices {
		paths = append(paths, path)
	}
	return paths
}
