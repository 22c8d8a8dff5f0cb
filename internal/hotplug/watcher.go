// Package hotplug watches /dev/input for device nodes appearing and
// disappearing, standing in for udev/netlink monitoring (unavailable
// without cgo) with a functionally equivalent fsnotify-based watcher.
package hotplug

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/fsnotify/fsnotify"
)

// Event is a single hotplug notification.
type Event struct {
	Path  string
	Added bool
}

var eventNodeRE = regexp.MustCompile(`^event[0-9]+$`)

// Watcher monitors a directory (normally /dev/input) for evdev node
// add/remove and reports existing nodes at Start.
type Watcher struct {
	dir string

	fsWatcher *fsnotify.Watcher
	events    chan Event
	errors    chan error
	done      chan struct{}
}

// New creates a watcher rooted at dir.
func New(dir string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:       dir,
		fsWatcher: fsWatcher,
		events:    make(chan Event, 16),
		errors:    make(chan error, 4),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of hotplug notifications.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start enumerates existing event nodes, reporting each as added, then
// begins watching for changes on its own goroutine.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return err
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if eventNodeRE.MatchString(entry.Name()) {
			w.events <- Event{Path: filepath.Join(w.dir, entry.Name()), Added: true}
		}
	}

	go w.loop()
	return nil
}

// Stop closes the watcher and its channels.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	defer close(w.events)
	defer close(w.errors)
	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			if !eventNodeRE.MatchString(name) {
				continue
			}
			switch {
			case ev.Op&fsnotify.Create != 0:
				w.events <- Event{Path: ev.Name, Added: true}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.events <- Event{Path: ev.Name, Added: false}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}
