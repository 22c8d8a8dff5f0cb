// Package timerfd implements the monotonic one-shot timer the tap FSM
// arms on entry to its tap state (§4.4), backed by Linux's timerfd so
// it can be registered with the host event loop exactly like a device
// fd — the spec's "two fd sources per touchpad device" (§5).
package timerfd

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/sys/unix"

	"evinput/internal/eventloop"
	"evinput/internal/monoclock"
)

// Timer is a one-shot CLOCK_MONOTONIC timer. It satisfies
// tapfsm.Timer.
type Timer struct {
	fd     int
	loop   *eventloop.Loop
	source *eventloop.Source
	onFire func(nowMs int64)
}

// New creates a timerfd and registers it with loop. The handler isn't
// known yet at this point in construction — the dispatcher that owns
// this timer doesn't exist until after its timer does — so it's
// supplied separately via SetHandler before the timer can usefully
// fire.
//
// Construction failure here is fatal to touchpad dispatcher creation
// (§7): the caller should fall back to the generic dispatcher.
func New(loop *eventloop.Loop) (*Timer, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("timerfd: create: %w", err)
	}

	t := &Timer{fd: fd, loop: loop}

	source, err := loop.AddFD(fd, t.handleReadable)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("timerfd: register with event loop: %w", err)
	}
	t.source = source

	return t, nil
}

// SetHandler installs the function invoked on the loop's goroutine
// whenever the timer expires; its nowMs argument is a monotonic
// millisecond timestamp taken at fire time, not at arm time (§9:
// timer fires are not guaranteed to arrive in any particular order
// relative to device events).
func (t *Timer) SetHandler(onFire func(nowMs int64)) {
	t.onFire = onFire
}

// Arm schedules the timer to fire once after d.
func (t *Timer) Arm(d time.Duration) {
	spec := &unix.ItimerSpec{
		Value: unix.NsecToTimespec(d.Nanoseconds()),
	}
	if err := unix.TimerfdSettime(t.fd, 0, spec, nil); err != nil {
		log.Printf("timerfd: settime: %v", err)
	}
}

// Close deregisters and closes the timer fd.
func (t *Timer) Close() error {
	t.loop.RemoveFD(t.source)
	return unix.Close(t.fd)
}

func (t *Timer) handleReadable() {
	var buf [8]byte
	n, err := unix.Read(t.fd, buf[:])
	if err != nil || n != len(buf) {
		// Per §7 (timer-io): a short read here is impossible absent
		// fd misuse; log and continue rather than treat it as fatal.
		log.Printf("timerfd: short read (n=%d, err=%v)", n, err)
	}

	if t.onFire != nil {
		t.onFire(monoclock.NowMs())
	}
}
