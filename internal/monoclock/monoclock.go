// Package monoclock provides the single monotonic time source used
// anywhere this module needs "now" outside of a device's own reported
// event timestamps — principally the tap FSM's timer fires (§9: never
// derive timestamps from wall-clock time).
package monoclock

import (
	"time"

	"golang.org/x/sys/unix"
)

// processStart anchors the fallback path below; time.Since against it
// uses the runtime's monotonic clock reading, never wall-clock.
var processStart = time.Now()

// NowMs returns the current CLOCK_MONOTONIC time in milliseconds.
func NowMs() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return int64(time.Since(processStart) / time.Millisecond)
	}
	return ts.Sec*1000 + ts.Nsec/int64(time.Millisecond)
}
