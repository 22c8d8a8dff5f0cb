// Package dispatch implements the per-device event dispatcher: the
// subsystem that transforms raw device-level events (§6 input
// boundary) into the semantic event stream (§6 output boundary). It
// has two variants, Touchpad (§4.5) and Fallback (§4.6), both
// satisfying Dispatcher.
package dispatch

import "evinput/internal/proto"

// Dispatcher consumes a device's raw event stream and emits semantic
// events through the Sink it was constructed with.
type Dispatcher interface {
	Process(e proto.RawEvent)
	Destroy()
}

// touch/finger/event-mask bit sets shared by the touchpad dispatcher.
const (
	touchStateTouching uint8 = 1 << iota
	touchStateMoving
)

const (
	fingersOne uint8 = 1 << iota
	fingersTwo
	fingersThree
)

const (
	eventAbsoluteAny uint8 = 1 << iota
	eventAbsoluteX
	eventAbsoluteY
	eventReport
)
