// Package emit defines the semantic output boundary (§6): the small,
// normalized event set dispatchers produce, and the per-device Sink
// callback set an embedder registers to receive them.
package emit

import "evinput/internal/proto"

// ButtonState is the press/release state of a pointer button or key.
type ButtonState int

const (
	Released ButtonState = iota
	Pressed
)

// Axis identifies a scroll axis.
type Axis int

const (
	Vertical Axis = iota
	Horizontal
)

// TouchType identifies a touch lifecycle event.
type TouchType int

const (
	TouchDown TouchType = iota
	TouchMotion
	TouchUp
)

// Sink is the per-device callback set an embedder registers to
// receive semantic events. All methods are called from the host event
// loop's goroutine; an embedder must not call back into the library
// from within a Sink method in a way that reenters the same device's
// dispatch (§5).
type Sink interface {
	PointerMotion(timeMs int64, dx, dy proto.Fixed24_8)
	PointerMotionAbsolute(timeMs int64, x, y proto.Fixed24_8)
	PointerButton(timeMs int64, code uint16, state ButtonState)
	PointerAxis(timeMs int64, axis Axis, value proto.Fixed24_8)
	Touch(timeMs int64, slot int, x, y proto.Fixed24_8, kind TouchType)
	Key(timeMs int64, code uint16, state ButtonState)
}

// NopSink implements Sink with no-op methods; embed it to satisfy the
// interface while overriding only the methods of interest.
type NopSink struct{}

func (NopSink) PointerMotion(int64, proto.Fixed24_8, proto.Fixed24_8)         {}
func (NopSink) PointerMotionAbsolute(int64, proto.Fixed24_8, proto.Fixed24_8) {}
func (NopSink) PointerButton(int64, uint16, ButtonState)                     {}
func (NopSink) PointerAxis(int64, Axis, proto.Fixed24_8)                     {}
func (NopSink) Touch(int64, int, proto.Fixed24_8, proto.Fixed24_8, TouchType) {}
func (NopSink) Key(int64, uint16, ButtonState)                               {}
