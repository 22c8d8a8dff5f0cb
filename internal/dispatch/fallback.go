package dispatch

import (
	"evinput/internal/emit"
	"evinput/internal/proto"
)

// pendingKind identifies the single slot of deferred state the
// fallback dispatcher accumulates between flushes (§4.6).
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingRelativeMotion
	pendingAbsoluteMotion
	pendingAbsoluteTouchDown
	pendingAbsoluteTouchUp
	pendingMTDown
	pendingMTMotion
	pendingMTUp
)

// Calibration is an optional 2x3 affine transform applied to absolute
// coordinates before emission (§4.6, property 8).
type Calibration struct {
	M [6]float64 // [a b c; d e f] applied as x' = a*x + b*y + c, y' = d*x + e*y + f
}

// Apply transforms a raw (x, y) pair.
func (c *Calibration) Apply(x, y int32) (int32, int32) {
	fx := c.M[0]*float64(x) + c.M[1]*float64(y) + c.M[2]
	fy := c.M[3]*float64(x) + c.M[4]*float64(y) + c.M[5]
	return int32(fx), int32(fy)
}

// FallbackConfig configures the stateless fallback dispatcher.
type FallbackConfig struct {
	IsMultiTouch bool
	Calibration  *Calibration // nil disables calibration
}

type mtSlot struct {
	x, y int32
}

// Fallback is the stateless dispatcher (C6) used for ordinary
// pointers, keyboards, and touchscreens: it accumulates a single
// pending event and flushes it on type change or SYN_REPORT.
type Fallback struct {
	cfg  FallbackConfig
	sink emit.Sink

	pending pendingKind

	relDX, relDY int32

	slot  int
	slots map[int]*mtSlot
}

// NewFallback constructs a fallback dispatcher.
func NewFallback(cfg FallbackConfig, sink emit.Sink) *Fallback {
	return &Fallback{
		cfg:   cfg,
		sink:  sink,
		slots: make(map[int]*mtSlot),
	}
}

func (f *Fallback) slotFor(id int) *mtSlot {
	s, ok := f.slots[id]
	if !ok {
		s = &mtSlot{}
		f.slots[id] = s
	}
	return s
}

// flush emits the currently pending event, if any, and clears it.
func (f *Fallback) flush(timeMs int64) {
	switch f.pending {
	case pendingNone:
		return
	case pendingRelativeMotion:
		f.sink.PointerMotion(timeMs, proto.FromInt(f.relDX), proto.FromInt(f.relDY))
		f.relDX, f.relDY = 0, 0
	case pendingAbsoluteMotion:
		// absolute motion is reported via the single-touch (non-MT)
		// path; coordinates were already calibrated at accumulation
		// time and stashed in slot 0.
		s := f.slotFor(0)
		f.sink.PointerMotionAbsolute(timeMs, proto.FromInt(s.x), proto.FromInt(s.y))
	case pendingAbsoluteTouchDown:
		s := f.slotFor(0)
		f.sink.Touch(timeMs, 0, proto.FromInt(s.x), proto.FromInt(s.y), emit.TouchDown)
	case pendingAbsoluteTouchUp:
		f.sink.Touch(timeMs, 0, 0, 0, emit.TouchUp)
	case pendingMTDown:
		s := f.slotFor(f.slot)
		f.sink.Touch(timeMs, f.slot, proto.FromInt(s.x), proto.FromInt(s.y), emit.TouchDown)
	case pendingMTMotion:
		s := f.slotFor(f.slot)
		f.sink.Touch(timeMs, f.slot, proto.FromInt(s.x), proto.FromInt(s.y), emit.TouchMotion)
	case pendingMTUp:
		f.sink.Touch(timeMs, f.slot, 0, 0, emit.TouchUp)
	}
	f.pending = pendingNone
}

// Process implements Dispatcher.
func (f *Fallback) Process(e proto.RawEvent) {
	switch e.Type {
	case proto.EV_REL:
		f.processRelative(e)
	case proto.EV_ABS:
		f.processAbsolute(e)
	case proto.EV_KEY:
		f.processKey(e)
	case proto.EV_SYN:
		if e.Code == proto.SYN_REPORT {
			f.flush(e.TimeMs)
		}
	}
}

func (f *Fallback) processRelative(e proto.RawEvent) {
	const wheelStep = 10 // Q24.8 units (§6 configuration constants)

	switch e.Code {
	case proto.REL_X:
		if f.pending != pendingRelativeMotion {
			f.flush(e.TimeMs)
		}
		f.relDX += e.Value
		f.pending = pendingRelativeMotion
	case proto.REL_Y:
		if f.pending != pendingRelativeMotion {
			f.flush(e.TimeMs)
		}
		f.relDY += e.Value
		f.pending = pendingRelativeMotion
	case proto.REL_WHEEL:
		f.flush(e.TimeMs)
		// Only a single detent (+-1) is notified, matching evdev.c's
		// `switch (e->value) { case -1: case 1: ...; default: break; }`
		// — a multi-notch report (+-2 or more) produces no event.
		if e.Value == 1 || e.Value == -1 {
			// Inverted to match screen convention (§4.6).
			f.sink.PointerAxis(e.TimeMs, emit.Vertical, proto.FromInt(-e.Value*wheelStep))
		}
	case proto.REL_HWHEEL:
		f.flush(e.TimeMs)
		if e.Value == 1 || e.Value == -1 {
			f.sink.PointerAxis(e.TimeMs, emit.Horizontal, proto.FromInt(e.Value*wheelStep))
		}
	}
}

func (f *Fallback) processAbsolute(e proto.RawEvent) {
	if f.cfg.IsMultiTouch {
		f.processTouch(e)
	} else {
		f.processAbsoluteMotion(e)
	}
}

func (f *Fallback) processTouch(e proto.RawEvent) {
	switch e.Code {
	case proto.ABS_MT_SLOT:
		f.flush(e.TimeMs)
		f.slot = int(e.Value)
	case proto.ABS_MT_TRACKING_ID:
		if f.pending != pendingNone && f.pending != pendingMTMotion {
			f.flush(e.TimeMs)
		}
		if e.Value >= 0 {
			f.pending = pendingMTDown
		} else {
			f.pending = pendingMTUp
		}
	case proto.ABS_MT_POSITION_X:
		f.slotFor(f.slot).x = e.Value
		if f.pending == pendingNone {
			f.pending = pendingMTMotion
		}
	case proto.ABS_MT_POSITION_Y:
		f.slotFor(f.slot).y = e.Value
		if f.pending == pendingNone {
			f.pending = pendingMTMotion
		}
	}
}

func (f *Fallback) processAbsoluteMotion(e proto.RawEvent) {
	s := f.slotFor(0)
	switch e.Code {
	case proto.ABS_X:
		x, y := f.calibrate(e.Value, s.y)
		s.x, s.y = x, y
		if f.pending == pendingNone {
			f.pending = pendingAbsoluteMotion
		}
	case proto.ABS_Y:
		x, y := f.calibrate(s.x, e.Value)
		s.x, s.y = x, y
		if f.pending == pendingNone {
			f.pending = pendingAbsoluteMotion
		}
	}
}

func (f *Fallback) calibrate(x, y int32) (int32, int32) {
	if f.cfg.Calibration == nil {
		return x, y
	}
	return f.cfg.Calibration.Apply(x, y)
}

func (f *Fallback) processKey(e proto.RawEvent) {
	// Kernel key-repeat (value 2) is not a state transition.
	if e.Value == 2 {
		return
	}

	if e.Code == proto.BTN_TOUCH {
		if !f.cfg.IsMultiTouch {
			if f.pending != pendingNone && f.pending != pendingAbsoluteMotion {
				f.flush(e.TimeMs)
			}
			if e.Value != 0 {
				f.pending = pendingAbsoluteTouchDown
			} else {
				f.pending = pendingAbsoluteTouchUp
			}
		}
		return
	}

	f.flush(e.TimeMs)

	state := emit.Released
	if e.Value != 0 {
		state = emit.Pressed
	}

	if proto.IsPointerButton(e.Code) {
		f.sink.PointerButton(e.TimeMs, e.Code, state)
	} else {
		f.sink.Key(e.TimeMs, e.Code, state)
	}
}

// Destroy implements Dispatcher; the fallback dispatcher holds no
// external resources.
func (f *Fallback) Destroy() {}
