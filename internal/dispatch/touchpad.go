package dispatch

import (
	"math"

	"evinput/internal/accel"
	"evinput/internal/emit"
	"evinput/internal/history"
	"evinput/internal/hysteresis"
	"evinput/internal/proto"
	"evinput/internal/tapfsm"
)

// Model identifies the touchpad hardware family, derived from the
// device's vendor/product pair (§3). It exists to let per-model
// pressure-threshold quirks (§4.5) be selected without threading the
// raw vendor/product pair through the whole pipeline.
type Model int

const (
	ModelUnknown Model = iota
	ModelSynaptics
	ModelALPS
	ModelAppletouch
	ModelElantech
)

// modelSpec is one row of the static vendor/product -> model table.
type modelSpec struct {
	vendor, product uint16
	model           Model
}

// staticModelTable mirrors xf86-input-synaptics' own table; a product
// of 0 matches any product for that vendor.
var staticModelTable = []modelSpec{
	{0x0002, 0x0007, ModelSynaptics},
	{0x0002, 0x0008, ModelALPS},
	{0x05ac, 0x0000, ModelAppletouch},
	{0x0002, 0x000e, ModelElantech},
}

// LookupModel resolves a vendor/product pair against the static
// table, defaulting to ModelUnknown.
func LookupModel(vendor, product uint16) Model {
	for _, spec := range staticModelTable {
		if spec.vendor == vendor && (spec.product == 0 || spec.product == product) {
			return spec.model
		}
	}
	return ModelUnknown
}

// TouchpadConfig is the immutable configuration a touchpad dispatcher
// is built from (the device-record fields §3 calls out as relevant to
// the dispatcher).
type TouchpadConfig struct {
	Vendor, Product uint16
	MinX, MaxX      int32
	MinY, MaxY      int32

	HasPressure            bool
	PressureMin, PressureMax int32

	// Buttonpad is true when the device reports INPUT_PROP_BUTTONPAD
	// (physical click integrates with the surface); it disables the
	// tap FSM and remaps two-finger clicks to right-click (§4.5, §4.7).
	Buttonpad bool

	// ModelOverride, when non-nil, replaces the static vendor/product
	// table lookup (the config table of C11 takes precedence).
	ModelOverride *Model
}

// pressureThresholds computes the touch-detection hysteresis band for
// a pressure-capable device (§4.5 "Pressure thresholds").
func pressureThresholds(model Model, min, max int32) (low, high int32) {
	if model == ModelElantech {
		return min + 1, min + 1
	}
	rang := float64(max - min + 1)
	low = min + int32(rang*25.0/256.0)
	high = min + int32(rang*30.0/256.0)
	return low, high
}

// diagonal returns hypot(max_x-min_x, max_y-min_y), the length scale
// used for acceleration and hysteresis margins (§4.1, §4.3).
func diagonal(cfg TouchpadConfig) float64 {
	width := float64(cfg.MaxX - cfg.MinX)
	height := float64(cfg.MaxY - cfg.MinY)
	return math.Hypot(width, height)
}

// Touchpad is the stateful touchpad dispatcher (C5): it owns finger
// tracking, coordinate conditioning (C1-C3), and the tap FSM (C4), and
// emits motion, scroll, and button events.
type Touchpad struct {
	cfg   TouchpadConfig
	model Model
	sink  emit.Sink

	touchState     uint8
	fingerState    uint8
	lastFingerState uint8
	reset          bool

	pressureLow, pressureHigh int32

	hyst    hysteresis.Pair
	hist    history.History
	hwAbsX  int32
	hwAbsY  int32

	eventMask       uint8
	eventMaskFilter uint8

	filter *accel.PointerAccelerator

	fsm       *tapfsm.FSM
	fsmTimer  fsmTimer
	enableTap bool
}

// fsmTimer is the subset of timerfd.Timer the dispatcher needs; it is
// an interface so tests can supply a fake without touching the kernel.
type fsmTimer interface {
	tapfsm.Timer
	Close() error
}

// NewTouchpad constructs a touchpad dispatcher. timer must already be
// constructed (and, in production, already registered with the host
// event loop) — touchpad construction failure is not modeled here
// since timer setup is the caller's responsibility and its own
// failure is fatal to dispatcher creation per §7.
func NewTouchpad(cfg TouchpadConfig, sink emit.Sink, timer fsmTimer) *Touchpad {
	model := LookupModel(cfg.Vendor, cfg.Product)
	if cfg.ModelOverride != nil {
		model = *cfg.ModelOverride
	}

	diag := diagonal(cfg)
	params := accel.DefaultParams(diag)
	margin := int32(diag / 700.0)

	t := &Touchpad{
		cfg:       cfg,
		model:     model,
		sink:      sink,
		reset:     true,
		hyst:      hysteresis.NewPair(margin),
		filter:    accel.NewPointerAccelerator(accel.TouchpadProfile(params.Constant, params.Min, params.Max)),
		fsmTimer:  timer,
		enableTap: !cfg.Buttonpad,
	}

	if cfg.HasPressure {
		t.pressureLow, t.pressureHigh = pressureThresholds(model, cfg.PressureMin, cfg.PressureMax)
	}

	t.fsm = tapfsm.New(t.enableTap, timer, t)
	return t
}

// ButtonPressed implements tapfsm.Sink.
func (t *Touchpad) ButtonPressed(timeMs int64) {
	t.sink.PointerButton(timeMs, proto.BTN_LEFT, emit.Pressed)
}

// ButtonReleased implements tapfsm.Sink.
func (t *Touchpad) ButtonReleased(timeMs int64) {
	t.sink.PointerButton(timeMs, proto.BTN_LEFT, emit.Released)
}

// FireTimeout is called by the owner when the FSM's timer expires; it
// drives the FSM exactly as a device event would (§4.4, §5: a timer
// fire is itself just another FSM input, arriving asynchronously).
func (t *Touchpad) FireTimeout(nowMs int64) {
	t.fsm.Push(tapfsm.EventTimeout)
	t.fsm.Drain(nowMs)
}

func (t *Touchpad) onTouch() {
	t.touchState |= touchStateTouching
	t.fsm.Push(tapfsm.EventTouch)
}

func (t *Touchpad) onRelease() {
	t.reset = true
	t.touchState &^= touchStateTouching | touchStateMoving
	t.fsm.Push(tapfsm.EventRelease)
}

// Process implements Dispatcher.
func (t *Touchpad) Process(e proto.RawEvent) {
	switch e.Type {
	case proto.EV_SYN:
		if e.Code == proto.SYN_REPORT {
			t.eventMask |= eventReport
		}
	case proto.EV_ABS:
		t.processAbsolute(e)
	case proto.EV_KEY:
		t.processKey(e)
	}

	t.update(e.TimeMs)
}

func (t *Touchpad) processAbsolute(e proto.RawEvent) {
	switch e.Code {
	case proto.ABS_PRESSURE:
		if !t.cfg.HasPressure {
			return
		}
		touching := t.touchState&touchStateTouching != 0
		if e.Value > t.pressureHigh && !touching {
			t.onTouch()
		} else if e.Value < t.pressureLow && touching {
			t.onRelease()
		}
	case proto.ABS_X:
		if t.touchState&touchStateTouching != 0 {
			t.hwAbsX = e.Value
			t.eventMask |= eventAbsoluteAny | eventAbsoluteX
		}
	case proto.ABS_Y:
		if t.touchState&touchStateTouching != 0 {
			t.hwAbsY = e.Value
			t.eventMask |= eventAbsoluteAny | eventAbsoluteY
		}
	}
}

func (t *Touchpad) processKey(e proto.RawEvent) {
	switch e.Code {
	case proto.BTN_TOUCH:
		if !t.cfg.HasPressure {
			touching := t.touchState&touchStateTouching != 0
			if e.Value != 0 && !touching {
				t.onTouch()
			} else if e.Value == 0 {
				t.onRelease()
			}
		}
	case proto.BTN_TOOL_FINGER:
		t.setFingerBit(fingersOne, e.Value != 0)
	case proto.BTN_TOOL_DOUBLETAP:
		t.setFingerBit(fingersTwo, e.Value != 0)
	case proto.BTN_TOOL_TRIPLETAP:
		t.setFingerBit(fingersThree, e.Value != 0)
	default:
		if proto.IsNonFingerTool(e.Code) {
			t.reset = true
			return
		}
		if proto.IsPointerButton(e.Code) {
			code := e.Code
			if !t.enableTap && code == proto.BTN_LEFT && t.fingerState == fingersTwo {
				code = proto.BTN_RIGHT
			}
			state := emit.Released
			if e.Value != 0 {
				state = emit.Pressed
			}
			t.sink.PointerButton(e.TimeMs, code, state)
		}
	}
}

func (t *Touchpad) setFingerBit(bit uint8, on bool) {
	if on {
		t.fingerState |= bit
	} else {
		t.fingerState &^= bit
	}
}

// update runs the per-event update procedure of §4.5: frame-boundary
// detection, hysteresis/history/acceleration, motion/scroll emission,
// and FSM draining.
func (t *Touchpad) update(timeMs int64) {
	if t.reset || t.lastFingerState != t.fingerState {
		t.reset = false
		t.hist.Reset()
		t.eventMask = 0
		t.eventMaskFilter = eventAbsoluteX | eventAbsoluteY
		t.lastFingerState = t.fingerState
		t.fsm.Drain(timeMs)
		return
	}
	t.lastFingerState = t.fingerState

	if t.eventMask&eventReport == 0 {
		return
	}
	t.eventMask &^= eventReport

	if t.eventMask&t.eventMaskFilter != t.eventMaskFilter {
		return
	}
	t.eventMaskFilter = eventAbsoluteAny
	t.eventMask = 0

	var centerX, centerY int32
	if t.hist.Count() > 0 {
		centerX, centerY = t.hyst.Apply(t.hwAbsX, t.hwAbsY)
	} else {
		centerX, centerY = t.hwAbsX, t.hwAbsY
		t.hyst.X.Center, t.hyst.Y.Center = centerX, centerY
	}
	t.hwAbsX, t.hwAbsY = centerX, centerY

	t.hist.Push(history.Sample{X: centerX, Y: centerY})

	var dx, dy float64
	if t.hist.Ready() {
		idx, idy := t.hist.Delta()
		dx, dy = float64(idx), float64(idy)
		dx, dy = t.filter.Dispatch(dx, dy, timeMs)

		switch t.fingerState {
		case fingersOne:
			if dx != 0 || dy != 0 {
				t.sink.PointerMotion(timeMs, proto.FromFloat(dx), proto.FromFloat(dy))
			}
		case fingersTwo:
			if dx != 0 {
				t.sink.PointerAxis(timeMs, emit.Horizontal, proto.FromFloat(dx))
			}
			if dy != 0 {
				t.sink.PointerAxis(timeMs, emit.Vertical, proto.FromFloat(dy))
			}
		case fingersThree:
			// no emission (§4.5 step 8)
		}
	}

	if t.touchState&touchStateMoving == 0 && (int32(dx) != 0 || int32(dy) != 0) {
		t.touchState |= touchStateMoving
		t.fsm.Push(tapfsm.EventMotion)
	}

	t.fsm.Drain(timeMs)
}

// Destroy releases the dispatcher's timer. The motion filter and FSM
// queue are plain Go values with no external resources to release.
func (t *Touchpad) Destroy() {
	if t.fsmTimer != nil {
		_ = t.fsmTimer.Close()
	}
}
