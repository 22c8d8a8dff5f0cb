package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evinput/internal/emit"
	"evinput/internal/proto"
)

type recordedCall struct {
	kind string
	args []any
}

type fakeSink struct {
	emit.NopSink
	calls []recordedCall
}

func (s *fakeSink) PointerMotion(timeMs int64, dx, dy proto.Fixed24_8) {
	s.calls = append(s.calls, recordedCall{"motion", []any{dx, dy}})
}

func (s *fakeSink) PointerMotionAbsolute(timeMs int64, x, y proto.Fixed24_8) {
	s.calls = append(s.calls, recordedCall{"motion_abs", []any{x, y}})
}

func (s *fakeSink) PointerButton(timeMs int64, code uint16, state emit.ButtonState) {
	s.calls = append(s.calls, recordedCall{"button", []any{code, state}})
}

func (s *fakeSink) PointerAxis(timeMs int64, axis emit.Axis, value proto.Fixed24_8) {
	s.calls = append(s.calls, recordedCall{"axis", []any{axis, value}})
}

func (s *fakeSink) Touch(timeMs int64, slot int, x, y proto.Fixed24_8, kind emit.TouchType) {
	s.calls = append(s.calls, recordedCall{"touch", []any{slot, x, y, kind}})
}

func (s *fakeSink) Key(timeMs int64, code uint16, state emit.ButtonState) {
	s.calls = append(s.calls, recordedCall{"key", []any{code, state}})
}

func syn(timeMs int64) proto.RawEvent {
	return proto.RawEvent{Type: proto.EV_SYN, Code: proto.SYN_REPORT, TimeMs: timeMs}
}

func TestFallbackCoalescesRelativeMotionWithinOneFrame(t *testing.T) {
	sink := &fakeSink{}
	f := NewFallback(FallbackConfig{}, sink)

	f.Process(proto.RawEvent{Type: proto.EV_REL, Code: proto.REL_X, Value: 3})
	f.Process(proto.RawEvent{Type: proto.EV_REL, Code: proto.REL_Y, Value: -2})
	f.Process(syn(1))

	require.Len(t, sink.calls, 1)
	assert.Equal(t, "motion", sink.calls[0].kind)
	assert.Equal(t, proto.FromInt(3), sink.calls[0].args[0])
	assert.Equal(t, proto.FromInt(-2), sink.calls[0].args[1])
}

func TestFallbackFlushesOnTypeChangeWithoutWaitingForSync(t *testing.T) {
	sink := &fakeSink{}
	f := NewFallback(FallbackConfig{}, sink)

	f.Process(proto.RawEvent{Type: proto.EV_REL, Code: proto.REL_X, Value: 5})
	f.Process(proto.RawEvent{Type: proto.EV_KEY, Code: proto.BTN_LEFT, Value: 1})

	require.Len(t, sink.calls, 2)
	assert.Equal(t, "motion", sink.calls[0].kind)
	assert.Equal(t, "button", sink.calls[1].kind)
}

func TestFallbackWheelEmitsInvertedVerticalAxis(t *testing.T) {
	sink := &fakeSink{}
	f := NewFallback(FallbackConfig{}, sink)

	f.Process(proto.RawEvent{Type: proto.EV_REL, Code: proto.REL_WHEEL, Value: 1})

	require.Len(t, sink.calls, 1)
	assert.Equal(t, "axis", sink.calls[0].kind)
	assert.Equal(t, emit.Vertical, sink.calls[0].args[0])
	assert.Equal(t, proto.FromInt(-10), sink.calls[0].args[1])
}

// TestFallbackMultiNotchWheelProducesNoEvent matches evdev.c's
// wheel-value switch: only a single detent (+-1) is notified. A
// multi-notch report is swallowed rather than scaled up.
func TestFallbackMultiNotchWheelProducesNoEvent(t *testing.T) {
	sink := &fakeSink{}
	f := NewFallback(FallbackConfig{}, sink)

	f.Process(proto.RawEvent{Type: proto.EV_REL, Code: proto.REL_WHEEL, Value: 2})
	f.Process(proto.RawEvent{Type: proto.EV_REL, Code: proto.REL_HWHEEL, Value: -3})

	assert.Empty(t, sink.calls)
}

func TestFallbackSingleTouchLifecycle(t *testing.T) {
	sink := &fakeSink{}
	f := NewFallback(FallbackConfig{}, sink)

	f.Process(proto.RawEvent{Type: proto.EV_KEY, Code: proto.BTN_TOUCH, Value: 1})
	f.Process(proto.RawEvent{Type: proto.EV_ABS, Code: proto.ABS_X, Value: 100})
	f.Process(proto.RawEvent{Type: proto.EV_ABS, Code: proto.ABS_Y, Value: 200})
	f.Process(syn(1))

	require.Len(t, sink.calls, 1)
	assert.Equal(t, "touch", sink.calls[0].kind)
	assert.Equal(t, emit.TouchDown, sink.calls[0].args[3])

	f.Process(proto.RawEvent{Type: proto.EV_KEY, Code: proto.BTN_TOUCH, Value: 0})
	f.Process(syn(2))
	require.Len(t, sink.calls, 2)
	assert.Equal(t, emit.TouchUp, sink.calls[1].args[3])
}

func TestFallbackMultiTouchSlotsAreIndependent(t *testing.T) {
	sink := &fakeSink{}
	f := NewFallback(FallbackConfig{IsMultiTouch: true}, sink)

	f.Process(proto.RawEvent{Type: proto.EV_ABS, Code: proto.ABS_MT_SLOT, Value: 0})
	f.Process(proto.RawEvent{Type: proto.EV_ABS, Code: proto.ABS_MT_TRACKING_ID, Value: 1})
	f.Process(proto.RawEvent{Type: proto.EV_ABS, Code: proto.ABS_MT_POSITION_X, Value: 10})
	f.Process(proto.RawEvent{Type: proto.EV_ABS, Code: proto.ABS_MT_POSITION_Y, Value: 20})
	f.Process(proto.RawEvent{Type: proto.EV_ABS, Code: proto.ABS_MT_SLOT, Value: 1})
	f.Process(proto.RawEvent{Type: proto.EV_ABS, Code: proto.ABS_MT_TRACKING_ID, Value: 2})
	f.Process(proto.RawEvent{Type: proto.EV_ABS, Code: proto.ABS_MT_POSITION_X, Value: 50})
	f.Process(proto.RawEvent{Type: proto.EV_ABS, Code: proto.ABS_MT_POSITION_Y, Value: 60})
	f.Process(syn(1))

	require.Len(t, sink.calls, 2)
	assert.Equal(t, 0, sink.calls[0].args[0])
	assert.Equal(t, 1, sink.calls[1].args[0])
}

func TestCalibrationAppliesAffineTransform(t *testing.T) {
	c := &Calibration{M: [6]float64{2, 0, 1, 0, 2, 1}}
	x, y := c.Apply(10, 10)
	assert.Equal(t, int32(21), x)
	assert.Equal(t, int32(21), y)
}
