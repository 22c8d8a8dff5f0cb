// Package sink implements the uinput consumer (C12): it drives a
// virtual mouse and keyboard from the semantic event stream (§6
// output boundary), standing in for "the embedding application" in
// the demo daemon.
package sink

import (
	"log"

	"github.com/bendahl/uinput"

	"evinput/internal/emit"
	"evinput/internal/proto"
)

// UinputSink drives a virtual relative-pointer mouse and a virtual
// keyboard. It does not create a virtual multitouch device: touch
// events are logged rather than forwarded, since uinput's touch path
// needs a fixed absolute coordinate range this library's devices
// don't share with it (see DESIGN.md).
type UinputSink struct {
	emit.NopSink

	mouse    uinput.Mouse
	keyboard uinput.Keyboard

	// fracX, fracY accumulate the sub-pixel remainder between calls,
	// since the fixed-point motion values carry finer precision than
	// uinput's integer pixel steps.
	fracX, fracY float64
}

// New creates the virtual devices. name is used for both; it should
// be short and ASCII, matching uinput's own UINPUT_MAX_NAME_SIZE limit
// the teacher driver's raw uinput_user_dev layout reserved for this.
func New(name string) (*UinputSink, error) {
	mouse, err := uinput.CreateMouse("/dev/uinput", []byte(name+"-mouse"))
	if err != nil {
		return nil, err
	}

	keyboard, err := uinput.CreateKeyboard("/dev/uinput", []byte(name+"-keyboard"))
	if err != nil {
		mouse.Close()
		return nil, err
	}

	return &UinputSink{mouse: mouse, keyboard: keyboard}, nil
}

// Close releases both virtual devices.
func (s *UinputSink) Close() error {
	kerr := s.keyboard.Close()
	merr := s.mouse.Close()
	if kerr != nil {
		return kerr
	}
	return merr
}

func (s *UinputSink) PointerMotion(timeMs int64, dx, dy proto.Fixed24_8) {
	s.fracX += dx.ToFloat()
	s.fracY += dy.ToFloat()

	stepX := int32(s.fracX)
	stepY := int32(s.fracY)
	s.fracX -= float64(stepX)
	s.fracY -= float64(stepY)

	if stepX > 0 {
		if err := s.mouse.MoveRight(stepX); err != nil {
			log.Printf("sink: move right: %v", err)
		}
	} else if stepX < 0 {
		if err := s.mouse.MoveLeft(-stepX); err != nil {
			log.Printf("sink: move left: %v", err)
		}
	}

	if stepY > 0 {
		if err := s.mouse.MoveDown(stepY); err != nil {
			log.Printf("sink: move down: %v", err)
		}
	} else if stepY < 0 {
		if err := s.mouse.MoveUp(-stepY); err != nil {
			log.Printf("sink: move up: %v", err)
		}
	}
}

func (s *UinputSink) PointerMotionAbsolute(timeMs int64, x, y proto.Fixed24_8) {
	// No virtual absolute pointer device is created; see DESIGN.md.
	log.Printf("sink: dropping absolute motion (%v, %v): no absolute virtual device", x, y)
}

func (s *UinputSink) PointerButton(timeMs int64, code uint16, state emit.ButtonState) {
	var err error
	switch code {
	case proto.BTN_LEFT:
		err = s.pressRelease(s.mouse.LeftPress, s.mouse.LeftRelease, state)
	case proto.BTN_RIGHT:
		err = s.pressRelease(s.mouse.RightPress, s.mouse.RightRelease, state)
	case proto.BTN_MIDDLE:
		err = s.pressRelease(s.mouse.MiddlePress, s.mouse.MiddleRelease, state)
	default:
		return
	}
	if err != nil {
		log.Printf("sink: pointer button %#x: %v", code, err)
	}
}

func (s *UinputSink) pressRelease(press, release func() error, state emit.ButtonState) error {
	if state == emit.Pressed {
		return press()
	}
	return release()
}

func (s *UinputSink) PointerAxis(timeMs int64, axis emit.Axis, value proto.Fixed24_8) {
	delta := int32(value.ToFloat())
	if delta == 0 {
		return
	}
	horizontal := axis == emit.Horizontal
	if err := s.mouse.Wheel(horizontal, delta); err != nil {
		log.Printf("sink: wheel: %v", err)
	}
}

func (s *UinputSink) Touch(timeMs int64, slot int, x, y proto.Fixed24_8, kind emit.TouchType) {
	// Logged, not forwarded: see the package doc comment.
	log.Printf("sink: touch slot=%d x=%v y=%v kind=%v (not forwarded)", slot, x, y, kind)
}

func (s *UinputSink) Key(timeMs int64, code uint16, state emit.ButtonState) {
	var err error
	if state == emit.Pressed {
		err = s.keyboard.KeyDown(int(code))
	} else {
		err = s.keyboard.KeyUp(int(code))
	}
	if err != nil {
		log.Printf("sink: key %#x: %v", code, err)
	}
}
