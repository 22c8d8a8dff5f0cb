// Package device implements the device shell (C7): per-device
// capability probing, calibration, and dispatcher selection. This is
// the boundary between a raw fd and a Dispatcher.
package device

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"evinput/internal/dispatch"
	"evinput/internal/emit"
	"evinput/internal/eventloop"
	"evinput/internal/proto"
	"evinput/internal/timerfd"
)

// Capability is a coarse capability flag set derived from the
// device's key/abs bitmaps (§3, "Device record").
type Capability uint8

const (
	CapPointerRelative Capability = 1 << iota
	CapPointerAbsolute
	CapKeyboard
	CapTouch
	CapButton
)

// Calibration is a 2x3 affine transform applied to absolute
// coordinates; kept here rather than in dispatch so both the touchpad
// and fallback paths can share one record per device (§3).
type Calibration = dispatch.Calibration

// Record is the immutable device record of §3: capability set, axis
// ranges, optional calibration, vendor/product identifiers, and the
// live dispatcher instance.
type Record struct {
	Path       string
	Caps       Capability
	MinX, MaxX int32
	MinY, MaxY int32

	Vendor, Product uint16

	Calibration *Calibration

	Dispatcher dispatch.Dispatcher
}

// bits is a kernel capability bitmap: one bit per event/abs code.
type bits []byte

func (b bits) test(code uint16) bool {
	byteIdx := code / 8
	if int(byteIdx) >= len(b) {
		return false
	}
	return b[byteIdx]&(1<<(code%8)) != 0
}

// iocEVIOCGBIT and iocEVIOCGABS mirror linux/input.h's ioctl macros;
// golang-evdev doesn't expose raw bitmap queries, so the device shell
// talks to the kernel directly, the same way the touchpad driver this
// module grew out of reached for raw ioctls when a library didn't
// cover what it needed.
func iocEVIOCGBIT(ev, length int) uintptr {
	const iocRead = 2
	return uintptr(iocRead<<30 | (length&0x3fff)<<16 | 'E'<<8 | (0x20 + ev))
}

func iocEVIOCGABS(abs int) uintptr {
	const iocRead = 2
	const absInfoSize = 24 // struct input_absinfo: 6 x int32
	return uintptr(iocRead<<30 | absInfoSize<<16 | 'E'<<8 | (0x40 + abs))
}

type absInfo struct {
	Value, Min, Max, Fuzz, Flat, Resolution int32
}

func queryBits(fd int, evType int, length int) (bits, error) {
	buf := make([]byte, length)
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), iocEVIOCGBIT(evType, length), uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return nil, errno
	}
	return bits(buf), nil
}

func queryAbsInfo(fd int, code int) (absInfo, error) {
	var info absInfo
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), iocEVIOCGABS(code), uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return absInfo{}, errno
	}
	return info, nil
}

// ErrUnhandledDevice is returned by Open when classification rejects
// the device (joystick, accelerometer-like): the sentinel the device
// shell hands back to its caller per §4.7.
var ErrUnhandledDevice = fmt.Errorf("device: unhandled device class")

// probe holds the raw capability bitmaps read from the fd, reused
// across the classification rules and capability-flag derivation so
// each is only queried once.
type probe struct {
	evBits  bits
	keyBits bits
	absBits bits

	minX, maxX int32
	minY, maxY int32
	hasPressure bool
	pressureMin, pressureMax int32
}

const (
	evBitsLen  = (0x20 + 7) / 8 // enough for EV_KEY..EV_ABS
	keyBitsLen = (int(proto.KEY_MAX) + 7) / 8
	absBitsLen = (0x3f + 7) / 8
)

func probeDevice(fd int) (probe, error) {
	var p probe
	var err error

	if p.evBits, err = queryBits(fd, 0 /* EV_SYN base covers all EV_* bits */, evBitsLen); err != nil {
		return probe{}, fmt.Errorf("device: query event bits: %w", err)
	}
	if p.keyBits, err = queryBits(fd, int(proto.EV_KEY), keyBitsLen); err != nil {
		return probe{}, fmt.Errorf("device: query key bits: %w", err)
	}
	if p.absBits, err = queryBits(fd, int(proto.EV_ABS), absBitsLen); err != nil {
		return probe{}, fmt.Errorf("device: query abs bits: %w", err)
	}

	if p.absBits.test(proto.ABS_X) {
		if info, err := queryAbsInfo(fd, int(proto.ABS_X)); err == nil {
			p.minX, p.maxX = info.Min, info.Max
		}
	}
	if p.absBits.test(proto.ABS_Y) {
		if info, err := queryAbsInfo(fd, int(proto.ABS_Y)); err == nil {
			p.minY, p.maxY = info.Min, info.Max
		}
	}
	if p.absBits.test(proto.ABS_PRESSURE) {
		p.hasPressure = true
		if info, err := queryAbsInfo(fd, int(proto.ABS_PRESSURE)); err == nil {
			p.pressureMin, p.pressureMax = info.Min, info.Max
		}
	}

	return p, nil
}

func (p probe) isMultiTouch() bool {
	return p.absBits.test(proto.ABS_MT_POSITION_X) && p.absBits.test(proto.ABS_MT_POSITION_Y)
}

func (p probe) isJoystick() bool {
	return p.absBits.test(proto.ABS_WHEEL) || p.absBits.test(proto.ABS_GAS) ||
		p.absBits.test(proto.ABS_BRAKE) || p.absBits.test(proto.ABS_HAT0X)
}

func (p probe) hasAnyAbs() bool {
	return p.absBits.test(proto.ABS_X) || p.absBits.test(proto.ABS_Y)
}

func (p probe) hasAnyKey() bool {
	for code := uint16(proto.KEY_ESC); code < proto.KEY_MAX; code++ {
		if code >= proto.BTN_MISC && code < proto.KEY_OK {
			// BTN_MISC..KEY_OK covers the mouse-button codes
			// (BTN_LEFT etc.); a plain mouse shouldn't classify
			// as keyboard-capable.
			continue
		}
		if p.keyBits.test(code) {
			return true
		}
	}
	return false
}

func (p probe) isAccelerometerLike() bool {
	return p.hasAnyAbs() && !p.hasAnyKey() && !p.isMultiTouch()
}

func (p probe) isTouchpad() bool {
	return p.keyBits.test(proto.BTN_TOOL_FINGER) && !p.keyBits.test(proto.BTN_TOOL_PEN) && p.hasAnyAbs()
}

func (p probe) hasOrdinaryMouseButtons() bool {
	for _, code := range proto.PointerButtons {
		if p.keyBits.test(code) {
			return true
		}
	}
	return false
}

// ResolveModel resolves a model override from a config table before
// falling back to the static table of §4.5; see internal/config.
type ModelResolver interface {
	ResolveModel(vendor, product uint16) (dispatch.Model, bool)
}

// Open classifies fd (a device already opened by the seat glue) and
// constructs the matching dispatcher, returning the device record.
// vendor/product come from the kernel's INPUT_ID (golang-evdev surfaces
// this as InputDevice.Inputid); loop is used to register the touchpad
// tap FSM's timer; resolver may be nil to use only the static model
// table; calib may be nil.
func Open(path string, fd int, vendor, product uint16, sink emit.Sink, loop *eventloop.Loop, resolver ModelResolver, calib *Calibration) (*Record, error) {
	p, err := probeDevice(fd)
	if err != nil {
		return nil, err
	}

	if p.isJoystick() {
		return nil, ErrUnhandledDevice
	}
	if p.isAccelerometerLike() {
		return nil, ErrUnhandledDevice
	}

	rec := &Record{
		Path: path,
		MinX: p.minX, MaxX: p.maxX,
		MinY: p.minY, MaxY: p.maxY,
		Vendor: vendor, Product: product,
		Calibration: calib,
	}
	if p.hasAnyAbs() {
		rec.Caps |= CapPointerAbsolute
	} else {
		rec.Caps |= CapPointerRelative
	}
	if p.hasAnyKey() {
		rec.Caps |= CapKeyboard
	}
	if p.isMultiTouch() {
		rec.Caps |= CapTouch
	}
	if p.hasOrdinaryMouseButtons() {
		// A button-equipped absolute device is a tablet or mouse, not
		// a touchscreen: demote touch to button-only (§4.7).
		rec.Caps &^= CapTouch
		rec.Caps |= CapButton
	}

	if p.isTouchpad() {
		cfg := dispatch.TouchpadConfig{
			Vendor: rec.Vendor, Product: rec.Product,
			MinX: p.minX, MaxX: p.maxX, MinY: p.minY, MaxY: p.maxY,
			HasPressure: p.hasPressure, PressureMin: p.pressureMin, PressureMax: p.pressureMax,
		}
		// EVIOCGPROP (nr 0x09) reads the input-property bitmap;
		// INPUT_PROP_BUTTONPAD is bit 0x02.
		var props [8]byte
		if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd),
			uintptr(2<<30|len(props)<<16|'E'<<8|0x09), uintptr(unsafe.Pointer(&props[0]))); errno == 0 {
			cfg.Buttonpad = bits(props[:]).test(0x02)
		}
		if resolver != nil {
			if model, ok := resolver.ResolveModel(rec.Vendor, rec.Product); ok {
				cfg.ModelOverride = &model
			}
		}

		timer, err := timerfd.New(loop)
		if err != nil {
			// Fatal only at construction (§7): fall back to the
			// generic dispatcher rather than fail device open.
			rec.Dispatcher = dispatch.NewFallback(dispatch.FallbackConfig{IsMultiTouch: p.isMultiTouch()}, sink)
			return rec, nil
		}

		tp := dispatch.NewTouchpad(cfg, sink, timer)
		timer.SetHandler(tp.FireTimeout)
		rec.Dispatcher = tp
		return rec, nil
	}

	rec.Dispatcher = dispatch.NewFallback(dispatch.FallbackConfig{
		IsMultiTouch: p.isMultiTouch(),
		Calibration:  rec.Calibration,
	}, sink)
	return rec, nil
}

// Close tears the device down in the order §5 requires: fd, then
// timer/filter/FSM (all released by the dispatcher's own Destroy).
func (r *Record) Close(closeFD func() error) error {
	var err error
	if closeFD != nil {
		err = closeFD()
	}
	if r.Dispatcher != nil {
		r.Dispatcher.Destroy()
	}
	return err
}
