// Package proto defines the raw input-event wire format this library
// consumes (the kernel's struct input_event, shorn of its C layout)
// and the fixed-point coordinate type its output boundary uses.
package proto

// Event types (linux/input-event-codes.h EV_*).
const (
	EV_SYN uint16 = 0x00
	EV_KEY uint16 = 0x01
	EV_REL uint16 = 0x02
	EV_ABS uint16 = 0x03
	EV_LED uint16 = 0x11
)

// EV_SYN codes.
const (
	SYN_REPORT uint16 = 0x00
)

// EV_REL codes.
const (
	REL_X      uint16 = 0x00
	REL_Y      uint16 = 0x01
	REL_HWHEEL uint16 = 0x06
	REL_WHEEL  uint16 = 0x08
)

// EV_ABS codes.
const (
	ABS_X               uint16 = 0x00
	ABS_Y               uint16 = 0x01
	ABS_PRESSURE        uint16 = 0x18
	ABS_HAT0X           uint16 = 0x10
	ABS_GAS             uint16 = 0x09
	ABS_BRAKE           uint16 = 0x0a
	ABS_WHEEL           uint16 = 0x08
	ABS_MT_SLOT         uint16 = 0x2f
	ABS_MT_TRACKING_ID  uint16 = 0x39
	ABS_MT_POSITION_X   uint16 = 0x35
	ABS_MT_POSITION_Y   uint16 = 0x36
)

// EV_KEY codes: pointer buttons.
const (
	BTN_LEFT    uint16 = 0x110
	BTN_RIGHT   uint16 = 0x111
	BTN_MIDDLE  uint16 = 0x112
	BTN_SIDE    uint16 = 0x113
	BTN_EXTRA   uint16 = 0x114
	BTN_FORWARD uint16 = 0x115
	BTN_BACK    uint16 = 0x116
	BTN_TASK    uint16 = 0x117
)

// EV_KEY codes: touch and tool identification.
const (
	BTN_TOUCH        uint16 = 0x14a
	BTN_TOOL_PEN     uint16 = 0x140
	BTN_TOOL_RUBBER  uint16 = 0x141
	BTN_TOOL_BRUSH   uint16 = 0x142
	BTN_TOOL_PENCIL  uint16 = 0x143
	BTN_TOOL_AIRBRUSH uint16 = 0x144
	BTN_TOOL_FINGER  uint16 = 0x145
	BTN_TOOL_MOUSE   uint16 = 0x146
	BTN_TOOL_LENS    uint16 = 0x147
	BTN_TOOL_DOUBLETAP uint16 = 0x14d
	BTN_TOOL_TRIPLETAP uint16 = 0x14e
)

// EV_KEY range markers used by the device shell to classify a device
// as keyboard-capable: BTN_MISC..KEY_OK is skipped when scanning for
// "any key pressed", since it covers the mouse-button codes.
const (
	KEY_ESC  uint16 = 0x01
	KEY_MAX  uint16 = 0x2ff
	BTN_MISC uint16 = 0x100
	KEY_OK   uint16 = 0x160
)

// EV_LED codes.
const (
	LED_NUML    uint16 = 0x00
	LED_CAPSL   uint16 = 0x01
	LED_SCROLLL uint16 = 0x02
)

// NonFingerTools lists the EV_KEY tool codes that mark a non-finger
// contact (pen, eraser, mouse emulation, etc.) on a touchpad; seeing
// any of these forces a pipeline reset (§4.5).
var NonFingerTools = []uint16{
	BTN_TOOL_PEN,
	BTN_TOOL_RUBBER,
	BTN_TOOL_BRUSH,
	BTN_TOOL_PENCIL,
	BTN_TOOL_AIRBRUSH,
	BTN_TOOL_MOUSE,
	BTN_TOOL_LENS,
}

// PointerButtons lists the EV_KEY codes treated as ordinary mouse
// buttons rather than keyboard keys.
var PointerButtons = []uint16{
	BTN_LEFT, BTN_RIGHT, BTN_MIDDLE, BTN_SIDE, BTN_EXTRA, BTN_FORWARD, BTN_BACK, BTN_TASK,
}

// IsPointerButton reports whether code is one of the ordinary mouse
// button codes.
func IsPointerButton(code uint16) bool {
	for _, c := range PointerButtons {
		if c == code {
			return true
		}
	}
	return false
}

// IsNonFingerTool reports whether code identifies a non-finger tool.
func IsNonFingerTool(code uint16) bool {
	for _, c := range NonFingerTools {
		if c == code {
			return true
		}
	}
	return false
}
