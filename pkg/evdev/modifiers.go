package evdev

// X core protocol modifier masks.
const (
	shiftMask   = 1 << 0
	lockMask    = 1 << 1
	controlMask = 1 << 2
	mod1Mask    = 1 << 3 // Alt on common keymaps
	mod4Mask    = 1 << 6 // Super
)

// Evdev keycodes of the modifier keys we track.
const (
	keyLeftCtrl   = 29
	keyLeftShift  = 42
	keyRightShift = 54
	keyLeftAlt    = 56
	keyCapsLock   = 58
	keyRightCtrl  = 97
	keyRightAlt   = 100
	keyLeftMeta   = 125
	keyRightMeta  = 126
)

var modifierBits = map[uint16]uint32{
	keyLeftShift:  shiftMask,
	keyRightShift: shiftMask,
	keyCapsLock:   lockMask,
	keyLeftCtrl:   controlMask,
	keyRightCtrl:  controlMask,
	keyLeftAlt:    mod1Mask,
	keyRightAlt:   mod1Mask,
	keyLeftMeta:   mod4Mask,
	keyRightMeta:  mod4Mask,
}

// modState tracks which modifier keys are physically held, so key events can
// carry an X-style modifier mask. Raw device events have no server state
// attached; reconstructing the mask from held keys is the device-level
// equivalent. Caps Lock counts only while held, not as a latch.
type modState struct {
	down map[uint16]struct{}
}

func newModState() modState {
	return modState{down: make(map[uint16]struct{})}
}

func (m *modState) set(code uint16, held bool) {
	if _, tracked := modifierBits[code]; !tracked {
		return
	}
	if held {
		m.down[code] = struct{}{}
	} else {
		delete(m.down, code)
	}
}

func (m *modState) mask() uint32 {
	var mask uint32
	for code := range m.down {
		mask |= modifierBits[code]
	}
	return mask
}
