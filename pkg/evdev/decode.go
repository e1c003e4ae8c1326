package evdev

import "github.com/kamrankamilli/ptrscroll/pkg/engine"

// Event type and code constants from linux/input-event-codes.h.
const (
	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	synReport = 0x00

	relX = 0x00
	relY = 0x01

	// Button events (mouse buttons, tablet tools) start here; everything
	// below is a keyboard key.
	btnMisc = 0x100
)

// Key event values.
const (
	keyValueUp     = 0
	keyValueDown   = 1
	keyValueRepeat = 2
)

// X keycodes are evdev keycodes shifted by 8.
const xKeycodeOffset = 8

// decode translates one raw kernel event into an engine event. Relative
// motion is batched per device until its SYN_REPORT so that one physical
// pointer update yields one RawMotion carrying both axes.
func (s *Source) decode(d *device, ev inputEvent) (engine.Event, bool) {
	switch ev.Type {
	case evSyn:
		if ev.Code == synReport && d.sawMotion {
			out := engine.RawMotion{DX: d.dx, DY: d.dy}
			d.dx, d.dy = 0, 0
			d.sawMotion = false
			return out, true
		}

	case evRel:
		switch ev.Code {
		case relX:
			d.dx += float64(ev.Value)
			d.sawMotion = true
		case relY:
			d.dy += float64(ev.Value)
			d.sawMotion = true
		}
		// REL_WHEEL and friends are ignored: real wheel clicks pass
		// through to the server untranslated.

	case evKey:
		if ev.Code >= btnMisc {
			break
		}
		keycode := uint32(ev.Code) + xKeycodeOffset
		// Snapshot the mask before updating it, matching the X
		// convention that a key event reports the state *before* the
		// key itself changed.
		mask := s.mods.mask()
		switch ev.Value {
		case keyValueUp:
			s.mods.set(ev.Code, false)
			return engine.KeyUp{DeviceID: d.id, KeyCode: keycode, Modifiers: mask}, true
		case keyValueDown, keyValueRepeat:
			s.mods.set(ev.Code, true)
			return engine.KeyDown{
				DeviceID:  d.id,
				KeyCode:   keycode,
				Modifiers: mask,
				IsRepeat:  ev.Value == keyValueRepeat,
			}, true
		}
	}
	return nil, false
}
