package engine

// Event is an input event delivered by an EventSource.
type Event interface{ isEvent() }

// KeyDown is a key press on some keyboard device.
type KeyDown struct {
	DeviceID  uint16
	KeyCode   uint32
	Modifiers uint32
	IsRepeat  bool
}

// KeyUp is a key release on some keyboard device.
type KeyUp struct {
	DeviceID  uint16
	KeyCode   uint32
	Modifiers uint32
}

// RawMotion carries unaccelerated pointer deltas.
type RawMotion struct {
	DX float64
	DY float64
}

func (KeyDown) isEvent()   {}
func (KeyUp) isEvent()     {}
func (RawMotion) isEvent() {}
