package engine

// Direction is a discrete scroll direction.
type Direction int

// Scroll directions. Negative accumulated motion maps to Up/Left,
// positive to Down/Right.
const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return "unknown"
}

// EventSource delivers input events. WaitEvent blocks until the next event
// arrives or the source is closed.
type EventSource interface {
	WaitEvent() (Event, error)
}

// Pointer is the window-system pointer capability the engine needs: anchor
// capture, re-centering and cursor visibility.
type Pointer interface {
	PointerPosition() (x, y int16, err error)
	WarpPointer(x, y int16) error
	SetCursorHidden(hidden bool) error
}

// Emitter synthesizes the discrete output events.
type Emitter interface {
	// Scroll emits clicks wheel clicks in the given direction. clicks is
	// always >= 1.
	Scroll(d Direction, clicks int) error

	// ReleaseKey synthesizes a key-up for the given X keycode.
	ReleaseKey(keycode uint32) error
}
