package emitter

import (
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"

	"github.com/kamrankamilli/ptrscroll/pkg/engine"
	"github.com/kamrankamilli/ptrscroll/pkg/x11"
)

// Scroll wheel input in X is modelled as button presses: button 4 scrolls
// up, 5 down, 6 left, 7 right.
const (
	btnScrollUp    = 4
	btnScrollDown  = 5
	btnScrollLeft  = 6
	btnScrollRight = 7
)

// XTest synthesizes scroll clicks as fake button press/release pairs over
// the shared X connection.
type XTest struct {
	x *x11.Conn
}

// NewXTest returns the XTest emitter.
func NewXTest(x *x11.Conn) *XTest { return &XTest{x: x} }

// Scroll emits clicks press/release pairs of the matching scroll button.
func (e *XTest) Scroll(d engine.Direction, clicks int) error {
	btn := scrollButton(d)
	c, root := e.x.XConn(), e.x.Root()
	for i := 0; i < clicks; i++ {
		if err := xtest.FakeInputChecked(c, xproto.ButtonPress, btn, 0, root, 0, 0, 0).Check(); err != nil {
			return err
		}
		if err := xtest.FakeInputChecked(c, xproto.ButtonRelease, btn, 0, root, 0, 0, 0).Check(); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseKey synthesizes a key-up for the given keycode. The event is
// sourced from the XTest keyboard device, which the engine excludes from
// activation matching.
func (e *XTest) ReleaseKey(keycode uint32) error {
	return xtest.FakeInputChecked(e.x.XConn(), xproto.KeyRelease, byte(keycode), 0, e.x.Root(), 0, 0, 0).Check()
}

func scrollButton(d engine.Direction) byte {
	switch d {
	case engine.DirUp:
		return btnScrollUp
	case engine.DirDown:
		return btnScrollDown
	case engine.DirLeft:
		return btnScrollLeft
	default:
		return btnScrollRight
	}
}
