// Package x11 owns the X connection and the pointer-side operations: position
// queries, warping, and cursor visibility. Input events are read from the
// kernel by pkg/evdev; scroll synthesis lives in pkg/emitter.
package x11

import (
	"errors"
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xfixes"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
)

// Sentinel errors so the CLI can map startup failures to distinct exit codes.
var (
	ErrNoDisplay        = errors.New("cannot open X display")
	ErrExtensionMissing = errors.New("required X extension missing")
	ErrVersionTooOld    = errors.New("X extension version too old")
)

// Conn wraps the X connection plus everything resolved at startup.
type Conn struct {
	c    *xgb.Conn
	root xproto.Window
}

// Open connects to the display (empty string means $DISPLAY) and initializes
// the XTest and XFixes extensions, verifying their versions.
func Open(display string) (*Conn, error) {
	c, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoDisplay, err)
	}

	x := &Conn{c: c, root: xproto.Setup(c).DefaultScreen(c).Root}

	if err := x.initExtensions(); err != nil {
		c.Close()
		return nil, err
	}
	return x, nil
}

func (x *Conn) initExtensions() error {
	if err := xtest.Init(x.c); err != nil {
		return fmt.Errorf("%w: XTEST: %s", ErrExtensionMissing, err)
	}
	if err := xfixes.Init(x.c); err != nil {
		return fmt.Errorf("%w: XFIXES: %s", ErrExtensionMissing, err)
	}

	xt, err := xtest.GetVersion(x.c, 2, 1).Reply()
	if err != nil {
		return fmt.Errorf("%w: XTEST version query: %s", ErrVersionTooOld, err)
	}
	if xt.MajorVersion < 2 {
		return fmt.Errorf("%w: XTEST %d.%d, need 2.1", ErrVersionTooOld, xt.MajorVersion, xt.MinorVersion)
	}

	// Cursor hiding needs XFixes 4.
	xf, err := xfixes.QueryVersion(x.c, 4, 0).Reply()
	if err != nil {
		return fmt.Errorf("%w: XFixes version query: %s", ErrVersionTooOld, err)
	}
	if xf.MajorVersion < 4 {
		return fmt.Errorf("%w: XFixes %d.%d, need 4.0", ErrVersionTooOld, xf.MajorVersion, xf.MinorVersion)
	}

	return nil
}

// XConn exposes the raw connection for the XTest emitter.
func (x *Conn) XConn() *xgb.Conn { return x.c }

// Root returns the root window of the default screen.
func (x *Conn) Root() xproto.Window { return x.root }

// PointerPosition queries the pointer's current root coordinates.
func (x *Conn) PointerPosition() (int16, int16, error) {
	r, err := xproto.QueryPointer(x.c, x.root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return r.RootX, r.RootY, nil
}

// WarpPointer moves the pointer to absolute root coordinates.
func (x *Conn) WarpPointer(xPos, yPos int16) error {
	return xproto.WarpPointerChecked(x.c, xproto.Window(0), x.root, 0, 0, 0, 0, xPos, yPos).Check()
}

// SetCursorHidden hides or shows the cursor over the root window.
func (x *Conn) SetCursorHidden(hidden bool) error {
	if hidden {
		return xfixes.HideCursorChecked(x.c, x.root).Check()
	}
	return xfixes.ShowCursorChecked(x.c, x.root).Check()
}

// Close shuts down the X connection.
func (x *Conn) Close() { x.c.Close() }
