// Package emitter provides the scroll synthesis backends. The default XTest
// backend rides the engine's X connection; uinput writes wheel events through
// a virtual evdev device; robotgo uses its own portability layer.
package emitter

import (
	"fmt"

	"github.com/kamrankamilli/ptrscroll/pkg/config"
	"github.com/kamrankamilli/ptrscroll/pkg/engine"
	"github.com/kamrankamilli/ptrscroll/pkg/x11"
)

// New returns the emitter selected by the configuration. triggerKey is the X
// keycode the uinput backend must be able to release.
func New(backend config.Emitter, x *x11.Conn, triggerKey uint32) (engine.Emitter, error) {
	switch backend {
	case config.EmitterXTest:
		return NewXTest(x), nil
	case config.EmitterUinput:
		return NewUinput(triggerKey)
	case config.EmitterRobotgo:
		return &Robotgo{}, nil
	default:
		return nil, fmt.Errorf("unknown emitter backend %q", backend)
	}
}

// Close shuts down an emitter if it holds resources.
func Close(e engine.Emitter) {
	if closer, ok := e.(interface{ Close() }); ok {
		closer.Close()
	}
}
