package emitter

import (
	"github.com/go-vgo/robotgo"

	"github.com/kamrankamilli/ptrscroll/pkg/engine"
	"github.com/kamrankamilli/ptrscroll/pkg/internal/log"
)

// Robotgo scrolls through robotgo's portability layer. robotgo.Scroll(x, y):
// y > 0 scrolls up, y < 0 down, x > 0 right, x < 0 left.
type Robotgo struct {
	warnedKeyRelease bool
}

func (e *Robotgo) Scroll(d engine.Direction, clicks int) error {
	var x, y int
	switch d {
	case engine.DirUp:
		y = clicks
	case engine.DirDown:
		y = -clicks
	case engine.DirLeft:
		x = -clicks
	case engine.DirRight:
		x = clicks
	}
	robotgo.Scroll(x, y)
	return nil
}

// ReleaseKey is not supported: robotgo addresses keys by name, not keycode.
// The held trigger key then stays visible to the receiving application, a
// degradation rather than a failure.
func (e *Robotgo) ReleaseKey(keycode uint32) error {
	if !e.warnedKeyRelease {
		log.Warningf("robotgo emitter cannot release keycode %d; use --emitter xtest for release-trigger support", keycode)
		e.warnedKeyRelease = true
	}
	return nil
}
