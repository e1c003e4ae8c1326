// Package config holds the process-wide configuration. Everything here is
// written once during flag parsing and read-only afterwards.
package config

import "fmt"

// Debug enables debug-level logging.
var Debug bool

// Emitter names a scroll synthesis backend.
type Emitter string

// Supported emitter backends.
const (
	EmitterXTest   Emitter = "xtest"
	EmitterUinput  Emitter = "uinput"
	EmitterRobotgo Emitter = "robotgo"
)

// Settings is the immutable engine configuration assembled from flags.
type Settings struct {
	// ScrollThreshold is the accumulated motion (in pixels) that produces
	// one scroll unit.
	ScrollThreshold int

	// AllowHorizontal enables translation of the horizontal axis.
	AllowHorizontal bool

	// AllowRepeats emits one click per scroll unit. When false a batch of
	// N units collapses into a single click.
	AllowRepeats bool

	// ToggleMode flips activation on each trigger press instead of
	// holding it only while the key is down.
	ToggleMode bool

	// ReleaseTriggerBeforeScroll synthesizes a key-up for the trigger key
	// before the first scroll of an activation, so the held key is not
	// seen as a modifier by the receiving application.
	ReleaseTriggerBeforeScroll bool

	// TriggerKeyCode is the X keycode that arms/disarms translation.
	TriggerKeyCode uint32

	// TriggerModifiers is a modifier bitmask. When non-zero, every bit
	// must be set in the event's effective modifiers for a match.
	TriggerModifiers uint32

	// EmitterBackend selects how scroll clicks are synthesized.
	EmitterBackend Emitter

	// Display overrides $DISPLAY when non-empty.
	Display string

	// LockFile is the single-instance advisory lock path.
	LockFile string
}

// Validate rejects settings the engine cannot run with.
func (s *Settings) Validate() error {
	if s.ScrollThreshold <= 0 {
		return fmt.Errorf("scroll threshold must be positive, got %d", s.ScrollThreshold)
	}
	if s.TriggerKeyCode == 0 {
		return fmt.Errorf("trigger keycode must be set")
	}
	switch s.EmitterBackend {
	case EmitterXTest, EmitterUinput, EmitterRobotgo:
	default:
		return fmt.Errorf("unknown emitter backend %q", s.EmitterBackend)
	}
	return nil
}
