// Package engine implements the pointer-to-scroll translation core: the
// activation state machine, the per-axis motion accumulators and the emission
// policy. It talks to the window system only through the small interfaces in
// backend.go, so all of it runs without a live X connection.
package engine

import (
	"fmt"
	"time"

	"github.com/kamrankamilli/ptrscroll/pkg/config"
	"github.com/kamrankamilli/ptrscroll/pkg/internal/log"
)

// axis bundles one accumulator with its own rate limiter, so vertical
// emission never starves a simultaneous horizontal batch.
type axis struct {
	acc     axisAccumulator
	limiter *scrollLimiter
	neg     Direction // direction for negative accumulated motion
	pos     Direction
}

// Engine owns all translation state and processes one event at a time.
type Engine struct {
	cfg config.Settings

	src  EventSource
	ptr  Pointer
	emit Emitter

	// Source device id of our own synthetic keyboard, so self-generated
	// key events never drive the state machine. 0 means the source already
	// filters them out and disables the guard.
	syntheticKbd uint16

	now func() time.Time

	active                 bool
	scrollsSinceActivation uint
	anchorX, anchorY       int16

	vertical   axis
	horizontal axis
}

// Opts configures a new Engine.
type Opts struct {
	Settings config.Settings
	Source   EventSource
	Pointer  Pointer
	Emitter  Emitter

	// SyntheticKeyboard is the device id whose key events are ignored by
	// activation matching. Zero disables the guard.
	SyntheticKeyboard uint16

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// New builds an Engine. The settings must have been validated already; a
// non-positive threshold is refused here again as a hard error.
func New(opts *Opts) (*Engine, error) {
	if opts.Settings.ScrollThreshold <= 0 {
		return nil, fmt.Errorf("invalid scroll threshold %d", opts.Settings.ScrollThreshold)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		cfg:          opts.Settings,
		src:          opts.Source,
		ptr:          opts.Pointer,
		emit:         opts.Emitter,
		syntheticKbd: opts.SyntheticKeyboard,
		now:          now,
	}
	t := opts.Settings.ScrollThreshold
	e.vertical = axis{acc: axisAccumulator{threshold: t}, limiter: newScrollLimiter(), neg: DirUp, pos: DirDown}
	e.horizontal = axis{acc: axisAccumulator{threshold: t}, limiter: newScrollLimiter(), neg: DirLeft, pos: DirRight}
	return e, nil
}

// Active reports whether scroll translation is currently armed.
func (e *Engine) Active() bool { return e.active }

// Run blocks on the event source and processes events in delivery order
// until the source fails or is closed.
func (e *Engine) Run() error {
	for {
		ev, err := e.src.WaitEvent()
		if err != nil {
			return fmt.Errorf("event source: %w", err)
		}
		e.HandleEvent(ev)
	}
}

// HandleEvent dispatches a single input event. Emission for this event
// completes before the caller reads the next one.
func (e *Engine) HandleEvent(ev Event) {
	switch ev := ev.(type) {
	case KeyDown:
		e.handleKeyDown(ev)
	case KeyUp:
		e.handleKeyUp(ev)
	case RawMotion:
		e.handleMotion(ev)
	}
}

// Deactivate leaves translation mode, restoring cursor visibility. Called on
// shutdown so a terminated process never leaves the cursor hidden.
func (e *Engine) Deactivate() {
	e.setActive(false)
}

func (e *Engine) handleKeyDown(ev KeyDown) {
	if e.fromSyntheticKeyboard(ev.DeviceID) {
		return
	}
	if !e.isTriggerShortcut(ev.KeyCode, ev.Modifiers) || ev.IsRepeat {
		return
	}
	if e.cfg.ToggleMode {
		e.setActive(!e.active)
		return
	}
	e.setActive(true)
}

func (e *Engine) handleKeyUp(ev KeyUp) {
	if e.fromSyntheticKeyboard(ev.DeviceID) {
		return
	}
	// Only hold mode disarms on release. A stray key-up while already
	// inactive falls through setActive's no-op guard.
	if !e.cfg.ToggleMode && ev.KeyCode == e.cfg.TriggerKeyCode {
		e.setActive(false)
	}
}

func (e *Engine) handleMotion(ev RawMotion) {
	if !e.active {
		return
	}

	// Pin the pointer back to the anchor on every motion event, so raw
	// deltas keep measuring physical motion instead of clipping at the
	// screen edge.
	if err := e.ptr.WarpPointer(e.anchorX, e.anchorY); err != nil {
		log.Warningf("re-centering pointer: %s", err)
	}

	e.translateAxis(&e.vertical, ev.DY)
	if e.cfg.AllowHorizontal {
		e.translateAxis(&e.horizontal, ev.DX)
	}
}

func (e *Engine) translateAxis(ax *axis, delta float64) {
	units := ax.acc.Add(delta)
	if units == 0 {
		return
	}

	if e.scrollsSinceActivation == 0 && e.cfg.ReleaseTriggerBeforeScroll {
		// The trigger key is still physically held; release it once per
		// activation so the receiving application does not treat the
		// scroll as a modified gesture (e.g. ctrl-scroll zoom).
		if err := e.emit.ReleaseKey(e.cfg.TriggerKeyCode); err != nil {
			log.Warningf("releasing trigger key %d: %s", e.cfg.TriggerKeyCode, err)
		}
	}
	e.scrollsSinceActivation++

	if !ax.limiter.Allow(e.now()) {
		// Lossy by design: discard the motion instead of queueing a
		// catch-up burst.
		ax.acc.Reset()
		log.Debugf("rate limited, dropped %d scroll unit(s)", units)
		return
	}

	dir := ax.pos
	if units < 0 {
		dir = ax.neg
		units = -units
	}
	clicks := units
	if !e.cfg.AllowRepeats {
		clicks = 1
	}
	if err := e.emit.Scroll(dir, clicks); err != nil {
		log.Errorf("emitting %d %s scroll click(s): %s", clicks, dir, err)
		return
	}
	log.Debugf("emitted %d %s scroll click(s)", clicks, dir)
}

// isTriggerShortcut matches the configured trigger: exact keycode, and when a
// modifier mask is configured every one of its bits must be present.
func (e *Engine) isTriggerShortcut(keycode, modifiers uint32) bool {
	if keycode != e.cfg.TriggerKeyCode {
		return false
	}
	if e.cfg.TriggerModifiers == 0 {
		return true
	}
	return modifiers&e.cfg.TriggerModifiers == e.cfg.TriggerModifiers
}

func (e *Engine) fromSyntheticKeyboard(device uint16) bool {
	return e.syntheticKbd != 0 && device == e.syntheticKbd
}

// setActive performs an activation transition. Transitions to the current
// state are no-ops: the cursor is not re-hidden or re-shown and the anchor is
// not re-captured.
func (e *Engine) setActive(on bool) {
	if on == e.active {
		return
	}
	e.active = on

	if !on {
		if err := e.ptr.SetCursorHidden(false); err != nil {
			log.Warningf("showing cursor: %s", err)
		}
		log.Debug("scroll translation deactivated")
		return
	}

	x, y, err := e.ptr.PointerPosition()
	if err != nil {
		log.Warningf("querying pointer position: %s", err)
	}
	e.anchorX, e.anchorY = x, y
	e.scrollsSinceActivation = 0
	e.vertical.acc.Reset()
	e.horizontal.acc.Reset()
	if err := e.ptr.SetCursorHidden(true); err != nil {
		log.Warningf("hiding cursor: %s", err)
	}
	log.Debugf("scroll translation activated, anchor (%d,%d)", x, y)
}
