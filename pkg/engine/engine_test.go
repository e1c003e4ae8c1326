package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kamrankamilli/ptrscroll/pkg/config"
)

const testTriggerKey = 64

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type point struct{ X, Y int16 }

type fakePointer struct {
	x, y        int16
	hiddenCalls []bool
	warps       []point
}

func (p *fakePointer) PointerPosition() (int16, int16, error) { return p.x, p.y, nil }

func (p *fakePointer) WarpPointer(x, y int16) error {
	p.warps = append(p.warps, point{x, y})
	return nil
}

func (p *fakePointer) SetCursorHidden(hidden bool) error {
	p.hiddenCalls = append(p.hiddenCalls, hidden)
	return nil
}

type scrollCall struct {
	Dir    Direction
	Clicks int
}

type fakeEmitter struct {
	scrolls  []scrollCall
	released []uint32
}

func (e *fakeEmitter) Scroll(d Direction, clicks int) error {
	e.scrolls = append(e.scrolls, scrollCall{d, clicks})
	return nil
}

func (e *fakeEmitter) ReleaseKey(keycode uint32) error {
	e.released = append(e.released, keycode)
	return nil
}

func defaultSettings() config.Settings {
	return config.Settings{
		ScrollThreshold: 50,
		AllowRepeats:    true,
		TriggerKeyCode:  testTriggerKey,
	}
}

func newTestEngine(t *testing.T, s config.Settings) (*Engine, *fakePointer, *fakeEmitter, *fakeClock) {
	t.Helper()
	ptr := &fakePointer{}
	em := &fakeEmitter{}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	e, err := New(&Opts{
		Settings:          s,
		Pointer:           ptr,
		Emitter:           em,
		SyntheticKeyboard: 0,
		Now:               clock.now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, ptr, em, clock
}

func pressTrigger(e *Engine) {
	e.HandleEvent(KeyDown{DeviceID: 3, KeyCode: testTriggerKey})
}

func releaseTrigger(e *Engine) {
	e.HandleEvent(KeyUp{DeviceID: 3, KeyCode: testTriggerKey})
}

func TestSingleDeltaEmitsBatchWithResidual(t *testing.T) {
	e, _, em, _ := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	e.HandleEvent(RawMotion{DY: 120})

	want := []scrollCall{{DirDown, 2}}
	if diff := cmp.Diff(want, em.scrolls); diff != "" {
		t.Errorf("scroll calls mismatch (-want +got):\n%s", diff)
	}
	if got := e.vertical.acc.total; got != 20 {
		t.Errorf("residual = %v, want 20", got)
	}
}

func TestSmallDeltasCarryOver(t *testing.T) {
	e, _, em, _ := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	for i := 0; i < 5; i++ {
		e.HandleEvent(RawMotion{DY: 10})
	}

	want := []scrollCall{{DirDown, 1}}
	if diff := cmp.Diff(want, em.scrolls); diff != "" {
		t.Errorf("scroll calls mismatch (-want +got):\n%s", diff)
	}
	if got := e.vertical.acc.total; got != 0 {
		t.Errorf("residual = %v, want 0", got)
	}

	releaseTrigger(e)
	e.HandleEvent(RawMotion{DY: 500})
	if len(em.scrolls) != 1 {
		t.Errorf("motion after release still scrolled: %v", em.scrolls)
	}
}

func TestNegativeMotionScrollsUp(t *testing.T) {
	e, _, em, _ := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	e.HandleEvent(RawMotion{DY: -120})

	want := []scrollCall{{DirUp, 2}}
	if diff := cmp.Diff(want, em.scrolls); diff != "" {
		t.Errorf("scroll calls mismatch (-want +got):\n%s", diff)
	}
}

func TestZeroDeltaNeverEmits(t *testing.T) {
	e, _, em, _ := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	for i := 0; i < 100; i++ {
		e.HandleEvent(RawMotion{})
	}
	if len(em.scrolls) != 0 {
		t.Errorf("zero deltas emitted scrolls: %v", em.scrolls)
	}
}

func TestToggleModeFlipsAndIsIdempotent(t *testing.T) {
	s := defaultSettings()
	s.ToggleMode = true
	e, ptr, em, _ := newTestEngine(t, s)

	pressTrigger(e)
	releaseTrigger(e) // key-up must not disarm in toggle mode
	if !e.Active() {
		t.Fatal("not active after toggle press")
	}

	pressTrigger(e)
	releaseTrigger(e)
	if e.Active() {
		t.Fatal("still active after second toggle press")
	}

	if diff := cmp.Diff([]bool{true, false}, ptr.hiddenCalls); diff != "" {
		t.Errorf("cursor visibility calls mismatch (-want +got):\n%s", diff)
	}
	if len(em.scrolls) != 0 {
		t.Errorf("toggle key events caused scrolls: %v", em.scrolls)
	}
}

func TestHoldModeReleasesOnKeyUp(t *testing.T) {
	e, ptr, _, _ := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	if !e.Active() {
		t.Fatal("not active while trigger held")
	}
	releaseTrigger(e)
	if e.Active() {
		t.Fatal("still active after trigger release")
	}
	if diff := cmp.Diff([]bool{true, false}, ptr.hiddenCalls); diff != "" {
		t.Errorf("cursor visibility calls mismatch (-want +got):\n%s", diff)
	}
}

func TestStrayKeyUpWhileInactive(t *testing.T) {
	e, ptr, _, _ := newTestEngine(t, defaultSettings())

	releaseTrigger(e)
	if e.Active() {
		t.Fatal("stray key-up activated the engine")
	}
	if len(ptr.hiddenCalls) != 0 {
		t.Errorf("stray key-up touched the cursor: %v", ptr.hiddenCalls)
	}
}

func TestRepeatedHoldDownIsNoop(t *testing.T) {
	e, ptr, _, _ := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	pressTrigger(e)
	pressTrigger(e)
	if diff := cmp.Diff([]bool{true}, ptr.hiddenCalls); diff != "" {
		t.Errorf("redundant key-downs re-hid the cursor (-want +got):\n%s", diff)
	}
}

func TestKeyRepeatDoesNotToggle(t *testing.T) {
	s := defaultSettings()
	s.ToggleMode = true
	e, _, _, _ := newTestEngine(t, s)

	pressTrigger(e)
	e.HandleEvent(KeyDown{DeviceID: 3, KeyCode: testTriggerKey, IsRepeat: true})
	if !e.Active() {
		t.Fatal("key repeat flipped activation")
	}
}

func TestModifierMaskMatching(t *testing.T) {
	s := defaultSettings()
	s.TriggerModifiers = 0x4 // Control
	e, _, _, _ := newTestEngine(t, s)

	e.HandleEvent(KeyDown{DeviceID: 3, KeyCode: testTriggerKey, Modifiers: 0x1})
	if e.Active() {
		t.Fatal("activated without required modifier")
	}
	// Extra modifier bits beyond the required ones are fine.
	e.HandleEvent(KeyDown{DeviceID: 3, KeyCode: testTriggerKey, Modifiers: 0x5})
	if !e.Active() {
		t.Fatal("did not activate with required modifier held")
	}
}

func TestSyntheticKeyboardIgnored(t *testing.T) {
	const syntheticID = 99
	s := defaultSettings()
	s.ReleaseTriggerBeforeScroll = true
	ptr := &fakePointer{}
	em := &fakeEmitter{}
	clock := &fakeClock{t: time.Unix(1000, 0)}
	e, err := New(&Opts{
		Settings:          s,
		Pointer:           ptr,
		Emitter:           em,
		SyntheticKeyboard: syntheticID,
		Now:               clock.now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pressTrigger(e)
	// The self-generated key-up arrives back from the XTest keyboard; it
	// must not disarm hold mode.
	e.HandleEvent(KeyUp{DeviceID: syntheticID, KeyCode: testTriggerKey})
	if !e.Active() {
		t.Fatal("synthetic key-up disarmed the engine")
	}
	e.HandleEvent(KeyDown{DeviceID: syntheticID, KeyCode: testTriggerKey})
	if !e.Active() {
		t.Fatal("synthetic key-down changed activation")
	}
}

func TestRateLimiterDiscardsInsteadOfDeferring(t *testing.T) {
	e, _, em, clock := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	e.HandleEvent(RawMotion{DY: 60}) // emits, residual 10
	clock.advance(10 * time.Millisecond)
	e.HandleEvent(RawMotion{DY: 45}) // trigger at 55, denied, discarded

	want := []scrollCall{{DirDown, 1}}
	if diff := cmp.Diff(want, em.scrolls); diff != "" {
		t.Errorf("scroll calls mismatch (-want +got):\n%s", diff)
	}
	if got := e.vertical.acc.total; got != 0 {
		t.Errorf("denied trigger left residual %v, want 0 (discard, not defer)", got)
	}

	// Discarded motion must not replay later: the next small delta starts
	// from zero.
	clock.advance(minScrollInterval)
	e.HandleEvent(RawMotion{DY: 10})
	if len(em.scrolls) != 1 {
		t.Errorf("discarded motion was deferred: %v", em.scrolls)
	}
}

func TestRateLimiterAllowsAfterInterval(t *testing.T) {
	e, _, em, clock := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	e.HandleEvent(RawMotion{DY: 60})
	clock.advance(minScrollInterval)
	e.HandleEvent(RawMotion{DY: 60})

	want := []scrollCall{{DirDown, 1}, {DirDown, 1}}
	if diff := cmp.Diff(want, em.scrolls); diff != "" {
		t.Errorf("scroll calls mismatch (-want +got):\n%s", diff)
	}
}

func TestReleaseTriggerExactlyOncePerActivation(t *testing.T) {
	s := defaultSettings()
	s.ReleaseTriggerBeforeScroll = true
	e, _, em, clock := newTestEngine(t, s)

	pressTrigger(e)
	e.HandleEvent(RawMotion{DY: 60})
	clock.advance(minScrollInterval)
	e.HandleEvent(RawMotion{DY: 60})

	if diff := cmp.Diff([]uint32{testTriggerKey}, em.released); diff != "" {
		t.Errorf("trigger releases mismatch (-want +got):\n%s", diff)
	}

	// A fresh activation releases again.
	releaseTrigger(e)
	pressTrigger(e)
	clock.advance(minScrollInterval)
	e.HandleEvent(RawMotion{DY: 60})
	if diff := cmp.Diff([]uint32{testTriggerKey, testTriggerKey}, em.released); diff != "" {
		t.Errorf("trigger releases after reactivation mismatch (-want +got):\n%s", diff)
	}
}

func TestNoReleaseTriggerWhenDisabled(t *testing.T) {
	e, _, em, _ := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	e.HandleEvent(RawMotion{DY: 60})
	if len(em.released) != 0 {
		t.Errorf("released trigger despite disabled option: %v", em.released)
	}
}

func TestRepeatSuppressionCollapsesBatch(t *testing.T) {
	s := defaultSettings()
	s.AllowRepeats = false
	e, _, em, _ := newTestEngine(t, s)

	pressTrigger(e)
	e.HandleEvent(RawMotion{DY: 260}) // 5 units

	want := []scrollCall{{DirDown, 1}}
	if diff := cmp.Diff(want, em.scrolls); diff != "" {
		t.Errorf("scroll calls mismatch (-want +got):\n%s", diff)
	}
}

func TestHorizontalAxisGating(t *testing.T) {
	e, _, em, _ := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	e.HandleEvent(RawMotion{DX: 500})
	if len(em.scrolls) != 0 {
		t.Errorf("horizontal motion scrolled while disabled: %v", em.scrolls)
	}

	s := defaultSettings()
	s.AllowHorizontal = true
	e2, _, em2, _ := newTestEngine(t, s)
	pressTrigger(e2)
	e2.HandleEvent(RawMotion{DX: -60})
	e2.HandleEvent(RawMotion{DX: 0, DY: 0})

	want := []scrollCall{{DirLeft, 1}}
	if diff := cmp.Diff(want, em2.scrolls); diff != "" {
		t.Errorf("scroll calls mismatch (-want +got):\n%s", diff)
	}
}

func TestAnchorCapturedAndWarpedEveryMotion(t *testing.T) {
	e, ptr, _, _ := newTestEngine(t, defaultSettings())
	ptr.x, ptr.y = 100, 200

	e.HandleEvent(RawMotion{DY: 10})
	if len(ptr.warps) != 0 {
		t.Fatalf("warped while inactive: %v", ptr.warps)
	}

	pressTrigger(e)
	e.HandleEvent(RawMotion{DY: 10})
	e.HandleEvent(RawMotion{DY: -3})
	e.HandleEvent(RawMotion{DX: 7})

	want := []point{{100, 200}, {100, 200}, {100, 200}}
	if diff := cmp.Diff(want, ptr.warps); diff != "" {
		t.Errorf("warp calls mismatch (-want +got):\n%s", diff)
	}
}

func TestAccumulatorsResetOnActivation(t *testing.T) {
	e, _, em, _ := newTestEngine(t, defaultSettings())

	pressTrigger(e)
	e.HandleEvent(RawMotion{DY: 40}) // residual 40
	releaseTrigger(e)
	pressTrigger(e)
	e.HandleEvent(RawMotion{DY: 40}) // fresh accumulator: still below threshold

	if len(em.scrolls) != 0 {
		t.Errorf("residual survived reactivation: %v", em.scrolls)
	}
}

func TestEmittedUnitsTrackTotalMotion(t *testing.T) {
	s := defaultSettings()
	s.ScrollThreshold = 7
	e, _, em, clock := newTestEngine(t, s)

	pressTrigger(e)
	deltas := []float64{3, 9, 1, 14, 2, 6, 5, 30, 4}
	var sum float64
	for _, d := range deltas {
		clock.advance(minScrollInterval) // keep the limiter out of the way
		e.HandleEvent(RawMotion{DY: d})
		sum += d
	}

	var units int
	for _, c := range em.scrolls {
		units += c.Clicks
	}
	want := int(sum) / s.ScrollThreshold
	if units < want-1 || units > want+1 {
		t.Errorf("emitted %d units for total motion %v, want %d±1", units, sum, want)
	}
	if r := e.vertical.acc.total; r <= -7 || r >= 7 {
		t.Errorf("residual %v outside (-threshold, threshold)", r)
	}
}

type scriptedSource struct {
	events []Event
	err    error
}

func (s *scriptedSource) WaitEvent() (Event, error) {
	if len(s.events) == 0 {
		return nil, s.err
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func TestRunProcessesEventsThenReturnsSourceError(t *testing.T) {
	sourceClosed := errors.New("source closed")
	src := &scriptedSource{
		events: []Event{
			KeyDown{DeviceID: 3, KeyCode: testTriggerKey},
			RawMotion{DY: 60},
		},
		err: sourceClosed,
	}

	ptr := &fakePointer{}
	em := &fakeEmitter{}
	e, err := New(&Opts{Settings: defaultSettings(), Source: src, Pointer: ptr, Emitter: em})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// All engine mutation happens inside Run; a closer goroutine only has
	// to stop the source and wait for Run to unwind.
	runErr := e.Run()
	if !errors.Is(runErr, sourceClosed) {
		t.Errorf("Run returned %v, want wrapped source-closed error", runErr)
	}

	want := []scrollCall{{DirDown, 1}}
	if diff := cmp.Diff(want, em.scrolls); diff != "" {
		t.Errorf("scroll calls mismatch (-want +got):\n%s", diff)
	}

	e.Deactivate()
	wantHidden := []bool{true, false}
	if diff := cmp.Diff(wantHidden, ptr.hiddenCalls); diff != "" {
		t.Errorf("cursor visibility calls mismatch (-want +got):\n%s", diff)
	}
}
