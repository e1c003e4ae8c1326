package emitter

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/kamrankamilli/ptrscroll/pkg/engine"
)

// Linux uinput constants, from linux/uinput.h and linux/input-event-codes.h.
const (
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetRelBit  = 0x40045566
	uiDevSetup   = 0x405c5503
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502

	evSyn = 0x00
	evKey = 0x01
	evRel = 0x02

	relHWheel = 0x06
	relWheel  = 0x08
	synReport = 0x00

	busUSB = 0x03

	uinputMaxNameSize = 80
)

// X keycodes are evdev keycodes shifted by 8.
const evdevKeycodeOffset = 8

// VirtualDeviceName is the uinput device name. The event source skips any
// device carrying it so our own synthetic events never feed back in.
const VirtualDeviceName = "ptrscroll virtual wheel"

// The kernel needs a moment to register the virtual device with listeners
// before it will route events from it.
const deviceSetupDelay = 100 * time.Millisecond

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputSetup struct {
	ID   inputID
	Name [uinputMaxNameSize]byte
	_    uint32 // ff_effects_max (unused)
}

// inputEvent mirrors struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Uinput emits wheel clicks through a virtual evdev device. Unlike XTest
// button synthesis these are real REL_WHEEL events, which some toolkits
// treat with smoother kinetics.
type Uinput struct {
	fd         int
	triggerKey uint16
}

// NewUinput creates the virtual wheel device. triggerKey is the X keycode
// registered for synthetic release events.
func NewUinput(triggerKey uint32) (*Uinput, error) {
	fd, err := unix.Open("/dev/uinput", unix.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("opening /dev/uinput: %w", err)
	}

	key := uint16(triggerKey - evdevKeycodeOffset)
	u := &Uinput{fd: fd, triggerKey: key}
	if err := u.setup(key); err != nil {
		unix.Close(fd)
		return nil, err
	}

	time.Sleep(deviceSetupDelay)
	return u, nil
}

func (u *Uinput) setup(key uint16) error {
	bits := []struct {
		cmd   uintptr
		value uintptr
		name  string
	}{
		{uiSetEvBit, evRel, "EV_REL"},
		{uiSetRelBit, relWheel, "REL_WHEEL"},
		{uiSetRelBit, relHWheel, "REL_HWHEEL"},
		{uiSetEvBit, evKey, "EV_KEY"},
		{uiSetKeyBit, uintptr(key), "trigger key"},
		{uiSetEvBit, evSyn, "EV_SYN"},
	}
	for _, b := range bits {
		if err := u.ioctl(b.cmd, b.value); err != nil {
			return fmt.Errorf("enabling %s: %w", b.name, err)
		}
	}

	var setup uinputSetup
	copy(setup.Name[:], VirtualDeviceName)
	setup.ID.Bustype = busUSB
	setup.ID.Version = 1
	if err := u.ioctl(uiDevSetup, uintptr(unsafe.Pointer(&setup))); err != nil {
		return fmt.Errorf("uinput device setup: %w", err)
	}
	if err := u.ioctl(uiDevCreate, 0); err != nil {
		return fmt.Errorf("uinput device create: %w", err)
	}
	return nil
}

func (u *Uinput) ioctl(cmd, value uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(u.fd), cmd, value); errno != 0 {
		return errno
	}
	return nil
}

// Scroll writes one REL_WHEEL/REL_HWHEEL event carrying the full click count.
func (u *Uinput) Scroll(d engine.Direction, clicks int) error {
	code := uint16(relWheel)
	value := int32(clicks)
	switch d {
	case engine.DirUp:
		// REL_WHEEL is positive away from the user.
	case engine.DirDown:
		value = -value
	case engine.DirLeft:
		code = relHWheel
		value = -value
	case engine.DirRight:
		code = relHWheel
	}
	return u.write(evRel, code, value)
}

// ReleaseKey emits a key-up for the trigger key.
func (u *Uinput) ReleaseKey(keycode uint32) error {
	return u.write(evKey, uint16(keycode-evdevKeycodeOffset), 0)
}

func (u *Uinput) write(typ, code uint16, value int32) error {
	now := time.Now()
	events := []inputEvent{
		{Time: unix.Timeval{Sec: now.Unix()}, Type: typ, Code: code, Value: value},
		{Time: unix.Timeval{Sec: now.Unix()}, Type: evSyn, Code: synReport, Value: 0},
	}
	for _, ev := range events {
		buf := (*(*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev)))[:]
		if _, err := unix.Write(u.fd, buf); err != nil {
			return fmt.Errorf("writing input event: %w", err)
		}
	}
	return nil
}

// Close destroys the virtual device.
func (u *Uinput) Close() {
	u.ioctl(uiDevDestroy, 0)
	unix.Close(u.fd)
}
