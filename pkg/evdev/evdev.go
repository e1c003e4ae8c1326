// Package evdev is the real event source: it reads key and relative-motion
// events straight from the kernel's /dev/input/event* nodes. Unlike an X-side
// selection, device-level events arrive regardless of which window holds
// input focus, which is exactly what a global trigger key needs.
package evdev

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/kamrankamilli/ptrscroll/pkg/engine"
	"github.com/kamrankamilli/ptrscroll/pkg/internal/log"
)

// ErrClosed is returned from WaitEvent after a deliberate Close.
var ErrClosed = errors.New("event source closed")

// ErrNoDevices means no readable input device was found. Usually a
// permissions problem: reading /dev/input needs root or the input group.
var ErrNoDevices = errors.New("no readable input devices under /dev/input")

// maxEventDevices bounds the /dev/input/event* scan.
const maxEventDevices = 32

// inputEvent mirrors struct input_event.
type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

const eventSize = int(unsafe.Sizeof(inputEvent{}))

// device is one opened input node plus its per-device decode state.
type device struct {
	fd   int
	id   uint16
	name string

	// Relative motion accumulated since the last SYN_REPORT.
	dx, dy    float64
	sawMotion bool
}

// Source multiplexes all opened devices through one epoll instance, so the
// event loop stays a single blocking reader.
type Source struct {
	epfd int
	wake int // eventfd used by Close to unblock EpollWait

	devices map[int32]*device
	mods    modState
	pending []engine.Event

	closed   atomic.Bool
	released bool // descriptors freed; touched only by the goroutine running WaitEvent
	epEvents [16]unix.EpollEvent
	readBuf  [64 * eventSize]byte
}

// Open scans /dev/input/event* and opens every device that reports keys or
// relative motion. Devices whose name contains exclude are skipped — that is
// how our own virtual uinput device is kept out of the stream.
func Open(exclude string) (*Source, error) {
	s := &Source{
		epfd:    -1,
		wake:    -1,
		devices: make(map[int32]*device),
		mods:    newModState(),
	}

	for i := 0; i < maxEventDevices; i++ {
		path := fmt.Sprintf("/dev/input/event%d", i)
		fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
		if err != nil {
			continue
		}

		name, err := deviceName(fd)
		if err != nil {
			log.Warningf("querying name of %s: %s", path, err)
			name = path
		}
		if exclude != "" && strings.Contains(name, exclude) {
			log.Debugf("skipping own synthetic device %s (%s)", name, path)
			unix.Close(fd)
			continue
		}

		types, err := supportedEventTypes(fd)
		if err != nil || types&(1<<evKey|1<<evRel) == 0 {
			unix.Close(fd)
			continue
		}

		log.Debugf("input device %d: %s (%s)", i+1, name, path)
		s.devices[int32(fd)] = &device{fd: fd, id: uint16(i + 1), name: name}
	}

	if len(s.devices) == 0 {
		return nil, ErrNoDevices
	}

	if err := s.initEpoll(); err != nil {
		s.closeAll()
		return nil, err
	}
	return s, nil
}

func (s *Source) initEpoll() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("epoll_create: %w", err)
	}
	s.epfd = epfd

	wake, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("eventfd: %w", err)
	}
	s.wake = wake

	add := func(fd int) error {
		return unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
			Events: unix.EPOLLIN,
			Fd:     int32(fd),
		})
	}
	if err := add(s.wake); err != nil {
		return fmt.Errorf("registering wake fd: %w", err)
	}
	for fd := range s.devices {
		if err := add(int(fd)); err != nil {
			return fmt.Errorf("registering device fd: %w", err)
		}
	}
	return nil
}

// WaitEvent blocks until the next translated input event. It returns
// ErrClosed once Close has been called and all descriptors are released;
// the release itself happens here, on the loop goroutine.
func (s *Source) WaitEvent() (engine.Event, error) {
	for {
		if s.closed.Load() {
			s.closeAll()
			return nil, ErrClosed
		}

		if len(s.pending) > 0 {
			ev := s.pending[0]
			s.pending = s.pending[1:]
			return ev, nil
		}

		n, err := unix.EpollWait(s.epfd, s.epEvents[:], -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			fd := s.epEvents[i].Fd
			if int(fd) == s.wake {
				continue // Close poked us; handled at the top of the loop
			}
			if d, ok := s.devices[fd]; ok {
				s.readDevice(d)
			}
		}
	}
}

// Close asks WaitEvent to shut the source down. Safe to call from another
// goroutine: it only flips a flag and pokes the eventfd, all descriptor
// teardown stays on the loop goroutine.
func (s *Source) Close() {
	if s.closed.Swap(true) {
		return
	}
	one := []byte{1, 0, 0, 0, 0, 0, 0, 0} // eventfd counter increment
	unix.Write(s.wake, one)
}

func (s *Source) closeAll() {
	if s.released {
		return
	}
	s.released = true
	for fd, d := range s.devices {
		unix.Close(d.fd)
		delete(s.devices, fd)
	}
	if s.wake >= 0 {
		unix.Close(s.wake)
	}
	if s.epfd >= 0 {
		unix.Close(s.epfd)
	}
}

func (s *Source) readDevice(d *device) {
	n, err := unix.Read(d.fd, s.readBuf[:])
	if err != nil {
		if err == unix.EAGAIN {
			return
		}
		// Device unplugged; drop it and keep serving the rest.
		log.Warningf("reading %s: %s, dropping device", d.name, err)
		unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, d.fd, nil)
		unix.Close(d.fd)
		delete(s.devices, int32(d.fd))
		return
	}
	for off := 0; off+eventSize <= n; off += eventSize {
		ev := *(*inputEvent)(unsafe.Pointer(&s.readBuf[off]))
		if out, ok := s.decode(d, ev); ok {
			s.pending = append(s.pending, out)
		}
	}
}
