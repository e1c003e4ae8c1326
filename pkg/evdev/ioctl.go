package evdev

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/unix"
)

// EVIOCGNAME and EVIOCGBIT from linux/input.h, built with the generic
// _IOC(read, 'E', nr, size) layout.
func evioc(nr, size int) uint32 {
	const (
		iocRead   = 2
		dirShift  = 30
		sizeShift = 16
		typeShift = 8
	)
	return iocRead<<dirShift | uint32(size)<<sizeShift | 'E'<<typeShift | uint32(nr)
}

func ioctl(fd int, cmd uint32, ptr unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(cmd), uintptr(ptr)); errno != 0 {
		return errno
	}
	return nil
}

// deviceName returns the device's EVIOCGNAME string.
func deviceName(fd int) (string, error) {
	var buf [256]byte
	if err := ioctl(fd, evioc(0x06, len(buf)), unsafe.Pointer(&buf[0])); err != nil {
		return "", err
	}
	if i := bytes.IndexByte(buf[:], 0); i >= 0 {
		return string(buf[:i]), nil
	}
	return string(buf[:]), nil
}

// supportedEventTypes returns the EVIOCGBIT(0) bitmask of event types the
// device can generate (EV_KEY, EV_REL, ...).
func supportedEventTypes(fd int) (uint32, error) {
	var mask uint32
	if err := ioctl(fd, evioc(0x20, int(unsafe.Sizeof(mask))), unsafe.Pointer(&mask)); err != nil {
		return 0, err
	}
	return mask, nil
}
