//go:build linux

package msgqueue

import (
	"encoding/binary"

	waitset "github.com/joeycumines/go-waitset"
	"golang.org/x/sys/unix"
)

// signal is an eventfd, which is readable while its counter is non-zero.
type signal struct{}

func newSignal() (waitset.Handle, signal, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return waitset.InvalidHandle, signal{}, &waitset.ResourceError{Op: `eventfd`, Err: err}
	}
	return fd, signal{}, nil
}

func (signal) raise(fd waitset.Handle) error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(fd, buf[:])
	return err
}

// clear resets the counter to zero.
func (signal) clear(fd waitset.Handle) error {
	var buf [8]byte
	_, err := unix.Read(fd, buf[:])
	return err
}

func (signal) close(fd waitset.Handle) error {
	return unix.Close(fd)
}
