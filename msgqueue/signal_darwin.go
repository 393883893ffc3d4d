//go:build darwin

package msgqueue

import (
	waitset "github.com/joeycumines/go-waitset"
	"golang.org/x/sys/unix"
)

// signal is a self-pipe. The read end is the waitable handle, which is
// readable while it holds a byte.
type signal struct {
	w int
}

func newSignal() (waitset.Handle, signal, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return waitset.InvalidHandle, signal{}, &waitset.ResourceError{Op: `pipe`, Err: err}
	}
	cleanup := func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	for _, fd := range fds {
		if err := unix.SetNonblock(fd, true); err != nil {
			cleanup()
			return waitset.InvalidHandle, signal{}, &waitset.ResourceError{Op: `pipe`, Err: err}
		}
	}
	return fds[0], signal{w: fds[1]}, nil
}

func (x signal) raise(waitset.Handle) error {
	_, err := unix.Write(x.w, []byte{1})
	return err
}

func (signal) clear(r waitset.Handle) error {
	var buf [1]byte
	_, err := unix.Read(r, buf[:])
	return err
}

func (x signal) close(r waitset.Handle) error {
	err := unix.Close(r)
	if e := unix.Close(x.w); err == nil {
		err = e
	}
	return err
}
