//go:build windows

package msgqueue

import (
	"fmt"

	waitset "github.com/joeycumines/go-waitset"
	"golang.org/x/sys/windows"
)

// signal is a manual-reset event, which stays signaled until reset.
type signal struct{}

func newSignal() (waitset.Handle, signal, error) {
	h, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return waitset.InvalidHandle, signal{}, &waitset.ResourceError{Op: `CreateEvent`, Err: err}
	}
	return h, signal{}, nil
}

func (signal) raise(h waitset.Handle) error { return windows.SetEvent(h) }

func (signal) clear(h waitset.Handle) error { return windows.ResetEvent(h) }

func (signal) close(h waitset.Handle) error { return windows.CloseHandle(h) }

// Arm accepts only read interest, or zero. A queue is always writable, and
// never in an error state.
func (x *Queue[T]) Arm(interest waitset.Ready) error {
	if interest&^waitset.ReadyRead != 0 {
		return fmt.Errorf(`%w: msgqueue: unsupported interest %v`, waitset.ErrInvalidArgument, interest)
	}
	x.mu.Lock()
	x.armed = interest
	x.mu.Unlock()
	return nil
}

// Readiness reports read readiness while the queue is non-empty and armed.
// The event remains signaled until the last message is popped.
func (x *Queue[T]) Readiness() waitset.Ready {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed || x.items.Length() == 0 {
		return 0
	}
	return x.armed & waitset.ReadyRead
}
