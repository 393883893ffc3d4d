//go:build windows

package waitset

import (
	"golang.org/x/sys/windows"
)

// Handle is a kernel object handle, e.g. an event.
type Handle = windows.Handle

// InvalidHandle is never a valid kernel object handle.
const InvalidHandle Handle = windows.InvalidHandle

// Waitable is an event source that may be registered in a [WaitSet].
//
// Implementations must embed [Base]. Windows kernel objects carry no separate
// interest or readiness channel, so the waitable itself must track them.
type Waitable interface {
	// Handle returns the native handle, see [Base.Handle].
	Handle() Handle

	// Arm (re)configures the object to signal for the given interest. Arm(0)
	// disarms it, and must not fail. A disarmed object is not waited on, so
	// it may remain signaled. An interest the waitable cannot support must
	// be rejected with an error matching [ErrInvalidArgument].
	Arm(interest Ready) error

	// Readiness reads and clears the triggered state. It is called after the
	// handle was observed signaled. Returning zero marks the signal as
	// spurious.
	Readiness() Ready

	waitableBase() *Base
}
