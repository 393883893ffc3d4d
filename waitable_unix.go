//go:build linux || darwin

package waitset

// Handle is a file descriptor.
type Handle = int

// InvalidHandle is never a valid file descriptor.
const InvalidHandle Handle = -1

// Waitable is an event source that may be registered in a [WaitSet].
//
// Implementations must embed [Base]. The kernel multiplexer tracks readiness
// on this platform, so no further methods are required.
type Waitable interface {
	// Handle returns the native handle, see [Base.Handle].
	Handle() Handle

	waitableBase() *Base
}
