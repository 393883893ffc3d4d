//go:build windows

package waitset

import (
	"fmt"
	"slices"
	"time"

	"golang.org/x/sys/windows"
)

// maxCapacity is MAXIMUM_WAIT_OBJECTS.
const maxCapacity = 64

// Return values of the WaitFor* functions.
const (
	waitObject0   = 0x00000000
	waitAbandoned = 0x00000080
	waitTimeout   = 0x00000102
	waitFailed    = 0xFFFFFFFF
)

// waitObjectsBackend implements backend using WaitForMultipleObjects. It
// tracks registrations in insertion order, which is also the scan order.
// Readiness is determined by the waitable, since OS objects have a single
// signaled state. Only registrations with interest are waited on.
type waitObjectsBackend struct {
	regs []*registration
	// armed and handles are rebuilt by each poll
	armed   []*registration
	handles []windows.Handle
}

func newBackend(capacity int, _ map[Handle]*registration) (backend, error) {
	return &waitObjectsBackend{
		regs:    make([]*registration, 0, capacity),
		armed:   make([]*registration, 0, capacity),
		handles: make([]windows.Handle, 0, capacity),
	}, nil
}

func (b *waitObjectsBackend) name() string { return `WaitForMultipleObjects` }

// maxTimeout is the largest value that is not INFINITE.
func (b *waitObjectsBackend) maxTimeout() int64 { return windows.INFINITE - 1 }

func (b *waitObjectsBackend) add(reg *registration) error {
	if err := reg.waitable.Arm(reg.interest); err != nil {
		return &RegistrationError{Op: `add`, Handle: reg.handle, Err: err}
	}
	b.regs = append(b.regs, reg)
	return nil
}

func (b *waitObjectsBackend) change(reg *registration, interest Ready) error {
	if err := reg.waitable.Arm(interest); err != nil {
		return &RegistrationError{Op: `change`, Handle: reg.handle, Err: err}
	}
	return nil
}

func (b *waitObjectsBackend) remove(reg *registration) error {
	for i, v := range b.regs {
		if v == reg {
			b.regs = slices.Delete(b.regs, i, i+1)
			break
		}
	}
	return reg.waitable.Arm(0)
}

func (b *waitObjectsBackend) poll(timeout int64, out []Event) ([]Event, int, error) {
	b.armed = armedRegistrations(b.armed[:0], b.regs)
	b.handles = b.handles[:0]
	for _, reg := range b.armed {
		b.handles = append(b.handles, reg.handle)
	}
	if len(b.handles) == 0 {
		// nothing can become ready
		if timeout < 0 {
			timeout = b.maxTimeout()
		}
		time.Sleep(time.Duration(timeout) * time.Millisecond)
		return out, 0, nil
	}

	ms := uint32(windows.INFINITE)
	if timeout >= 0 {
		ms = uint32(timeout)
	}
	n := uint32(len(b.handles))
	r, err := windows.WaitForMultipleObjects(b.handles, false, ms)
	switch {
	case r == waitFailed:
		return out, 0, &WaitError{Op: `WaitForMultipleObjects`, Err: err}
	case r == waitTimeout:
		return out, 0, nil
	case r >= waitAbandoned && r < waitAbandoned+n:
		return out, 0, &WaitError{Op: `WaitForMultipleObjects`, Err: fmt.Errorf(`abandoned wait object at index %d`, r-waitAbandoned)}
	case r >= n:
		return out, 0, &WaitError{Op: `WaitForMultipleObjects`, Err: fmt.Errorf(`unexpected result %#x`, r)}
	}
	out, spurious, err := scanSignaled(b.armed, int(r-waitObject0), b.signaled, readiness, out)
	if err != nil {
		return out, spurious, &WaitError{Op: `WaitForSingleObject`, Err: err}
	}
	return out, spurious, nil
}

// signaled polls the object at index i, consuming the signal if it is an
// auto-reset object.
func (b *waitObjectsBackend) signaled(i int) (bool, error) {
	r, err := windows.WaitForSingleObject(b.handles[i], 0)
	switch r {
	case waitObject0:
		return true, nil
	case waitTimeout:
		return false, nil
	case waitFailed:
		return false, err
	default:
		return false, fmt.Errorf(`unexpected result %#x`, r)
	}
}

func (b *waitObjectsBackend) close() error { return nil }

func readiness(reg *registration) Ready {
	return reg.waitable.Readiness() & readyMask
}
