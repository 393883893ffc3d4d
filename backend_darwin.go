//go:build darwin

package waitset

import (
	"math"

	"golang.org/x/sys/unix"
)

// maxCapacity bounds the kevent buffer.
const maxCapacity = 1 << 20

// kqueueBackend implements backend using kqueue. Read and write interest are
// separate filters, each of which may trigger a distinct kevent, which are
// coalesced into a single Event per handle.
type kqueueBackend struct {
	regs   map[Handle]*registration
	seen   map[Handle]int
	events []unix.Kevent_t
	raw    []filterEvent
	kq     int
}

func newBackend(capacity int, regs map[Handle]*registration) (backend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, &ResourceError{Op: `kqueue`, Err: err}
	}
	unix.CloseOnExec(kq)
	return &kqueueBackend{
		regs:   regs,
		seen:   make(map[Handle]int, capacity),
		events: make([]unix.Kevent_t, capacity*2),
		raw:    make([]filterEvent, 0, capacity*2),
		kq:     kq,
	}, nil
}

func (b *kqueueBackend) name() string { return `kqueue` }

func (b *kqueueBackend) maxTimeout() int64 { return math.MaxInt32 }

func (b *kqueueBackend) add(reg *registration) error {
	if err := applyFilterOps(0, reg.interest, b.filterApplier(reg.handle)); err != nil {
		return &RegistrationError{Op: `add`, Handle: reg.handle, Err: err}
	}
	return nil
}

func (b *kqueueBackend) change(reg *registration, interest Ready) error {
	if err := applyFilterOps(reg.interest, interest, b.filterApplier(reg.handle)); err != nil {
		return &RegistrationError{Op: `change`, Handle: reg.handle, Err: err}
	}
	return nil
}

func (b *kqueueBackend) remove(reg *registration) error {
	apply := b.filterApplier(reg.handle)
	var first error
	for _, op := range filterOps(reg.interest, 0) {
		if err := apply(op); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// filterApplier returns a function applying filter ops for handle. Deleting
// a filter that is not registered is not an error.
func (b *kqueueBackend) filterApplier(handle Handle) func(op filterOp) error {
	return func(op filterOp) error {
		filter := int16(unix.EVFILT_READ)
		if op.kind == filterWrite {
			filter = unix.EVFILT_WRITE
		}
		if op.add {
			return b.apply(handle, filter, unix.EV_ADD)
		}
		if err := b.apply(handle, filter, unix.EV_DELETE); err != unix.ENOENT {
			return err
		}
		return nil
	}
}

// apply submits a single change, using EV_RECEIPT to obtain the result
// without draining pending events.
func (b *kqueueBackend) apply(handle Handle, filter int16, flags uint16) error {
	changes := [1]unix.Kevent_t{{
		Ident:  uint64(handle),
		Filter: filter,
		Flags:  flags | unix.EV_RECEIPT,
	}}
	n, err := unix.Kevent(b.kq, changes[:], changes[:], nil)
	if err != nil {
		return err
	}
	if n == 1 && changes[0].Flags&unix.EV_ERROR != 0 && changes[0].Data != 0 {
		return unix.Errno(changes[0].Data)
	}
	return nil
}

func (b *kqueueBackend) poll(timeout int64, out []Event) ([]Event, int, error) {
	var ts *unix.Timespec
	if timeout >= 0 {
		ts = &unix.Timespec{
			Sec:  timeout / 1000,
			Nsec: (timeout % 1000) * 1000000,
		}
	}
	n, err := unix.Kevent(b.kq, nil, b.events, ts)
	if err != nil {
		if err == unix.EINTR {
			return out, 0, errInterrupted
		}
		return out, 0, &WaitError{Op: `kevent`, Err: err}
	}
	raw := b.raw[:0]
	for i := range b.events[:n] {
		ev := &b.events[i]
		fe := filterEvent{
			handle: Handle(ev.Ident),
			failed: ev.Flags&unix.EV_ERROR != 0,
		}
		switch ev.Filter {
		case unix.EVFILT_READ:
			fe.kind = filterRead
		case unix.EVFILT_WRITE:
			fe.kind = filterWrite
		}
		raw = append(raw, fe)
	}
	b.raw = raw
	out, spurious := coalesceFilterEvents(b.regs, b.seen, raw, out)
	return out, spurious, nil
}

func (b *kqueueBackend) close() error {
	return unix.Close(b.kq)
}
