// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package waitset

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// WaitSet is a level-triggered readiness multiplexer. Register [Waitable]
// sources using [WaitSet.Add], then block until at least one is ready using
// [WaitSet.Wait] or [WaitSet.WaitTimeout].
//
// A WaitSet is owned by a single goroutine: its methods are not safe for
// concurrent use, with the exception of [WaitSet.ID] and [WaitSet.Stats].
type WaitSet struct {
	backend  backend
	regs     map[Handle]*registration
	logger   *logiface.Logger[logiface.Event]
	limiter  *catrate.Limiter
	events   []Event
	stats    stats
	capacity int
	id       uuid.UUID
	closed   bool
}

// for testing
var timeNow = time.Now

// New creates a WaitSet that may hold at most capacity waitables. The
// capacity must be positive, and may not exceed the maximum supported by
// the platform (64, on Windows).
func New(capacity int, opts ...Option) (*WaitSet, error) {
	if capacity <= 0 || capacity > maxCapacity {
		return nil, fmt.Errorf(`%w: capacity %d out of range [1, %d]`, ErrInvalidArgument, capacity, maxCapacity)
	}
	x, err := newWaitSet(capacity, opts)
	if err != nil {
		return nil, err
	}
	if x.backend, err = newBackend(capacity, x.regs); err != nil {
		x.logger.Err().
			Err(err).
			Log(`failed to create wait set`)
		return nil, err
	}
	x.logger.Debug().
		Str(`backend`, x.backend.name()).
		Int(`capacity`, capacity).
		Log(`created wait set`)
	return x, nil
}

// newWaitSet initializes everything except the backend.
func newWaitSet(capacity int, opts []Option) (*WaitSet, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}
	limiter, err := newLimiter(cfg.logRateLimits)
	if err != nil {
		return nil, err
	}
	x := &WaitSet{
		regs:     make(map[Handle]*registration, capacity),
		limiter:  limiter,
		events:   make([]Event, 0, capacity),
		capacity: capacity,
		id:       uuid.New(),
	}
	x.logger = newLogger(cfg.logger, x.id)
	return x, nil
}

// ID returns the random identifier of the receiver, used to correlate logs
// and metrics. It is safe to call from any goroutine.
func (x *WaitSet) ID() uuid.UUID {
	return x.id
}

// Capacity returns the maximum number of waitables the receiver may hold.
func (x *WaitSet) Capacity() int {
	return x.capacity
}

// Size returns the number of registered waitables.
func (x *WaitSet) Size() int {
	return len(x.regs)
}

// Stats returns a snapshot of the receiver's counters. It is safe to call
// from any goroutine.
func (x *WaitSet) Stats() Stats {
	s := x.stats.snapshot()
	s.Capacity = x.capacity
	return s
}

// Add registers w, with the given interest, and an opaque token which will
// identify w in the events returned by Wait. Error readiness need not be
// requested.
//
// Fails with [ErrAlreadyAdded] if w is registered with any wait set, or
// with [ErrCapacityExceeded] if the receiver is full. If the OS rejects the
// registration, a [*RegistrationError] is returned, and neither the
// receiver nor w are modified.
func (x *WaitSet) Add(w Waitable, interest Ready, token any) error {
	if x.closed {
		return ErrClosed
	}
	if w == nil {
		return fmt.Errorf(`%w: nil waitable`, ErrInvalidArgument)
	}
	if interest&^readyMask != 0 {
		return fmt.Errorf(`%w: interest %v`, ErrInvalidArgument, interest)
	}
	base := w.waitableBase()
	if base.IsAdded() {
		return ErrAlreadyAdded
	}
	if len(x.regs) >= x.capacity {
		return ErrCapacityExceeded
	}
	handle := w.Handle()
	if handle == InvalidHandle {
		return fmt.Errorf(`%w: invalid handle`, ErrInvalidArgument)
	}
	if _, ok := x.regs[handle]; ok {
		return fmt.Errorf(`%w: handle %v is already registered`, ErrInvalidArgument, handle)
	}

	if err := base.claim(x); err != nil {
		return err
	}

	reg := &registration{
		waitable: w,
		token:    token,
		handle:   handle,
		interest: interest,
	}
	if err := x.backend.add(reg); err != nil {
		base.release(x)
		x.logger.Debug().
			Any(`handle`, handle).
			Err(err).
			Log(`add rejected`)
		return err
	}

	x.regs[handle] = reg
	x.stats.size.Store(int64(len(x.regs)))

	x.logger.Debug().
		Any(`handle`, handle).
		Stringer(`interest`, interest).
		Log(`added waitable`)

	return nil
}

// Change updates the interest and token of w, which must be registered with
// the receiver, or [ErrNotAdded] is returned. On failure, the previous
// registration remains in effect.
//
// An interest of zero keeps w registered without waiting on it. On Windows,
// a wait with no waitables that have interest sleeps for the timeout.
func (x *WaitSet) Change(w Waitable, interest Ready, token any) error {
	if x.closed {
		return ErrClosed
	}
	if interest&^readyMask != 0 {
		return fmt.Errorf(`%w: interest %v`, ErrInvalidArgument, interest)
	}
	reg := x.lookup(w)
	if reg == nil {
		return ErrNotAdded
	}
	if err := x.backend.change(reg, interest); err != nil {
		return err
	}
	reg.interest = interest
	reg.token = token

	x.logger.Debug().
		Any(`handle`, reg.handle).
		Stringer(`interest`, interest).
		Log(`changed waitable`)

	return nil
}

// Remove deregisters w, after which it may be added to any wait set. Remove
// panics with [ErrNotAdded] if w is not registered with the receiver. It
// never fails otherwise: errors from the OS are logged, then discarded.
func (x *WaitSet) Remove(w Waitable) {
	reg := x.lookup(w)
	if reg == nil {
		panic(ErrNotAdded)
	}

	if err := x.backend.remove(reg); err != nil {
		x.warning(logCategoryRemove).
			Any(`handle`, reg.handle).
			Err(err).
			Log(`failed to deregister waitable`)
	}

	delete(x.regs, reg.handle)
	x.stats.size.Store(int64(len(x.regs)))
	reg.waitable.waitableBase().release(x)

	x.logger.Debug().
		Any(`handle`, reg.handle).
		Log(`removed waitable`)
}

// Close releases the native resources held by the receiver. The receiver
// must be empty, or [ErrNotEmpty] is returned, and the receiver remains
// usable. Subsequent calls are a no-op.
func (x *WaitSet) Close() error {
	if x.closed {
		return nil
	}
	if len(x.regs) != 0 {
		return ErrNotEmpty
	}
	x.closed = true
	if err := x.backend.close(); err != nil {
		x.warning(logCategoryClose).
			Err(err).
			Log(`failed to close wait set`)
		return fmt.Errorf(`waitset: close: %w`, err)
	}
	x.logger.Debug().
		Log(`closed wait set`)
	return nil
}

// Wait blocks until at least one registered waitable is ready, returning
// one event per ready waitable. The returned slice is only valid until the
// next call to Wait or WaitTimeout.
//
// The receiver must not be empty ([ErrEmpty]). Interruption by a signal is
// retried, and never returned.
func (x *WaitSet) Wait() ([]Event, error) {
	return x.wait(-1)
}

// WaitTimeout is like [WaitSet.Wait], but gives up after at least timeoutMs
// milliseconds have elapsed, returning an empty slice. A timeout of zero
// polls without blocking. The full range of timeoutMs is supported,
// regardless of the native limit.
func (x *WaitSet) WaitTimeout(timeoutMs uint32) ([]Event, error) {
	return x.wait(int64(timeoutMs))
}

func (x *WaitSet) wait(timeout int64) ([]Event, error) {
	if x.closed {
		return nil, ErrClosed
	}
	if len(x.regs) == 0 {
		return nil, ErrEmpty
	}

	x.stats.waits.Add(1)

	var deadline time.Time
	if timeout > 0 {
		deadline = timeNow().Add(time.Duration(timeout) * time.Millisecond)
	}

	maxTimeout := x.backend.maxTimeout()
	remaining := timeout

	for {
		native := remaining
		if native > maxTimeout {
			native = maxTimeout
		}

		events, spurious, err := x.backend.poll(native, x.events[:0])

		if spurious > 0 {
			x.stats.spurious.Add(uint64(spurious))
			x.warning(logCategorySpurious).
				Int(`count`, spurious).
				Log(`discarded spurious notifications`)
		}

		interrupted := err == errInterrupted

		switch {
		case interrupted:
			x.stats.interrupts.Add(1)
			x.logger.Trace().
				Int64(`remaining_ms`, remaining).
				Log(`wait interrupted`)
		case err != nil:
			x.logger.Err().
				Str(`backend`, x.backend.name()).
				Err(err).
				Log(`wait failed`)
			return nil, err
		case len(events) != 0:
			x.stats.triggered.Add(uint64(len(events)))
			return events, nil
		}

		switch {
		case timeout < 0:
		case timeout == 0:
			if !interrupted {
				x.stats.timeouts.Add(1)
				return x.events[:0], nil
			}
			continue
		default:
			remaining = remainingMillis(deadline)
			if remaining == 0 {
				x.stats.timeouts.Add(1)
				return x.events[:0], nil
			}
		}

		if !interrupted {
			x.stats.chunks.Add(1)
			x.logger.Trace().
				Int64(`remaining_ms`, remaining).
				Log(`wait continued`)
		}
	}
}

// lookup returns the registration of w, if it is registered with the
// receiver.
func (x *WaitSet) lookup(w Waitable) *registration {
	if w == nil {
		return nil
	}
	base := w.waitableBase()
	if !base.ownedBy(x) {
		return nil
	}
	reg := x.regs[w.Handle()]
	if reg == nil || reg.waitable.waitableBase() != base {
		return nil
	}
	return reg
}

// remainingMillis returns the time until deadline, rounded up to whole
// milliseconds, or 0 if it has passed.
func remainingMillis(deadline time.Time) int64 {
	d := deadline.Sub(timeNow())
	if d <= 0 {
		return 0
	}
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}
