// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package waitset

import (
	"fmt"
	"sync/atomic"
)

// Base must be embedded by every [Waitable] implementation. It holds the
// native handle, and tracks membership of at most one [WaitSet].
//
// Base must not be copied after use. Obtain one using [MakeBase].
type Base struct {
	owner  atomic.Pointer[WaitSet]
	handle Handle
}

// detached is the owner of a Base whose handle has been handed off.
var detached = new(WaitSet)

// MakeBase returns a Base wrapping an already-created native handle. The
// embedding type remains responsible for creating and releasing the handle.
func MakeBase(handle Handle) Base {
	return Base{handle: handle}
}

// Handle returns the native handle. It does not change for the lifetime of
// the waitable, unless [Base.Detach] is called.
func (x *Base) Handle() Handle {
	return x.handle
}

// IsAdded reports whether the waitable is currently registered in a
// [WaitSet].
func (x *Base) IsAdded() bool {
	owner := x.owner.Load()
	return owner != nil && owner != detached
}

// Detach hands off the native handle, leaving the receiver holding
// [InvalidHandle]. It fails with [ErrInvalidOperation] while the waitable
// is registered. Implementations call it from their Close method, before
// releasing the handle, which guards against destroying a registered
// waitable. It may also be used to move a handle to a new waitable.
func (x *Base) Detach() (Handle, error) {
	if !x.owner.CompareAndSwap(nil, detached) {
		if x.owner.Load() == detached {
			return InvalidHandle, fmt.Errorf(`%w: waitable already detached`, ErrInvalidOperation)
		}
		return InvalidHandle, fmt.Errorf(`%w: waitable is added to a wait set`, ErrInvalidOperation)
	}
	handle := x.handle
	x.handle = InvalidHandle
	return handle, nil
}

func (x *Base) waitableBase() *Base { return x }

// claim marks the receiver as owned by ws.
func (x *Base) claim(ws *WaitSet) error {
	if x.owner.CompareAndSwap(nil, ws) {
		return nil
	}
	if x.owner.Load() == detached {
		return fmt.Errorf(`%w: waitable has been detached`, ErrInvalidArgument)
	}
	return ErrAlreadyAdded
}

func (x *Base) release(ws *WaitSet) bool {
	return x.owner.CompareAndSwap(ws, nil)
}

func (x *Base) ownedBy(ws *WaitSet) bool {
	return x.owner.Load() == ws
}
