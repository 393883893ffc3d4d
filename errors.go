// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package waitset

import (
	"errors"
	"fmt"
)

// Error categories. Use [errors.Is] to classify an error returned by this
// package.
var (
	// ErrLogic indicates the caller violated a precondition. It is always a
	// programming error.
	ErrLogic = errors.New(`waitset: logic error`)

	// ErrInvalidArgument indicates a malformed argument, e.g. an oversized
	// capacity, or an interest set a waitable does not support.
	ErrInvalidArgument = errors.New(`waitset: invalid argument`)

	// ErrInvalidOperation indicates the operation is not permitted in the
	// current state, e.g. detaching a registered waitable.
	ErrInvalidOperation = errors.New(`waitset: invalid operation`)

	// ErrCapacityExceeded is returned by [WaitSet.Add] if the set is full.
	ErrCapacityExceeded = errors.New(`waitset: capacity exceeded`)

	// ErrClosed is returned by operations on a closed [WaitSet].
	ErrClosed = errors.New(`waitset: closed`)

	// ErrOSResource matches any [ResourceError].
	ErrOSResource = errors.New(`waitset: os resource error`)

	// ErrOSWait matches any [WaitError].
	ErrOSWait = errors.New(`waitset: os wait error`)
)

// Logic errors, each of which matches [ErrLogic].
var (
	ErrAlreadyAdded = &LogicError{Message: `waitset: waitable already added to a wait set`}
	ErrNotAdded     = &LogicError{Message: `waitset: waitable not added to this wait set`}
	ErrEmpty        = &LogicError{Message: `waitset: wait on empty wait set`}
	ErrNotEmpty     = &LogicError{Message: `waitset: close of non-empty wait set`}
)

// errInterrupted is returned by backends when the native wait was interrupted
// by a signal. It never escapes the package.
var errInterrupted = errors.New(`waitset: interrupted`)

// LogicError models a precondition violated by the caller.
type LogicError struct {
	Message string
}

// Error implements the error interface.
func (e *LogicError) Error() string {
	if e.Message == "" {
		return ErrLogic.Error()
	}
	return e.Message
}

// Is matches [ErrLogic].
func (e *LogicError) Is(target error) bool {
	return target == ErrLogic
}

// ResourceError indicates the creation of a native resource failed, e.g.
// epoll_create1, kqueue, eventfd or CreateEvent.
type ResourceError struct {
	Err error
	Op  string
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	return fmt.Sprintf(`waitset: %s failed: %v`, e.Op, e.Err)
}

// Unwrap returns the underlying cause, typically a syscall errno.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Is matches [ErrOSResource].
func (e *ResourceError) Is(target error) bool {
	return target == ErrOSResource
}

// WaitError indicates the native wait call failed, for a reason other than
// signal interruption.
type WaitError struct {
	Err error
	Op  string
}

// Error implements the error interface.
func (e *WaitError) Error() string {
	return fmt.Sprintf(`waitset: %s failed: %v`, e.Op, e.Err)
}

// Unwrap returns the underlying cause, typically a syscall errno.
func (e *WaitError) Unwrap() error {
	return e.Err
}

// Is matches [ErrOSWait].
func (e *WaitError) Is(target error) bool {
	return target == ErrOSWait
}

// RegistrationError indicates the OS rejected an add or change. The wait set
// is unaffected.
type RegistrationError struct {
	Err    error
	Op     string
	Handle Handle
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf(`waitset: %s of handle %v failed: %v`, e.Op, e.Handle, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}
