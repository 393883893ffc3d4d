// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package msgqueue

import (
	"fmt"
	"sync"

	"github.com/eapache/queue"
	waitset "github.com/joeycumines/go-waitset"
)

// Queue is an unbounded, thread-safe FIFO of messages, which is also a
// [waitset.Waitable]. It is readable (ready for [waitset.ReadyRead]) while
// it is non-empty. Any number of goroutines may Push, while the goroutine
// owning the wait set consumes messages using Pop.
//
// Only read interest is meaningful. On platforms where the waitable
// participates in arming, other interests are rejected.
type Queue[T any] struct {
	waitset.Base
	items  *queue.Queue
	signal signal
	mu     sync.Mutex
	armed  waitset.Ready // windows only
	closed bool
}

// New creates an empty Queue, allocating the native signal primitive, which
// must be released using [Queue.Close].
func New[T any]() (*Queue[T], error) {
	handle, sig, err := newSignal()
	if err != nil {
		return nil, err
	}
	return &Queue[T]{
		Base:   waitset.MakeBase(handle),
		items:  queue.New(),
		signal: sig,
	}, nil
}

// Push appends a message. The queue becomes readable when it transitions
// from empty to non-empty. Fails with [waitset.ErrClosed] after Close.
func (x *Queue[T]) Push(v T) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return waitset.ErrClosed
	}

	x.items.Add(v)

	if x.items.Length() == 1 {
		if err := x.signal.raise(x.Handle()); err != nil {
			x.items.Remove()
			return fmt.Errorf(`msgqueue: push: %w`, err)
		}
	}

	return nil
}

// Pop removes and returns the oldest message, without blocking. The boolean
// is false if the queue is empty (or closed). Removing the last message
// clears the readable state.
func (x *Queue[T]) Pop() (v T, ok bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed || x.items.Length() == 0 {
		return v, false
	}

	if x.items.Length() == 1 {
		if err := x.signal.clear(x.Handle()); err != nil {
			// the signal was raised by the transition to non-empty
			panic(fmt.Errorf(`msgqueue: failed to clear signal: %w`, err))
		}
	}

	v, _ = x.items.Remove().(T)
	return v, true
}

// Len returns the number of queued messages.
func (x *Queue[T]) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return 0
	}
	return x.items.Length()
}

// Close releases the native signal primitive, and discards any queued
// messages. It fails with [waitset.ErrInvalidOperation] while the queue is
// registered with a wait set. Subsequent calls are a no-op.
func (x *Queue[T]) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return nil
	}

	handle, err := x.Detach()
	if err != nil {
		return err
	}

	x.closed = true
	x.items = nil

	return x.signal.close(handle)
}
