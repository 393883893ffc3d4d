// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package waitset

import (
	"bytes"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/stretchr/testify/require"
)

// fakeWaitable satisfies Waitable on every platform.
type fakeWaitable struct {
	Base
	armErr error
	armed  Ready
	ready  Ready
}

func newFakeWaitable(handle int) *fakeWaitable {
	return &fakeWaitable{Base: MakeBase(Handle(handle))}
}

func (x *fakeWaitable) Arm(interest Ready) error {
	if x.armErr != nil {
		return x.armErr
	}
	x.armed = interest
	return nil
}

func (x *fakeWaitable) Readiness() Ready {
	return x.ready
}

type fakeReady struct {
	handle Handle
	ready  Ready
}

// fakePoll is the scripted result of a single backend poll.
type fakePoll struct {
	err      error
	ready    []fakeReady
	spurious int
	advance  time.Duration
}

// fakeBackend replays scripted polls. Once the script is exhausted, every
// finite poll times out, advancing the clock by the full timeout.
type fakeBackend struct {
	clock     *fakeClock
	regs      map[Handle]*registration
	addErr    error
	changeErr error
	removeErr error
	closeErr  error
	script    []fakePoll
	timeouts  []int64
	added     []Handle
	removed   []Handle
	max       int64
	closed    int
}

var errUnscriptedWait = errors.New(`unscripted infinite wait`)

func (b *fakeBackend) name() string { return `fake` }

func (b *fakeBackend) maxTimeout() int64 { return b.max }

func (b *fakeBackend) add(reg *registration) error {
	if b.addErr != nil {
		return &RegistrationError{Op: `add`, Handle: reg.handle, Err: b.addErr}
	}
	b.added = append(b.added, reg.handle)
	return nil
}

func (b *fakeBackend) change(reg *registration, interest Ready) error {
	if b.changeErr != nil {
		return &RegistrationError{Op: `change`, Handle: reg.handle, Err: b.changeErr}
	}
	return nil
}

func (b *fakeBackend) remove(reg *registration) error {
	b.removed = append(b.removed, reg.handle)
	return b.removeErr
}

func (b *fakeBackend) poll(timeout int64, out []Event) ([]Event, int, error) {
	b.timeouts = append(b.timeouts, timeout)
	if len(b.script) == 0 {
		if timeout < 0 {
			return out, 0, errUnscriptedWait
		}
		b.clock.advance(time.Duration(timeout) * time.Millisecond)
		return out, 0, nil
	}
	p := b.script[0]
	b.script = b.script[1:]
	b.clock.advance(p.advance)
	for _, v := range p.ready {
		out = append(out, Event{Token: b.regs[v.handle].token, Ready: v.ready})
	}
	return out, p.spurious, p.err
}

func (b *fakeBackend) close() error {
	b.closed++
	return b.closeErr
}

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func (x *fakeClock) Now() time.Time {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.now
}

func (x *fakeClock) advance(d time.Duration) {
	x.mu.Lock()
	x.now = x.now.Add(d)
	x.mu.Unlock()
}

// useFakeClock replaces timeNow, tests using it must not be parallel.
func useFakeClock(t *testing.T) *fakeClock {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	old := timeNow
	timeNow = clock.Now
	t.Cleanup(func() { timeNow = old })
	return clock
}

// newFakeWaitSet returns a WaitSet using a fakeBackend, and a fake clock.
func newFakeWaitSet(t *testing.T, capacity int, opts ...Option) (*WaitSet, *fakeBackend) {
	t.Helper()
	x, err := newWaitSet(capacity, opts)
	require.NoError(t, err)
	b := &fakeBackend{
		clock: useFakeClock(t),
		regs:  x.regs,
		max:   math.MaxInt32,
	}
	x.backend = b
	return x, b
}

// newBufferLogger returns a logger writing JSON lines to the returned
// buffer, at all levels.
func newBufferLogger() (*logiface.Logger[logiface.Event], *bytes.Buffer) {
	var buf bytes.Buffer
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(
			stumpy.WithWriter(&buf),
			stumpy.WithTimeField(``),
		),
		stumpy.L.WithLevel(logiface.LevelTrace),
	)
	return logger.Logger(), &buf
}
