// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package waitset

import (
	"sync/atomic"
)

// Stats is a point-in-time snapshot of a [WaitSet]'s counters.
type Stats struct {
	// Waits is the number of calls to Wait or WaitTimeout that entered the
	// blocked state.
	Waits uint64
	// Triggered is the total number of events returned.
	Triggered uint64
	// Timeouts is the number of waits that returned no events.
	Timeouts uint64
	// Interrupts is the number of native waits retried after a signal.
	Interrupts uint64
	// Chunks is the number of additional native waits, performed because
	// the timeout exceeded the native maximum, or after a spurious wakeup.
	Chunks uint64
	// Spurious is the number of discarded notifications.
	Spurious uint64
	Size     int
	Capacity int
}

type stats struct {
	waits      atomic.Uint64
	triggered  atomic.Uint64
	timeouts   atomic.Uint64
	interrupts atomic.Uint64
	chunks     atomic.Uint64
	spurious   atomic.Uint64
	size       atomic.Int64
}

func (x *stats) snapshot() Stats {
	return Stats{
		Waits:      x.waits.Load(),
		Triggered:  x.triggered.Load(),
		Timeouts:   x.timeouts.Load(),
		Interrupts: x.interrupts.Load(),
		Chunks:     x.chunks.Load(),
		Spurious:   x.spurious.Load(),
		Size:       int(x.size.Load()),
	}
}
