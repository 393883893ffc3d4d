// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package waitset

// backend models the native polling resource. Implementations are selected
// at compile time, see backend_linux.go, backend_darwin.go and
// backend_windows.go. The wait algorithm itself (interruption retries,
// timeout chunking) is implemented once, by WaitSet.
type backend interface {
	// name identifies the mechanism, for logging.
	name() string

	// maxTimeout is the largest finite timeout, in milliseconds, accepted by
	// a single call to poll.
	maxTimeout() int64

	add(reg *registration) error
	change(reg *registration, interest Ready) error

	// remove deregisters reg. Errors are logged and otherwise ignored.
	remove(reg *registration) error

	// poll performs a single native wait, appending triggered sources to out
	// (which has capacity for every registration). A negative timeout blocks
	// indefinitely. Interruption by a signal must be reported as
	// errInterrupted. The number of discarded notifications (e.g. signaled
	// but not ready) is returned as spurious.
	poll(timeout int64, out []Event) (events []Event, spurious int, err error)

	close() error
}

// registration is the wait set's record of a single member.
type registration struct {
	waitable Waitable
	token    any
	handle   Handle
	interest Ready
}

// filterKind classifies a per-filter notification, e.g. a kevent.
type filterKind uint8

const (
	filterOther filterKind = iota
	filterRead
	filterWrite
)

// filterOp adds or deletes a single per-filter registration, e.g. a kevent
// filter.
type filterOp struct {
	kind filterKind
	add  bool
}

// filterOps returns the ops that transition the filters registered for old
// to those required by interest. Filters in both are re-added, which
// updates them in place.
func filterOps(old, interest Ready) []filterOp {
	ops := make([]filterOp, 0, 2)
	for _, v := range [...]struct {
		flag Ready
		kind filterKind
	}{
		{ReadyRead, filterRead},
		{ReadyWrite, filterWrite},
	} {
		switch {
		case interest&v.flag != 0:
			ops = append(ops, filterOp{kind: v.kind, add: true})
		case old&v.flag != 0:
			ops = append(ops, filterOp{kind: v.kind})
		}
	}
	return ops
}

// applyFilterOps transitions the filters registered for old to interest,
// using apply. If an op fails, the ops already applied are reverted, in
// reverse order, leaving the filters for old in effect, and the error is
// returned. Reverting is best effort.
func applyFilterOps(old, interest Ready, apply func(op filterOp) error) error {
	ops := filterOps(old, interest)
	for i, op := range ops {
		err := apply(op)
		if err == nil {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			undo := ops[j]
			if undo.add && old&filterFlag(undo.kind) != 0 {
				// updated in place, still registered
				continue
			}
			_ = apply(filterOp{kind: undo.kind, add: !undo.add})
		}
		return err
	}
	return nil
}

func filterFlag(kind filterKind) Ready {
	switch kind {
	case filterRead:
		return ReadyRead
	case filterWrite:
		return ReadyWrite
	default:
		return 0
	}
}

// filterEvent is a backend neutral per-filter notification. Multiple may
// refer to the same handle, within a single poll.
type filterEvent struct {
	handle Handle
	kind   filterKind
	failed bool
}

// coalesceFilterEvents merges notifications for the same handle into a
// single Event, with the union of flags, in order of first appearance.
// Unrecognised filters are dropped, as are notifications for handles that
// are not registered. The seen map is scratch space, and is cleared.
func coalesceFilterEvents(regs map[Handle]*registration, seen map[Handle]int, raw []filterEvent, out []Event) ([]Event, int) {
	clear(seen)
	var spurious int
	for _, ev := range raw {
		var ready Ready
		switch ev.kind {
		case filterRead:
			ready = ReadyRead
		case filterWrite:
			ready = ReadyWrite
		}
		if ev.failed {
			ready |= ReadyError
		}
		if ready == 0 {
			spurious++
			continue
		}
		if i, ok := seen[ev.handle]; ok {
			out[i].Ready |= ready
			continue
		}
		reg := regs[ev.handle]
		if reg == nil {
			spurious++
			continue
		}
		seen[ev.handle] = len(out)
		out = append(out, Event{Token: reg.token, Ready: ready})
	}
	return out, spurious
}

// armedRegistrations appends the entries of regs that have interest to dst,
// preserving order. An object without interest may stay signaled, e.g. a
// manual-reset event, so waiting on it would never block.
func armedRegistrations(dst, regs []*registration) []*registration {
	for _, reg := range regs {
		if reg.interest != 0 {
			dst = append(dst, reg)
		}
	}
	return dst
}

// scanSignaled implements the fallback poll for mechanisms that report only
// a single signaled object per wait (WaitForMultipleObjects). The entry at
// index hit is known to be signaled, every other entry is polled, and each
// signaled entry is asked for its readiness. Entries that are signaled but
// not ready are counted as spurious.
func scanSignaled(
	regs []*registration,
	hit int,
	signaled func(i int) (bool, error),
	readiness func(reg *registration) Ready,
	out []Event,
) ([]Event, int, error) {
	var spurious int
	for i, reg := range regs {
		if i != hit {
			ok, err := signaled(i)
			if err != nil {
				return out, spurious, err
			}
			if !ok {
				continue
			}
		}
		ready := readiness(reg)
		if ready == 0 {
			spurious++
			continue
		}
		out = append(out, Event{Token: reg.token, Ready: ready})
	}
	return out, spurious, nil
}
