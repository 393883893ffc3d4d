// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package waitset

import (
	"strings"
)

// Ready is a set of readiness flags, used both to express interest (when
// registering a [Waitable]) and to report readiness (via [Event]).
type Ready uint8

const (
	// ReadyRead indicates the source may be read without blocking.
	ReadyRead Ready = 1 << iota
	// ReadyWrite indicates the source may be written without blocking.
	ReadyWrite
	// ReadyError indicates the source is in an error state.
	ReadyError

	readyMask = ReadyRead | ReadyWrite | ReadyError
)

// Has reports whether every flag in flags is set.
func (x Ready) Has(flags Ready) bool {
	return x&flags == flags
}

// String returns the flags joined by "|", or "none".
func (x Ready) String() string {
	if x == 0 {
		return `none`
	}
	var parts []string
	if x&ReadyRead != 0 {
		parts = append(parts, `read`)
	}
	if x&ReadyWrite != 0 {
		parts = append(parts, `write`)
	}
	if x&ReadyError != 0 {
		parts = append(parts, `error`)
	}
	if x&^readyMask != 0 {
		parts = append(parts, `unknown`)
	}
	return strings.Join(parts, `|`)
}

// Event is the result of a single wait cycle, for one triggered source.
type Event struct {
	// Token is the correlation token supplied to [WaitSet.Add] or
	// [WaitSet.Change].
	Token any
	// Ready is the observed readiness, never zero.
	Ready Ready
}
