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

// Log categories, used for rate limiting warnings.
const (
	logCategoryRemove   = `remove`
	logCategorySpurious = `spurious`
	logCategoryClose    = `close`
)

// newLogger derives the logger for a single wait set, or nil if logging is
// disabled.
func newLogger(logger *logiface.Logger[logiface.Event], id uuid.UUID) *logiface.Logger[logiface.Event] {
	return logger.Clone().
		Str(`waitset`, id.String()).
		Logger()
}

// newLimiter wraps catrate.NewLimiter, which panics on invalid rates.
func newLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	if len(rates) == 0 {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			limiter = nil
			err = fmt.Errorf(`%w: %v`, ErrInvalidArgument, r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}

// warning returns a builder for a rate limited warning, or nil.
func (x *WaitSet) warning(category string) *logiface.Builder[logiface.Event] {
	if x.logger == nil {
		return nil
	}
	if _, ok := x.limiter.Allow(category); !ok {
		return nil
	}
	return x.logger.Warning().Str(`category`, category)
}
