// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package waitset

import (
	"fmt"
	"time"

	"github.com/joeycumines/logiface"
)

// waitSetOptions holds configuration options for WaitSet creation.
type waitSetOptions struct {
	logger        *logiface.Logger[logiface.Event]
	logRateLimits map[time.Duration]int
}

// Option configures a WaitSet instance.
type Option interface {
	applyWaitSet(*waitSetOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyWaitSetFunc func(*waitSetOptions) error
}

func (o *optionImpl) applyWaitSet(opts *waitSetOptions) error {
	return o.applyWaitSetFunc(opts)
}

// WithLogger configures structured logging. Lifecycle events are logged at
// debug level, failures that cannot be returned to the caller (e.g. during
// [WaitSet.Remove]) at warning level. A nil logger disables logging, which
// is the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *waitSetOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithLogRateLimits configures the rate limits applied to warnings, per
// category (the operation that failed). The rates are as accepted by
// [github.com/joeycumines/go-catrate.NewLimiter]. An empty map disables rate
// limiting.
func WithLogRateLimits(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *waitSetOptions) error {
		for window, count := range rates {
			if window <= 0 || count <= 0 {
				return fmt.Errorf(`%w: log rate limit %v: %d`, ErrInvalidArgument, window, count)
			}
		}
		opts.logRateLimits = rates
		return nil
	}}
}

// resolveOptions applies Option instances to waitSetOptions.
func resolveOptions(opts []Option) (*waitSetOptions, error) {
	cfg := &waitSetOptions{
		logRateLimits: map[time.Duration]int{
			time.Second: 1,
			time.Minute: 10,
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyWaitSet(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
