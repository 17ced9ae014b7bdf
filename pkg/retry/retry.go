package retry

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultDelay       = time.Second
)

// Result is the outcome of Do. Err holds the last failure when every attempt failed.
type Result[T any] struct {
	Value    T
	Err      error
	Attempts int
}

// OK reports whether the operation eventually succeeded
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

type options struct {
	maxAttempts int
	delay       time.Duration
	sleep       Sleeper
	retryIf     func(error) bool
}

// Option configures Do
type Option func(*options)

// WithMaxAttempts sets the total number of invocations, including the first
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithDelay sets the fixed wait between attempts
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithSleeper replaces the wait, mainly for tests
func WithSleeper(s Sleeper) Option {
	return func(o *options) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithRetryIf stops retrying as soon as fn returns false for an error
func WithRetryIf(fn func(error) bool) Option {
	return func(o *options) {
		if fn != nil {
			o.retryIf = fn
		}
	}
}

// Do invokes op until it succeeds, attempts run out, the error is not retryable or ctx ends.
func Do[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts ...Option) Result[T] {
	o := options{
		maxAttempts: DefaultMaxAttempts,
		delay:       DefaultDelay,
		sleep:       sleepContext,
		retryIf:     IsRetryable,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var res Result[T]
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		res.Attempts = attempt
		value, err := op(ctx)
		if err == nil {
			res.Value = value
			res.Err = nil
			return res
		}
		res.Err = err

		if attempt == o.maxAttempts || !o.retryIf(err) {
			return res
		}
		if err := o.sleep(ctx, o.delay); err != nil {
			res.Err = err
			return res
		}
	}
	return res
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type terminalError struct {
	err error
}

func (e *terminalError) Error() string {
	return e.err.Error()
}

func (e *terminalError) Unwrap() error {
	return e.err
}

// Terminal marks err so Do stops retrying on it
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

// IsRetryable is the default predicate: everything except terminal-marked errors and cancellation
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var terminal *terminalError
	if errors.As(err, &terminal) {
		return false
	}
	return !errors.Is(err, context.Canceled)
}
