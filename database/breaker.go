package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerState is the state of a CircuitBreaker.
type BreakerState int

const (
	// BreakerClosed lets every execution through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects executions with ErrCircuitOpen until the retry interval elapses.
	BreakerOpen
	// BreakerHalfOpen lets exactly one trial execution through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "Closed"
	case BreakerOpen:
		return "Open"
	case BreakerHalfOpen:
		return "HalfOpen"
	default:
		return fmt.Sprintf("BreakerState(%d)", int(s))
	}
}

// CircuitBreaker trips on the first transient connectivity failure and stays
// open for the retry interval. After that a single trial execution decides
// whether it closes again or re-opens.
//
// Errors that do not indicate an unreachable backend (constraint violations,
// syntax errors, caller cancellation) never trip it and count as a healthy
// round trip.
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker[struct{}]
	driver Driver
	logger Logger
}

// NewCircuitBreaker creates a closed breaker for the named backend. driver
// classifies which errors are transient connectivity failures.
func NewCircuitBreaker(name string, retryInterval time.Duration, driver Driver, logger Logger) *CircuitBreaker {
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}

	b := &CircuitBreaker{driver: driver, logger: logger}
	b.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name + " circuit breaker",
		MaxRequests: 1,
		Timeout:     retryInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		IsSuccessful: func(err error) bool {
			var done *callerDoneError
			if errors.As(err, &done) {
				return true
			}
			return !b.ShouldTrip(err)
		},
		OnStateChange: b.stateChanged,
	})
	return b
}

// Name returns the breaker's diagnostic name, "<backend> circuit breaker".
func (b *CircuitBreaker) Name() string {
	return b.cb.Name()
}

// State returns the current state. An open breaker whose retry interval has
// elapsed already reports BreakerHalfOpen.
func (b *CircuitBreaker) State() BreakerState {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return BreakerOpen
	case gobreaker.StateHalfOpen:
		return BreakerHalfOpen
	default:
		return BreakerClosed
	}
}

// ShouldTrip reports whether err means the backend is unreachable.
//
// Cancellation is checked first: some drivers wrap context.Canceled in their
// own timeout error types.
func (b *CircuitBreaker) ShouldTrip(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	case b.driver == nil:
		return false
	default:
		return b.driver.IsTransientConnectivityError(err)
	}
}

// Execute runs unit when the breaker admits it. A rejected execution returns
// an error matching ErrCircuitOpen and unit is not called. Errors from unit
// are returned unchanged.
//
// A failure that surfaces after ctx itself is done is the caller giving up,
// not the backend: it never trips the breaker, even when it is
// context.DeadlineExceeded. Only a command timeout derived inside unit does.
func (b *CircuitBreaker) Execute(ctx context.Context, unit func(context.Context) error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		err := unit(ctx)
		if err != nil && ctx.Err() != nil {
			return struct{}{}, &callerDoneError{err: err}
		}
		return struct{}{}, err
	})

	var done *callerDoneError
	if errors.As(err, &done) {
		return done.err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %w", ErrCircuitOpen, b.cb.Name(), err)
	}
	return err
}

// callerDoneError carries a unit error through gobreaker when the caller's
// context ended first. Execute unwraps it before returning.
type callerDoneError struct {
	err error
}

func (e *callerDoneError) Error() string { return e.err.Error() }

func (e *callerDoneError) Unwrap() error { return e.err }

func (b *CircuitBreaker) stateChanged(name string, from, to gobreaker.State) {
	if b.logger == nil {
		return
	}
	fields := map[string]interface{}{
		"breaker": name,
		"from":    from.String(),
		"to":      to.String(),
	}
	if to == gobreaker.StateOpen {
		b.logger.WarnWithContext(context.Background(), "circuit breaker opened", nil, fields)
		return
	}
	b.logger.InfoWithContext(context.Background(), "circuit breaker state changed", nil, fields)
}
