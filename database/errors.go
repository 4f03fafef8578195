package database

import (
	"context"
	"errors"
)

// Errors introduced by this package. Driver errors are never wrapped or
// translated: callers receive exactly what the driver returned.
var (
	// ErrInvalidArgument is returned when a command is rejected before execution,
	// e.g. blank command text. No lifecycle event fires for such a call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownBackend is returned by registries for identifiers outside the
	// configured set.
	ErrUnknownBackend = errors.New("unknown backend")

	// ErrObjectDisposed is returned when an operation is attempted on a closed
	// database or observer.
	ErrObjectDisposed = errors.New("object disposed")

	// ErrCircuitOpen is returned when the circuit breaker rejects a call without
	// invoking the driver.
	ErrCircuitOpen = errors.New("circuit open")
)

// IsCircuitOpen reports whether err is a breaker fast-fail.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}

// IsCanceled reports whether err is the result of caller cancellation.
// Cancellation is a pass-through outcome and never trips the breaker.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
