package backend

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBackend marks a failed generation call: transport errors, API
	// errors, empty or refused responses.
	ErrBackend = errors.New("backend failure")
	// ErrTimeout marks a call that ran out of time before the model
	// answered. Kept separate from ErrBackend so callers can surface it
	// differently.
	ErrTimeout = errors.New("backend timeout")
)

// Classify wraps err with the sentinel for its failure class. Context
// cancellation passes through untouched so a user abort is not reported
// as a backend fault.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
}

// IsTimeout reports whether err belongs to the timeout class.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }
