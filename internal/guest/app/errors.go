package app

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnavailable marks a failure of the session store, the catalog or the
	// durable store. It is surfaced to the caller without internal retries;
	// retry policy belongs to the transport layer.
	ErrUnavailable = errors.New("upstream unavailable")
)

// upstream classifies a collaborator failure. Caller cancellation passes
// through untouched so transports can tell it apart from an outage.
func upstream(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// storeErr wraps errors coming back from a session-store cycle. Errors raised
// by our own mutation callbacks keep their identity; anything else is an
// upstream failure.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return upstream(err)
}
