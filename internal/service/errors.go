package service

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks failures of the backing store. They are retryable and
// never change ledger state.
var ErrUnavailable = errors.New("store unavailable")

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// ErrInvalidInput marks requests the service rejects after DTO validation
// (unparseable dates, unknown weekdays).
var ErrInvalidInput = errors.New("invalid input")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
