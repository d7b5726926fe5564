package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyLayout         = errors.New("shift layout is empty")
	ErrNegativeOpeningCash = errors.New("opening cash cannot be negative")
	ErrShiftNotFound       = errors.New("shift not found")
	ErrShiftNotOpen        = errors.New("shift is not open")
	ErrCashNotDeclared     = errors.New("declared cash count is required to close a shift")
	ErrLedgerArchived      = errors.New("ledger is archived")
	ErrNotReadyForHandover = errors.New("no closed shift is waiting for handover")
	ErrNotReadyToArchive   = errors.New("every shift must be closed before archiving")
)

// PreconditionError reports a transition attempted from a state that does not allow it.
type PreconditionError struct {
	Op    string
	State State
	Err   error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v (ledger state %s)", e.Op, e.Err, e.State)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// IsPrecondition reports whether err was caused by a failed transition precondition.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

func precondition(op string, l Ledger, err error) error {
	return &PreconditionError{Op: op, State: DeriveState(l), Err: err}
}
