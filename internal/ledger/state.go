package ledger

// State is the ledger-level step derived from the shift statuses.
type State string

const (
	StateShiftOneOpen   State = "shift_one_open"
	StateHandover       State = "handover"
	StateShiftTwoOpen   State = "shift_two_open"
	StateReadyToArchive State = "ready_to_archive"
	StateArchived       State = "archived"
	// StateInvalid covers status combinations no transition can produce.
	StateInvalid State = "invalid"
)

// DeriveState computes the ledger step. Any shift after the first being open
// reports StateShiftTwoOpen.
func DeriveState(l Ledger) State {
	if l.Archived {
		return StateArchived
	}
	if len(l.Shifts) == 0 || CountOpen(l) > 1 {
		return StateInvalid
	}

	closedPrefix := 0
	for _, s := range l.Shifts {
		if s.Status != StatusClosed {
			break
		}
		closedPrefix++
	}
	if closedPrefix == len(l.Shifts) {
		return StateReadyToArchive
	}

	// Shifts after the first non-closed one must all be not started.
	for _, s := range l.Shifts[closedPrefix+1:] {
		if s.Status != StatusNotStarted {
			return StateInvalid
		}
	}

	switch next := l.Shifts[closedPrefix]; {
	case next.Status == StatusOpen && closedPrefix == 0:
		return StateShiftOneOpen
	case next.Status == StatusOpen:
		return StateShiftTwoOpen
	case closedPrefix > 0:
		return StateHandover
	default:
		return StateInvalid
	}
}

// CanClose reports whether a close transition is offered.
func (s State) CanClose() bool {
	return s == StateShiftOneOpen || s == StateShiftTwoOpen
}

// CanHandover reports whether a handover transition is offered.
func (s State) CanHandover() bool { return s == StateHandover }

// CanArchive reports whether the archive transition is offered.
func (s State) CanArchive() bool { return s == StateReadyToArchive }
