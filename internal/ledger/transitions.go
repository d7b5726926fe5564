package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CloseInput carries everything frozen into a shift when it closes.
// Income and Expense come from the reconciliation engine at close time.
type CloseInput struct {
	DeclaredCash  *decimal.Decimal
	Income        decimal.Decimal
	Expense       decimal.Decimal
	StockSnapshot []StockLine
	Notes         string
	ClosedAt      time.Time
}

// ── Close ────────────────────────────────────────────────────────────────────

// Close moves an open shift to closed. The declared cash count is mandatory;
// the shift stays open in the returned error case because l is never modified.
func Close(l Ledger, shiftID int, in CloseInput) (Ledger, error) {
	if l.Archived {
		return l, precondition("close", l, ErrLedgerArchived)
	}
	idx, ok := FindShift(l, shiftID)
	if !ok {
		return l, fmt.Errorf("close shift %d: %w", shiftID, ErrShiftNotFound)
	}
	if l.Shifts[idx].Status != StatusOpen {
		return l, precondition("close", l, ErrShiftNotOpen)
	}
	if in.DeclaredCash == nil {
		return l, precondition("close", l, ErrCashNotDeclared)
	}

	out := Clone(l)
	s := &out.Shifts[idx]

	closedAt := in.ClosedAt
	if s.OpenedAt != nil && closedAt.Before(*s.OpenedAt) {
		closedAt = *s.OpenedAt
	}

	counted := *in.DeclaredCash
	diff := Difference(s.OpeningCash, in.Income, in.Expense, counted)

	s.SystemIncome = in.Income
	s.SystemExpense = in.Expense
	s.RealCash = &counted
	s.Difference = &diff
	s.StockSnapshot = cloneStock(in.StockSnapshot)
	if s.StockSnapshot == nil {
		s.StockSnapshot = []StockLine{}
	}
	if in.Notes != "" {
		s.Notes = in.Notes
	}
	s.ClosedAt = &closedAt
	s.Status = StatusClosed

	return out, nil
}

// Difference = declared - (opening + income - expense).
func Difference(opening, income, expense, declared decimal.Decimal) decimal.Decimal {
	return declared.Sub(opening.Add(income).Sub(expense))
}

// ── Handover ─────────────────────────────────────────────────────────────────

// Handover opens the shift following the last closed one, carrying over the
// counted cash, the stock snapshot and the closing timestamp. The returned
// lines are the quantities the inventory must be rebased to.
func Handover(l Ledger) (Ledger, []StockLine, error) {
	if l.Archived {
		return l, nil, precondition("handover", l, ErrLedgerArchived)
	}
	if DeriveState(l) != StateHandover {
		return l, nil, precondition("handover", l, ErrNotReadyForHandover)
	}

	next := 0
	for next < len(l.Shifts) && l.Shifts[next].Status == StatusClosed {
		next++
	}

	out := Clone(l)
	prev := out.Shifts[next-1]
	s := &out.Shifts[next]

	s.OpeningCash = *prev.RealCash
	s.StartingStock = cloneStock(prev.StockSnapshot)
	s.OpenedAt = cloneTime(prev.ClosedAt)
	s.Status = StatusOpen

	return out, cloneStock(prev.StockSnapshot), nil
}

// ── Archive ──────────────────────────────────────────────────────────────────

// BuildArchive snapshots a fully closed ledger. TotalBalance is the cash
// counted at the end of the last shift, not a sum across shifts.
func BuildArchive(l Ledger, movements map[string]Movement, at time.Time) (ArchivedDay, error) {
	if l.Archived {
		return ArchivedDay{}, precondition("archive", l, ErrLedgerArchived)
	}
	if DeriveState(l) != StateReadyToArchive {
		return ArchivedDay{}, precondition("archive", l, ErrNotReadyToArchive)
	}

	snapshot := Clone(l)
	last := snapshot.Shifts[len(snapshot.Shifts)-1]

	mv := make(map[string]Movement, len(movements))
	for k, v := range movements {
		mv[k] = v
	}

	return ArchivedDay{
		Date:         l.BusinessDate,
		Shifts:       snapshot.Shifts,
		TotalBalance: *last.RealCash,
		Movements:    mv,
		ArchivedAt:   at,
	}, nil
}

// MarkArchived seals the ledger. Only call it once the archive record is persisted.
func MarkArchived(l Ledger, at time.Time) (Ledger, error) {
	if l.Archived {
		return l, precondition("archive", l, ErrLedgerArchived)
	}
	if DeriveState(l) != StateReadyToArchive {
		return l, precondition("archive", l, ErrNotReadyToArchive)
	}
	out := Clone(l)
	out.Archived = true
	out.ArchivedAt = &at
	return out, nil
}
