// Package ledger holds the shift ledger of a business day: the ordered shifts,
// their cash and stock state, and the pure transitions between them.
// Every transition returns a new Ledger and leaves its input untouched; the
// caller owns the single mutable reference.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a single shift.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusOpen       Status = "open"
	StatusClosed     Status = "closed"
)

// StockLine is one product quantity inside a stock snapshot.
type StockLine struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

// ShiftDef describes one slot of the fixed daily layout (e.g. Morning 08:00 - 14:00).
type ShiftDef struct {
	Name      string `json:"name"`
	TimeLabel string `json:"time_label"`
}

// Shift is a bounded work period for which one operator is accountable.
type Shift struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	TimeLabel   string `json:"time_label"`
	Responsible string `json:"responsible"`

	OpeningCash   decimal.Decimal `json:"opening_cash"`
	SystemIncome  decimal.Decimal `json:"system_income"`
	SystemExpense decimal.Decimal `json:"system_expense"`
	// RealCash is the physically counted cash, nil until the shift is closed.
	RealCash *decimal.Decimal `json:"real_cash"`
	// Difference = RealCash - (OpeningCash + SystemIncome - SystemExpense).
	Difference *decimal.Decimal `json:"difference"`

	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`

	OpenedAt *time.Time `json:"opened_at"`
	ClosedAt *time.Time `json:"closed_at"`

	StartingStock []StockLine `json:"starting_stock"`
	StockSnapshot []StockLine `json:"stock_snapshot"`
}

// Ledger is the ordered list of shifts of one business date.
type Ledger struct {
	BusinessDate string     `json:"business_date"`
	Shifts       []Shift    `json:"shifts"`
	Archived     bool       `json:"archived"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
}

// Movement is the income/expense total of one account or category.
type Movement struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// ArchivedDay is the immutable end-of-day record.
type ArchivedDay struct {
	Date         string              `json:"date"`
	Shifts       []Shift             `json:"shifts"`
	TotalBalance decimal.Decimal     `json:"total_balance"`
	Movements    map[string]Movement `json:"movements"`
	ArchivedAt   time.Time           `json:"archived_at"`
}

// New builds the ledger for a business date with the first shift open.
// responsibles is indexed like defs; missing entries leave the name empty.
func New(date string, defs []ShiftDef, responsibles []string, openingCash decimal.Decimal, startingStock []StockLine, openedAt time.Time) (Ledger, error) {
	if len(defs) == 0 {
		return Ledger{}, ErrEmptyLayout
	}
	if openingCash.IsNegative() {
		return Ledger{}, ErrNegativeOpeningCash
	}

	shifts := make([]Shift, len(defs))
	for i, def := range defs {
		shifts[i] = Shift{
			ID:            i + 1,
			Name:          def.Name,
			TimeLabel:     def.TimeLabel,
			OpeningCash:   decimal.Zero,
			SystemIncome:  decimal.Zero,
			SystemExpense: decimal.Zero,
			Status:        StatusNotStarted,
		}
		if i < len(responsibles) {
			shifts[i].Responsible = responsibles[i]
		}
	}

	at := openedAt
	shifts[0].Status = StatusOpen
	shifts[0].OpeningCash = openingCash
	shifts[0].OpenedAt = &at
	shifts[0].StartingStock = cloneStock(startingStock)

	return Ledger{BusinessDate: date, Shifts: shifts}, nil
}

// OpenShift returns the shift currently open, if any.
func OpenShift(l Ledger) (Shift, bool) {
	for _, s := range l.Shifts {
		if s.Status == StatusOpen {
			return s, true
		}
	}
	return Shift{}, false
}

// CountOpen returns how many shifts are open. Valid ledgers report 0 or 1.
func CountOpen(l Ledger) int {
	n := 0
	for _, s := range l.Shifts {
		if s.Status == StatusOpen {
			n++
		}
	}
	return n
}

// LastShift returns the final shift of the layout.
func LastShift(l Ledger) (Shift, bool) {
	if len(l.Shifts) == 0 {
		return Shift{}, false
	}
	return l.Shifts[len(l.Shifts)-1], true
}

// FindShift returns the index of the shift with the given id.
func FindShift(l Ledger, id int) (int, bool) {
	for i, s := range l.Shifts {
		if s.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Clone returns a deep copy of l.
func Clone(l Ledger) Ledger {
	out := Ledger{
		BusinessDate: l.BusinessDate,
		Archived:     l.Archived,
		ArchivedAt:   cloneTime(l.ArchivedAt),
	}
	if l.Shifts != nil {
		out.Shifts = make([]Shift, len(l.Shifts))
		for i, s := range l.Shifts {
			out.Shifts[i] = cloneShift(s)
		}
	}
	return out
}

func cloneShift(s Shift) Shift {
	c := s
	c.RealCash = cloneDecimal(s.RealCash)
	c.Difference = cloneDecimal(s.Difference)
	c.OpenedAt = cloneTime(s.OpenedAt)
	c.ClosedAt = cloneTime(s.ClosedAt)
	c.StartingStock = cloneStock(s.StartingStock)
	c.StockSnapshot = cloneStock(s.StockSnapshot)
	return c
}

func cloneStock(lines []StockLine) []StockLine {
	if lines == nil {
		return nil
	}
	out := make([]StockLine, len(lines))
	copy(out, lines)
	return out
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
