// Package reconcile derives expected cash and stock for a shift from the
// transaction and inventory feeds and scores declared counts against them.
// Everything here is a pure function of its inputs.
package reconcile

import (
	"sort"
	"time"

	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/model"
	"github.com/shopspring/decimal"
)

// CountStatus classifies a declared count against the expected value.
type CountStatus string

const (
	Balanced CountStatus = "balanced"
	Surplus  CountStatus = "surplus"
	Shortage CountStatus = "shortage"
)

// Evaluation is the outcome of comparing a declared count with the expectation.
type Evaluation struct {
	Expected   decimal.Decimal `json:"expected"`
	Declared   decimal.Decimal `json:"declared"`
	Difference decimal.Decimal `json:"difference"`
	Status     CountStatus     `json:"status"`
}

// ── Cash ─────────────────────────────────────────────────────────────────────

// CashTotals sums cash income and expense inside [openedAt, closedAt ?? now).
// A shift that never opened has an empty window.
func CashTotals(shift ledger.Shift, txs []model.Transaction, now time.Time) (income, expense decimal.Decimal) {
	income, expense = decimal.Zero, decimal.Zero
	if shift.OpenedAt == nil {
		return income, expense
	}
	from := *shift.OpenedAt
	to := now
	if shift.ClosedAt != nil {
		to = *shift.ClosedAt
	}

	for _, tx := range txs {
		if !tx.IsCash() || !inWindow(tx.Date, from, to) {
			continue
		}
		switch tx.Type {
		case model.TypeIncome:
			income = income.Add(tx.Amount)
		case model.TypeExpense:
			expense = expense.Add(tx.Amount)
		}
	}
	return income, expense
}

// ExpectedCash = openingCash + cash income - cash expense for the shift window.
func ExpectedCash(shift ledger.Shift, txs []model.Transaction, now time.Time) decimal.Decimal {
	income, expense := CashTotals(shift, txs, now)
	return shift.OpeningCash.Add(income).Sub(expense)
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// ── Counts ───────────────────────────────────────────────────────────────────

// EvaluateCount scores a declared amount: difference = declared - expected.
func EvaluateCount(expected, declared decimal.Decimal) Evaluation {
	diff := declared.Sub(expected)
	status := Balanced
	switch diff.Sign() {
	case 1:
		status = Surplus
	case -1:
		status = Shortage
	}
	return Evaluation{Expected: expected, Declared: declared, Difference: diff, Status: status}
}

// EvaluateStock applies EvaluateCount to unit quantities.
func EvaluateStock(expected, declared int) Evaluation {
	return EvaluateCount(decimal.NewFromInt(int64(expected)), decimal.NewFromInt(int64(declared)))
}

// ── Stock ────────────────────────────────────────────────────────────────────

// ExpectedStock = initialStock + entries - exits. The inventory counters are
// rebased at every handover, so this is always relative to the open shift.
func ExpectedStock(item model.InventoryItem) int {
	return item.InitialStock + item.Entries - item.Exits
}

// DetectMismatches returns the items whose declared count differs from the
// expected stock. Items without a declared count are skipped.
func DetectMismatches(items []model.InventoryItem, declared map[string]int) []model.InventoryItem {
	var out []model.InventoryItem
	for _, item := range items {
		count, ok := declared[item.ProductName]
		if !ok {
			continue
		}
		if count != ExpectedStock(item) {
			out = append(out, item)
		}
	}
	return out
}

// SnapshotStock builds the closing stock snapshot: the declared count when the
// operator provided one, the expected stock otherwise. Ordered by product name.
func SnapshotStock(items []model.InventoryItem, declared map[string]int) []ledger.StockLine {
	lines := make([]ledger.StockLine, 0, len(items))
	for _, item := range items {
		qty := ExpectedStock(item)
		if count, ok := declared[item.ProductName]; ok {
			qty = count
		}
		lines = append(lines, ledger.StockLine{ProductName: item.ProductName, Quantity: qty})
	}
	sortLines(lines)
	return lines
}

// InitialStock lists the recorded initial stock, used as the first shift's starting stock.
func InitialStock(items []model.InventoryItem) []ledger.StockLine {
	lines := make([]ledger.StockLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, ledger.StockLine{ProductName: item.ProductName, Quantity: item.InitialStock})
	}
	sortLines(lines)
	return lines
}

func sortLines(lines []ledger.StockLine) {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductName < lines[j].ProductName })
}
