package reconcile

import (
	"time"

	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/model"
	"github.com/shopspring/decimal"
)

// MovementsByAccount totals income and expense per category across every
// payment method. Used for the archived day's audit breakdown.
func MovementsByAccount(txs []model.Transaction) map[string]ledger.Movement {
	out := make(map[string]ledger.Movement)
	for _, tx := range txs {
		m, ok := out[tx.Category]
		if !ok {
			m = ledger.Movement{Income: decimal.Zero, Expense: decimal.Zero}
		}
		switch tx.Type {
		case model.TypeIncome:
			m.Income = m.Income.Add(tx.Amount)
		case model.TypeExpense:
			m.Expense = m.Expense.Add(tx.Amount)
		default:
			continue
		}
		out[tx.Category] = m
	}
	return out
}

// DailySummary is the display aggregation of one business day.
type DailySummary struct {
	Income          decimal.Decimal            `json:"income"`
	Expense         decimal.Decimal            `json:"expense"`
	Net             decimal.Decimal            `json:"net"`
	ByPaymentMethod map[string]ledger.Movement `json:"by_payment_method"`
	ByCategory      map[string]ledger.Movement `json:"by_category"`
	Count           int                        `json:"count"`
}

// Summarize aggregates the transactions dated inside [from, to).
func Summarize(txs []model.Transaction, from, to time.Time) DailySummary {
	s := DailySummary{
		Income:          decimal.Zero,
		Expense:         decimal.Zero,
		ByPaymentMethod: make(map[string]ledger.Movement),
	}

	var day []model.Transaction
	for _, tx := range txs {
		if !inWindow(tx.Date, from, to) {
			continue
		}
		day = append(day, tx)

		m, ok := s.ByPaymentMethod[tx.PaymentMethod]
		if !ok {
			m = ledger.Movement{Income: decimal.Zero, Expense: decimal.Zero}
		}
		switch tx.Type {
		case model.TypeIncome:
			s.Income = s.Income.Add(tx.Amount)
			m.Income = m.Income.Add(tx.Amount)
		case model.TypeExpense:
			s.Expense = s.Expense.Add(tx.Amount)
			m.Expense = m.Expense.Add(tx.Amount)
		}
		s.ByPaymentMethod[tx.PaymentMethod] = m
	}

	s.ByCategory = MovementsByAccount(day)
	s.Net = s.Income.Sub(s.Expense)
	s.Count = len(day)
	return s
}
