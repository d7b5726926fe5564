package dto

import (
	"time"

	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/reconcile"
	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CloseShiftRequest is the operator's physical count at the end of a shift.
// StockCounts is keyed by product name; products left out fall back to the
// system-computed stock.
type CloseShiftRequest struct {
	DeclaredCash *decimal.Decimal `json:"declared_cash" validate:"required,min=0"`
	StockCounts  map[string]int   `json:"stock_counts"  validate:"omitempty,dive,keys,required,max=120,endkeys,min=0"`
	Notes        string           `json:"notes"         validate:"max=1000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ShiftCash is the cash position of one shift. Expected is live for the open
// shift and frozen for closed ones.
type ShiftCash struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Status     ledger.Status    `json:"status"`
	Income     decimal.Decimal  `json:"income"`
	Expense    decimal.Decimal  `json:"expense"`
	Expected   decimal.Decimal  `json:"expected"`
	RealCash   *decimal.Decimal `json:"real_cash"`
	Difference *decimal.Decimal `json:"difference"`
	Live       bool             `json:"live"`
}

type StockLevel struct {
	ProductName  string `json:"product_name"`
	InitialStock int    `json:"initial_stock"`
	Entries      int    `json:"entries"`
	Exits        int    `json:"exits"`
	Expected     int    `json:"expected"`
}

type ShiftOverview struct {
	Ledger      ledger.Ledger `json:"ledger"`
	State       ledger.State  `json:"state"`
	CanClose    bool          `json:"can_close"`
	CanHandover bool          `json:"can_handover"`
	CanArchive  bool          `json:"can_archive"`
	Cash        []ShiftCash   `json:"cash"`
	Inventory   []StockLevel  `json:"inventory"`
	GeneratedAt time.Time     `json:"generated_at"`
}

type StockEvaluation struct {
	ProductName string                `json:"product_name"`
	Expected    int                   `json:"expected"`
	Declared    int                   `json:"declared"`
	Difference  int                   `json:"difference"`
	Status      reconcile.CountStatus `json:"status"`
}

// ClosePreview scores a declaration without closing anything.
type ClosePreview struct {
	ShiftID       int                  `json:"shift_id"`
	Cash          reconcile.Evaluation `json:"cash"`
	Stock         []StockEvaluation    `json:"stock"`
	Mismatches    []string             `json:"mismatches"`
	NoteSuggested bool                 `json:"note_suggested"`
}

type CloseResult struct {
	Ledger     ledger.Ledger        `json:"ledger"`
	State      ledger.State         `json:"state"`
	Shift      ledger.Shift         `json:"shift"`
	Cash       reconcile.Evaluation `json:"cash"`
	Mismatches []string             `json:"mismatches"`
	Warnings   []string             `json:"warnings"`
}

type HandoverResponse struct {
	Ledger      ledger.Ledger      `json:"ledger"`
	State       ledger.State       `json:"state"`
	Transferred []ledger.StockLine `json:"transferred"`
}
