package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction types.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Payment methods. Only cash participates in shift reconciliation.
const (
	PaymentCash     = "cash"
	PaymentDebit    = "debit"
	PaymentCredit   = "credit"
	PaymentTransfer = "transfer"
)

// Transaction is an append-only entry of the front-desk feed.
// Amount is always positive; Type carries the direction.
// Rows are never updated or deleted; corrections are new entries.
type Transaction struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Date          time.Time       `gorm:"not null;index" json:"date"`
	Type          string          `gorm:"type:varchar(20);not null" json:"type"`
	Category      string          `gorm:"type:varchar(80);not null;index" json:"category"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"type:varchar(20);not null" json:"payment_method"`
	Description   string          `json:"description"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsCash reports whether the transaction moves physical cash.
func (t Transaction) IsCash() bool { return t.PaymentMethod == PaymentCash }
