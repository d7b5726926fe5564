package model

import (
	"time"

	"github.com/nozzip/seccional/internal/ledger"
)

// LedgerRecord persists the shift ledger of one business date.
// Version is bumped on every save and checked to reject concurrent writers.
type LedgerRecord struct {
	BusinessDate string        `gorm:"type:varchar(10);primaryKey"`
	Version      int           `gorm:"not null;default:1"`
	State        string        `gorm:"type:varchar(20);not null;index"`
	Archived     bool          `gorm:"not null;default:false;index"`
	Payload      ledger.Ledger `gorm:"serializer:json;type:text;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (LedgerRecord) TableName() string { return "ledgers" }
