package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/nozzip/seccional/internal/ledger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ArchivedDay is the append-only end-of-day record. There is no update path.
type ArchivedDay struct {
	ID           uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	Date         string                     `gorm:"type:varchar(10);uniqueIndex;not null"`
	TotalBalance decimal.Decimal            `gorm:"type:decimal(12,2);not null"`
	Shifts       []ledger.Shift             `gorm:"serializer:json;type:text;not null"`
	Movements    map[string]ledger.Movement `gorm:"serializer:json;type:text;not null"`
	ArchivedAt   time.Time                  `gorm:"not null"`
	CreatedAt    time.Time
}

func (ArchivedDay) TableName() string { return "archived_days" }

func (a *ArchivedDay) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// NewArchivedDay converts the ledger value into its row.
func NewArchivedDay(d ledger.ArchivedDay) *ArchivedDay {
	return &ArchivedDay{
		Date:         d.Date,
		TotalBalance: d.TotalBalance,
		Shifts:       d.Shifts,
		Movements:    d.Movements,
		ArchivedAt:   d.ArchivedAt,
	}
}

// ToLedger converts the row back into the ledger value.
func (a ArchivedDay) ToLedger() ledger.ArchivedDay {
	return ledger.ArchivedDay{
		Date:         a.Date,
		Shifts:       a.Shifts,
		TotalBalance: a.TotalBalance,
		Movements:    a.Movements,
		ArchivedAt:   a.ArchivedAt,
	}
}
