package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryItem is the per-product stock counter of the current shift.
// Entries and Exits accumulate since the last rebase; InitialStock is the
// quantity handed over by the previous shift.
type InventoryItem struct {
	ProductName  string    `gorm:"type:varchar(120);primaryKey" json:"product_name"`
	InitialStock int       `gorm:"not null;default:0" json:"initial_stock"`
	Entries      int       `gorm:"not null;default:0" json:"entries"`
	Exits        int       `gorm:"not null;default:0" json:"exits"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (InventoryItem) TableName() string { return "inventory_items" }

// Inventory movement kinds.
const (
	MovementEntry  = "entry"
	MovementExit   = "exit"
	MovementRebase = "rebase"
)

// InventoryMovement records every change applied to an InventoryItem.
type InventoryMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductName string    `gorm:"type:varchar(120);not null;index" json:"product_name"`
	Kind        string    `gorm:"type:varchar(20);not null" json:"kind"`
	// Quantity is positive for entries, negative for exits; for a rebase it is the new initial stock.
	Quantity    int    `gorm:"not null" json:"quantity"`
	StockBefore int    `gorm:"not null" json:"stock_before"`
	StockAfter  int    `gorm:"not null" json:"stock_after"`
	Reason      string `json:"reason"`
	// BusinessDate links rebases to the ledger that triggered them.
	BusinessDate *string   `gorm:"type:varchar(10)" json:"business_date,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (InventoryMovement) TableName() string { return "inventory_movements" }

func (m *InventoryMovement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
