package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovementFilter narrows ListMovements.
type MovementFilter struct {
	ProductName string
	Kind        string
	Page        int
	Limit       int
}

type InventoryRepository interface {
	List(ctx context.Context) ([]model.InventoryItem, error)
	Find(ctx context.Context, productName string) (*model.InventoryItem, error)
	// SetInitialStock creates the product or overwrites its initial stock,
	// keeping the entries and exits already recorded.
	SetInitialStock(ctx context.Context, productName string, initialStock int, reason string) (*model.InventoryItem, error)
	// ApplyMovement adds an entry or exit to the product counters.
	ApplyMovement(ctx context.Context, productName, kind string, quantity int, reason string) (*model.InventoryItem, error)
	// RebaseTx sets initial stock to the handed-over quantities and zeroes
	// entries/exits for every product. Products missing from lines are
	// rebased onto their own expected stock.
	RebaseTx(tx *gorm.DB, businessDate string, lines []ledger.StockLine) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]model.InventoryMovement, int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type inventoryRepo struct{ db *gorm.DB }

func NewInventoryRepository(db *gorm.DB) InventoryRepository { return &inventoryRepo{db: db} }

func (r *inventoryRepo) DB() *gorm.DB { return r.db }

func (r *inventoryRepo) List(ctx context.Context) ([]model.InventoryItem, error) {
	return listItems(r.db.WithContext(ctx))
}

func listItems(db *gorm.DB) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := db.Order("product_name ASC").Find(&items).Error
	return items, err
}

func (r *inventoryRepo) Find(ctx context.Context, productName string) (*model.InventoryItem, error) {
	var it model.InventoryItem
	if err := r.db.WithContext(ctx).Where("product_name = ?", productName).First(&it).Error; err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

// lockItem reads a row FOR UPDATE on postgres; SQLite ignores the clause and
// serializes writers on its own.
func lockItem(tx *gorm.DB, productName string) (*model.InventoryItem, error) {
	var it model.InventoryItem
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("product_name = ?", productName).First(&it).Error; err != nil {
		return nil, notFound(err)
	}
	return &it, nil
}

func expected(it model.InventoryItem) int { return it.InitialStock + it.Entries - it.Exits }

func (r *inventoryRepo) SetInitialStock(ctx context.Context, productName string, initialStock int, reason string) (*model.InventoryItem, error) {
	var out *model.InventoryItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, err := lockItem(tx, productName)
		switch {
		case errors.Is(err, ErrNotFound):
			it = &model.InventoryItem{ProductName: productName}
		case err != nil:
			return err
		}
		before := expected(*it)
		it.InitialStock = initialStock
		it.UpdatedAt = time.Now().UTC()
		if err := tx.Save(it).Error; err != nil {
			return err
		}
		mov := &model.InventoryMovement{
			ProductName: productName,
			Kind:        model.MovementRebase,
			Quantity:    initialStock,
			StockBefore: before,
			StockAfter:  expected(*it),
			Reason:      reason,
		}
		if err := tx.Create(mov).Error; err != nil {
			return err
		}
		out = it
		return nil
	})
	return out, err
}

func (r *inventoryRepo) ApplyMovement(ctx context.Context, productName, kind string, quantity int, reason string) (*model.InventoryItem, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("movement quantity must be positive, got %d", quantity)
	}
	var out *model.InventoryItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		it, err := lockItem(tx, productName)
		if err != nil {
			return err
		}
		before := expected(*it)
		signed := quantity
		switch kind {
		case model.MovementEntry:
			it.Entries += quantity
		case model.MovementExit:
			it.Exits += quantity
			signed = -quantity
		default:
			return fmt.Errorf("unknown movement kind %q", kind)
		}
		it.UpdatedAt = time.Now().UTC()
		if err := tx.Save(it).Error; err != nil {
			return err
		}
		mov := &model.InventoryMovement{
			ProductName: productName,
			Kind:        kind,
			Quantity:    signed,
			StockBefore: before,
			StockAfter:  expected(*it),
			Reason:      reason,
		}
		if err := tx.Create(mov).Error; err != nil {
			return err
		}
		out = it
		return nil
	})
	return out, err
}

func (r *inventoryRepo) RebaseTx(tx *gorm.DB, businessDate string, lines []ledger.StockLine) error {
	items, err := listItems(tx)
	if err != nil {
		return err
	}
	byName := make(map[string]model.InventoryItem, len(items))
	for _, it := range items {
		byName[it.ProductName] = it
	}
	target := make(map[string]int, len(items)+len(lines))
	for _, it := range items {
		target[it.ProductName] = expected(it)
	}
	for _, l := range lines {
		target[l.ProductName] = l.Quantity
	}

	now := time.Now().UTC()
	date := businessDate
	for name, qty := range target {
		it, ok := byName[name]
		if !ok {
			it = model.InventoryItem{ProductName: name}
		}
		before := expected(it)
		it.InitialStock = qty
		it.Entries = 0
		it.Exits = 0
		it.UpdatedAt = now
		if err := tx.Save(&it).Error; err != nil {
			return fmt.Errorf("rebase %s: %w", name, err)
		}
		mov := &model.InventoryMovement{
			ProductName:  name,
			Kind:         model.MovementRebase,
			Quantity:     qty,
			StockBefore:  before,
			StockAfter:   qty,
			Reason:       "shift handover",
			BusinessDate: &date,
		}
		if err := tx.Create(mov).Error; err != nil {
			return fmt.Errorf("rebase %s: %w", name, err)
		}
	}
	return nil
}

func (r *inventoryRepo) ListMovements(ctx context.Context, filter MovementFilter) ([]model.InventoryMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryMovement{})
	if filter.ProductName != "" {
		q = q.Where("product_name = ?", filter.ProductName)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)
	var movs []model.InventoryMovement
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&movs).Error
	return movs, total, err
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return page, limit
}
