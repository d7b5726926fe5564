package repository

import (
	"context"
	"time"

	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/model"
	"gorm.io/gorm"
)

// LedgerRepository stores one shift ledger per business date. Writes carry an
// optimistic version check.
type LedgerRepository interface {
	// FindActive returns the most recent ledger that is not archived.
	FindActive(ctx context.Context) (*model.LedgerRecord, error)
	FindByDate(ctx context.Context, date string) (*model.LedgerRecord, error)
	// CreateTx inserts a new ledger at version 1.
	CreateTx(tx *gorm.DB, l ledger.Ledger) (*model.LedgerRecord, error)
	// SaveTx writes l over the record read at version rec.Version and bumps
	// it; ErrVersionConflict when the row moved on meanwhile.
	SaveTx(tx *gorm.DB, rec *model.LedgerRecord, l ledger.Ledger) error

	DB() *gorm.DB
}

type ledgerRepo struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db} }

func (r *ledgerRepo) DB() *gorm.DB { return r.db }

func (r *ledgerRepo) FindActive(ctx context.Context) (*model.LedgerRecord, error) {
	var rec model.LedgerRecord
	err := r.db.WithContext(ctx).
		Where("archived = ?", false).
		Order("business_date DESC").
		First(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *ledgerRepo) FindByDate(ctx context.Context, date string) (*model.LedgerRecord, error) {
	var rec model.LedgerRecord
	if err := r.db.WithContext(ctx).Where("business_date = ?", date).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *ledgerRepo) CreateTx(tx *gorm.DB, l ledger.Ledger) (*model.LedgerRecord, error) {
	rec := &model.LedgerRecord{
		BusinessDate: l.BusinessDate,
		Version:      1,
		State:        string(ledger.DeriveState(l)),
		Archived:     l.Archived,
		Payload:      l,
	}
	if err := tx.Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *ledgerRepo) SaveTx(tx *gorm.DB, rec *model.LedgerRecord, l ledger.Ledger) error {
	next := model.LedgerRecord{
		Version:   rec.Version + 1,
		State:     string(ledger.DeriveState(l)),
		Archived:  l.Archived,
		Payload:   l,
		UpdatedAt: time.Now().UTC(),
	}
	res := tx.Model(&model.LedgerRecord{}).
		Where("business_date = ? AND version = ?", rec.BusinessDate, rec.Version).
		Select("version", "state", "archived", "payload", "updated_at").
		Updates(&next)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	rec.Version = next.Version
	rec.State = next.State
	rec.Archived = next.Archived
	rec.Payload = next.Payload
	rec.UpdatedAt = next.UpdatedAt
	return nil
}
