package repository

import (
	"context"
	"time"

	"github.com/nozzip/seccional/internal/model"
	"gorm.io/gorm"
)

// TransactionRepository is the append-only transaction feed.
// Rows are never updated or deleted.
type TransactionRepository interface {
	Create(ctx context.Context, t *model.Transaction) error
	// ListBetween returns transactions with from <= date < to, oldest first.
	ListBetween(ctx context.Context, from, to time.Time) ([]model.Transaction, error)
	// ListSince returns transactions with date >= from, oldest first.
	ListSince(ctx context.Context, from time.Time) ([]model.Transaction, error)
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func (r *transactionRepo) Create(ctx context.Context, t *model.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *transactionRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from.UTC(), to.UTC()).
		Order("date ASC, created_at ASC").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) ListSince(ctx context.Context, from time.Time) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Where("date >= ?", from.UTC()).
		Order("date ASC, created_at ASC").
		Find(&txs).Error
	return txs, err
}
