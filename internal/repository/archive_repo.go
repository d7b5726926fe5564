package repository

import (
	"context"

	"github.com/nozzip/seccional/internal/model"
	"gorm.io/gorm"
)

// ArchiveRepository is the append-only sink for archived days plus the
// read side used to seed the next day's opening cash.
type ArchiveRepository interface {
	InsertTx(tx *gorm.DB, day *model.ArchivedDay) error
	Latest(ctx context.Context) (*model.ArchivedDay, error)
	FindByDate(ctx context.Context, date string) (*model.ArchivedDay, error)
	List(ctx context.Context, page, limit int) ([]model.ArchivedDay, int64, error)
}

type archiveRepo struct{ db *gorm.DB }

func NewArchiveRepository(db *gorm.DB) ArchiveRepository { return &archiveRepo{db: db} }

func (r *archiveRepo) InsertTx(tx *gorm.DB, day *model.ArchivedDay) error {
	return tx.Create(day).Error
}

func (r *archiveRepo) Latest(ctx context.Context) (*model.ArchivedDay, error) {
	var d model.ArchivedDay
	if err := r.db.WithContext(ctx).Order("date DESC").First(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *archiveRepo) FindByDate(ctx context.Context, date string) (*model.ArchivedDay, error) {
	var d model.ArchivedDay
	if err := r.db.WithContext(ctx).Where("date = ?", date).First(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

func (r *archiveRepo) List(ctx context.Context, page, limit int) ([]model.ArchivedDay, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ArchivedDay{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	page, limit = normalizePage(page, limit)
	var days []model.ArchivedDay
	err := q.Order("date DESC").Offset((page - 1) * limit).Limit(limit).Find(&days).Error
	return days, total, err
}
