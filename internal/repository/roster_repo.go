package repository

import (
	"context"
	"time"

	"github.com/nozzip/seccional/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RosterRepository interface {
	Find(ctx context.Context, weekday string) (*model.RosterEntry, error)
	Upsert(ctx context.Context, e *model.RosterEntry) error
	List(ctx context.Context) ([]model.RosterEntry, error)
}

type rosterRepo struct{ db *gorm.DB }

func NewRosterRepository(db *gorm.DB) RosterRepository { return &rosterRepo{db: db} }

func (r *rosterRepo) Find(ctx context.Context, weekday string) (*model.RosterEntry, error) {
	var e model.RosterEntry
	err := r.db.WithContext(ctx).Where("weekday = ?", weekday).First(&e).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *rosterRepo) Upsert(ctx context.Context, e *model.RosterEntry) error {
	e.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "weekday"}},
		DoUpdates: clause.AssignmentColumns([]string{"morning_responsible", "afternoon_responsible", "updated_at"}),
	}).Create(e).Error
}

func (r *rosterRepo) List(ctx context.Context) ([]model.RosterEntry, error) {
	var entries []model.RosterEntry
	err := r.db.WithContext(ctx).Order("weekday ASC").Find(&entries).Error
	return entries, err
}
