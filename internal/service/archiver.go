package service

import (
	"context"
	"time"

	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/model"
	"gorm.io/gorm"
)

// ArchiveSink is the append-only destination of archived days.
type ArchiveSink interface {
	InsertTx(tx *gorm.DB, day *model.ArchivedDay) error
}

// DayArchiver performs the terminal transition of a business day.
type DayArchiver struct {
	sink ArchiveSink
}

func NewDayArchiver(sink ArchiveSink) *DayArchiver {
	return &DayArchiver{sink: sink}
}

// Archive snapshots l, inserts the snapshot and only then marks l archived.
// When the insert fails the returned ledger is l unchanged, still ready to
// archive, and the error wraps ErrUnavailable.
func (a *DayArchiver) Archive(ctx context.Context, tx *gorm.DB, l ledger.Ledger, movements map[string]ledger.Movement, at time.Time) (ledger.ArchivedDay, ledger.Ledger, error) {
	day, err := ledger.BuildArchive(l, movements, at)
	if err != nil {
		return ledger.ArchivedDay{}, l, err
	}
	if err := ctx.Err(); err != nil {
		return ledger.ArchivedDay{}, l, err
	}
	if err := a.sink.InsertTx(tx, model.NewArchivedDay(day)); err != nil {
		return ledger.ArchivedDay{}, l, unavailable("archive insert", err)
	}
	next, err := ledger.MarkArchived(l, at)
	if err != nil {
		return ledger.ArchivedDay{}, l, err
	}
	return day, next, nil
}
