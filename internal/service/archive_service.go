package service

import (
	"context"
	"errors"

	"github.com/nozzip/seccional/internal/dto"
	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/repository"
)

// ArchiveService is the read side of archived days.
type ArchiveService interface {
	List(ctx context.Context, page, limit int) (*dto.ArchiveListResponse, error)
	FindByDate(ctx context.Context, date string) (*ledger.ArchivedDay, error)
}

type archiveService struct {
	repo repository.ArchiveRepository
	cal  Calendar
}

func NewArchiveService(repo repository.ArchiveRepository, cal Calendar) ArchiveService {
	return &archiveService{repo: repo, cal: cal}
}

func (s *archiveService) List(ctx context.Context, page, limit int) (*dto.ArchiveListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 30
	}
	days, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, unavailable("list archives", err)
	}
	out := &dto.ArchiveListResponse{
		Data:       make([]ledger.ArchivedDay, 0, len(days)),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
	for _, d := range days {
		out.Data = append(out.Data, d.ToLedger())
	}
	return out, nil
}

func (s *archiveService) FindByDate(ctx context.Context, date string) (*ledger.ArchivedDay, error) {
	if _, _, err := s.cal.Bounds(date); err != nil {
		return nil, err
	}
	d, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, unavailable("load archive", err)
	}
	day := d.ToLedger()
	return &day, nil
}
