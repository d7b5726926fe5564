package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nozzip/seccional/internal/dto"
	"github.com/nozzip/seccional/internal/model"
	"github.com/nozzip/seccional/internal/repository"
	"github.com/rs/zerolog/log"
)

// InventoryService is the inventory feed: per-product counters relative to
// the open shift.
type InventoryService interface {
	List(ctx context.Context) ([]dto.StockLevel, error)
	Upsert(ctx context.Context, req dto.UpsertInventoryRequest) (*dto.StockLevel, error)
	RecordMovement(ctx context.Context, req dto.InventoryMovementRequest) (*dto.StockLevel, error)
	Movements(ctx context.Context, filter repository.MovementFilter) (*dto.InventoryMovementListResponse, error)
}

type inventoryService struct {
	repo     repository.InventoryRepository
	notifier FeedNotifier
}

func NewInventoryService(repo repository.InventoryRepository, notifier FeedNotifier) InventoryService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &inventoryService{repo: repo, notifier: notifier}
}

func (s *inventoryService) List(ctx context.Context) ([]dto.StockLevel, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, unavailable("list inventory", err)
	}
	out := make([]dto.StockLevel, 0, len(items))
	for _, it := range items {
		out = append(out, stockLevel(it))
	}
	return out, nil
}

func (s *inventoryService) Upsert(ctx context.Context, req dto.UpsertInventoryRequest) (*dto.StockLevel, error) {
	reason := req.Reason
	if reason == "" {
		reason = "manual count"
	}
	it, err := s.repo.SetInitialStock(ctx, strings.TrimSpace(req.ProductName), req.InitialStock, reason)
	if err != nil {
		return nil, unavailable("set initial stock", err)
	}
	s.notify(ctx)
	lvl := stockLevel(*it)
	return &lvl, nil
}

func (s *inventoryService) RecordMovement(ctx context.Context, req dto.InventoryMovementRequest) (*dto.StockLevel, error) {
	it, err := s.repo.ApplyMovement(ctx, strings.TrimSpace(req.ProductName), req.Kind, req.Quantity, req.Reason)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, unavailable("record movement", err)
	}
	s.notify(ctx)
	lvl := stockLevel(*it)
	return &lvl, nil
}

func (s *inventoryService) Movements(ctx context.Context, filter repository.MovementFilter) (*dto.InventoryMovementListResponse, error) {
	movs, total, err := s.repo.ListMovements(ctx, filter)
	if err != nil {
		return nil, unavailable("list movements", err)
	}
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	out := &dto.InventoryMovementListResponse{
		Data:       make([]dto.InventoryMovementResponse, 0, len(movs)),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
	for _, m := range movs {
		out.Data = append(out.Data, movementToResponse(m))
	}
	return out, nil
}

func (s *inventoryService) notify(ctx context.Context) {
	if err := s.notifier.Notify(ctx, FeedInventory); err != nil {
		log.Warn().Err(err).Str("feed", FeedInventory).Msg("feed notification failed")
	}
}

func movementToResponse(m model.InventoryMovement) dto.InventoryMovementResponse {
	return dto.InventoryMovementResponse{
		ID:           m.ID.String(),
		ProductName:  m.ProductName,
		Kind:         m.Kind,
		Quantity:     m.Quantity,
		StockBefore:  m.StockBefore,
		StockAfter:   m.StockAfter,
		Reason:       m.Reason,
		BusinessDate: m.BusinessDate,
		CreatedAt:    m.CreatedAt,
	}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
