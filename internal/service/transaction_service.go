package service

import (
	"context"
	"strings"

	"github.com/nozzip/seccional/internal/dto"
	"github.com/nozzip/seccional/internal/model"
	"github.com/nozzip/seccional/internal/reconcile"
	"github.com/nozzip/seccional/internal/repository"
	"github.com/rs/zerolog/log"
)

// TransactionService appends to and reads the front-desk transaction feed.
type TransactionService interface {
	Register(ctx context.Context, req dto.RegisterTransactionRequest) (*dto.TransactionResponse, error)
	// ListByDate lists a business date; an empty date means today.
	ListByDate(ctx context.Context, date string) (*dto.TransactionListResponse, error)
	Summary(ctx context.Context, date string) (*reconcile.DailySummary, error)
}

type transactionService struct {
	repo     repository.TransactionRepository
	notifier FeedNotifier
	cal      Calendar
}

func NewTransactionService(repo repository.TransactionRepository, notifier FeedNotifier, cal Calendar) TransactionService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &transactionService{repo: repo, notifier: notifier, cal: cal}
}

func (s *transactionService) Register(ctx context.Context, req dto.RegisterTransactionRequest) (*dto.TransactionResponse, error) {
	at := s.cal.now()
	if req.Date != nil {
		at = req.Date.UTC()
	}
	t := &model.Transaction{
		Date:          at,
		Type:          req.Type,
		Category:      strings.TrimSpace(req.Category),
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Description:   strings.TrimSpace(req.Description),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, unavailable("register transaction", err)
	}

	if err := s.notifier.Notify(ctx, FeedTransactions); err != nil {
		log.Warn().Err(err).Str("feed", FeedTransactions).Msg("feed notification failed")
	}
	resp := transactionToResponse(*t)
	return &resp, nil
}

func (s *transactionService) resolveDate(date string) string {
	if date == "" {
		return s.cal.Date(s.cal.now())
	}
	return date
}

func (s *transactionService) ListByDate(ctx context.Context, date string) (*dto.TransactionListResponse, error) {
	date = s.resolveDate(date)
	from, to, err := s.cal.Bounds(date)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, unavailable("list transactions", err)
	}
	out := &dto.TransactionListResponse{Date: date, Data: make([]dto.TransactionResponse, 0, len(txs)), Total: len(txs)}
	for _, t := range txs {
		out.Data = append(out.Data, transactionToResponse(t))
	}
	return out, nil
}

func (s *transactionService) Summary(ctx context.Context, date string) (*reconcile.DailySummary, error) {
	from, to, err := s.cal.Bounds(s.resolveDate(date))
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, unavailable("list transactions", err)
	}
	sum := reconcile.Summarize(txs, from, to)
	return &sum, nil
}

func transactionToResponse(t model.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:            t.ID.String(),
		Date:          t.Date,
		Type:          t.Type,
		Category:      t.Category,
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
		Description:   t.Description,
	}
}
