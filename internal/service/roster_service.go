package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nozzip/seccional/internal/dto"
	"github.com/nozzip/seccional/internal/model"
	"github.com/nozzip/seccional/internal/repository"
)

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// RosterService manages who is on duty for each weekday.
type RosterService interface {
	// Get resolves the weekday entry, falling back to the default day and
	// then to empty names. It never fails on a missing entry.
	Get(ctx context.Context, weekday string) (*dto.RosterResponse, error)
	Put(ctx context.Context, weekday string, req dto.PutRosterRequest) (*dto.RosterResponse, error)
	List(ctx context.Context) ([]dto.RosterResponse, error)
}

type rosterService struct {
	repo       repository.RosterRepository
	defaultDay string
}

func NewRosterService(repo repository.RosterRepository, defaultDay string) RosterService {
	return &rosterService{repo: repo, defaultDay: rosterKey(defaultDay)}
}

func (s *rosterService) validDay(day string) bool {
	if day == s.defaultDay && day != "" {
		return true
	}
	for _, d := range weekdays {
		if d == day {
			return true
		}
	}
	return false
}

func (s *rosterService) Get(ctx context.Context, weekday string) (*dto.RosterResponse, error) {
	day := rosterKey(weekday)
	if !s.validDay(day) {
		return nil, invalid("unknown weekday %q", weekday)
	}
	e, fallback, err := resolveRoster(ctx, s.repo, day, s.defaultDay)
	if err != nil {
		return nil, err
	}
	resp := rosterToResponse(e)
	resp.Weekday = day
	resp.Fallback = fallback
	return &resp, nil
}

func (s *rosterService) Put(ctx context.Context, weekday string, req dto.PutRosterRequest) (*dto.RosterResponse, error) {
	day := rosterKey(weekday)
	if !s.validDay(day) {
		return nil, invalid("unknown weekday %q", weekday)
	}
	e := &model.RosterEntry{
		Weekday:              day,
		MorningResponsible:   strings.TrimSpace(req.MorningResponsible),
		AfternoonResponsible: strings.TrimSpace(req.AfternoonResponsible),
	}
	if err := s.repo.Upsert(ctx, e); err != nil {
		return nil, unavailable("save roster", err)
	}
	resp := rosterToResponse(*e)
	return &resp, nil
}

func (s *rosterService) List(ctx context.Context) ([]dto.RosterResponse, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, unavailable("list roster", err)
	}
	out := make([]dto.RosterResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, rosterToResponse(e))
	}
	return out, nil
}

// rosterKey is the stored form of a roster day.
func rosterKey(day string) string { return strings.ToLower(strings.TrimSpace(day)) }

// resolveRoster looks up weekday, then defaultDay. The bool reports whether
// the weekday itself had no entry.
func resolveRoster(ctx context.Context, repo repository.RosterRepository, weekday, defaultDay string) (model.RosterEntry, bool, error) {
	for i, day := range []string{weekday, defaultDay} {
		if day == "" {
			continue
		}
		e, err := repo.Find(ctx, day)
		if err == nil {
			return *e, i > 0, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return model.RosterEntry{}, false, unavailable("load roster", err)
		}
	}
	return model.RosterEntry{Weekday: weekday}, true, nil
}

func rosterToResponse(e model.RosterEntry) dto.RosterResponse {
	return dto.RosterResponse{
		Weekday:              e.Weekday,
		MorningResponsible:   e.MorningResponsible,
		AfternoonResponsible: e.AfternoonResponsible,
	}
}
