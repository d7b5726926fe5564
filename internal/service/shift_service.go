package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nozzip/seccional/internal/dto"
	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/model"
	"github.com/nozzip/seccional/internal/reconcile"
	"github.com/nozzip/seccional/internal/repository"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ShiftService owns the ledger of the business day. Transitions are
// serialized by a mutex and persisted with an optimistic version check, so
// two instances sharing a database cannot both apply the same transition.
type ShiftService interface {
	Current(ctx context.Context) (ledger.Ledger, error)
	Overview(ctx context.Context) (*dto.ShiftOverview, error)
	Preview(ctx context.Context, req dto.CloseShiftRequest) (*dto.ClosePreview, error)
	Close(ctx context.Context, shiftID int, req dto.CloseShiftRequest) (*dto.CloseResult, error)
	Handover(ctx context.Context) (*dto.HandoverResponse, error)
	Archive(ctx context.Context) (*ledger.ArchivedDay, error)
	// Refresh recomputes the overview and pushes it to subscribers. Called by
	// the feed adapter whenever transactions or inventory change.
	Refresh(ctx context.Context) error
}

// ShiftConfig is the fixed layout of a business day.
type ShiftConfig struct {
	Calendar   Calendar
	Layout     []ledger.ShiftDef
	DefaultDay string
}

// ShiftDeps groups the collaborators of ShiftService. Mirror and Broadcaster
// are optional.
type ShiftDeps struct {
	Ledgers      repository.LedgerRepository
	Transactions repository.TransactionRepository
	Inventory    repository.InventoryRepository
	Roster       repository.RosterRepository
	Archives     repository.ArchiveRepository
	Mirror       ArchiveMirror
	Broadcaster  Broadcaster
}

type shiftService struct {
	mu sync.Mutex

	cal        Calendar
	layout     []ledger.ShiftDef
	defaultDay string

	ledgers     repository.LedgerRepository
	txs         repository.TransactionRepository
	inventory   repository.InventoryRepository
	roster      repository.RosterRepository
	archives    repository.ArchiveRepository
	archiver    *DayArchiver
	mirror      ArchiveMirror
	broadcaster Broadcaster
}

func NewShiftService(cfg ShiftConfig, deps ShiftDeps) ShiftService {
	return &shiftService{
		cal:         cfg.Calendar,
		layout:      cfg.Layout,
		defaultDay:  rosterKey(cfg.DefaultDay),
		ledgers:     deps.Ledgers,
		txs:         deps.Transactions,
		inventory:   deps.Inventory,
		roster:      deps.Roster,
		archives:    deps.Archives,
		archiver:    NewDayArchiver(deps.Archives),
		mirror:      deps.Mirror,
		broadcaster: deps.Broadcaster,
	}
}

// ── Loading ──────────────────────────────────────────────────────────────────

// active returns the ledger to work on: the latest one not yet archived, or
// today's archived ledger, or a freshly started day. Caller holds s.mu.
func (s *shiftService) active(ctx context.Context) (*model.LedgerRecord, error) {
	rec, err := s.ledgers.FindActive(ctx)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, unavailable("load ledger", err)
	}

	now := s.cal.now()
	date := s.cal.Date(now)
	rec, err = s.ledgers.FindByDate(ctx, date)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, unavailable("load ledger", err)
	}
	return s.startDay(ctx, date, now)
}

func (s *shiftService) startDay(ctx context.Context, date string, now time.Time) (*model.LedgerRecord, error) {
	opening := decimal.Zero
	last, err := s.archives.Latest(ctx)
	switch {
	case err == nil:
		opening = closingCash(*last)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, unavailable("load last archive", err)
	}

	entry, _, err := resolveRoster(ctx, s.roster, s.cal.Weekday(now), s.defaultDay)
	if err != nil {
		return nil, err
	}

	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, unavailable("load inventory", err)
	}

	l, err := ledger.New(date, s.layout, entry.Responsibles(), opening, reconcile.InitialStock(items), now)
	if err != nil {
		return nil, err
	}

	rec, err := s.ledgers.CreateTx(s.ledgers.DB().WithContext(ctx), l)
	if err != nil {
		// Another instance may have started the same date first.
		if existing, findErr := s.ledgers.FindByDate(ctx, date); findErr == nil {
			return existing, nil
		}
		return nil, unavailable("start day", err)
	}

	log.Info().
		Str("business_date", date).
		Str("opening_cash", opening.String()).
		Strs("responsibles", entry.Responsibles()).
		Msg("business day started")
	return rec, nil
}

// closingCash is the cash physically on hand when the day was archived.
func closingCash(d model.ArchivedDay) decimal.Decimal {
	if n := len(d.Shifts); n > 0 && d.Shifts[n-1].RealCash != nil {
		return *d.Shifts[n-1].RealCash
	}
	return d.TotalBalance
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *shiftService) Current(ctx context.Context) (ledger.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.active(ctx)
	if err != nil {
		return ledger.Ledger{}, err
	}
	return ledger.Clone(rec.Payload), nil
}

func (s *shiftService) Overview(ctx context.Context) (*dto.ShiftOverview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	return s.overview(ctx, rec.Payload)
}

// openShiftTxs fetches the transactions that can fall in the open shift's window.
func (s *shiftService) openShiftTxs(ctx context.Context, l ledger.Ledger) (ledger.Shift, []model.Transaction, bool, error) {
	open, ok := ledger.OpenShift(l)
	if !ok || open.OpenedAt == nil {
		return open, nil, ok, nil
	}
	txs, err := s.txs.ListSince(ctx, *open.OpenedAt)
	if err != nil {
		return open, nil, ok, unavailable("load transactions", err)
	}
	return open, txs, true, nil
}

func (s *shiftService) overview(ctx context.Context, l ledger.Ledger) (*dto.ShiftOverview, error) {
	_, txs, _, err := s.openShiftTxs(ctx, l)
	if err != nil {
		return nil, err
	}
	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, unavailable("load inventory", err)
	}

	now := s.cal.now()
	state := ledger.DeriveState(l)
	ov := &dto.ShiftOverview{
		Ledger:      ledger.Clone(l),
		State:       state,
		CanClose:    state.CanClose(),
		CanHandover: state.CanHandover(),
		CanArchive:  state.CanArchive(),
		Cash:        make([]dto.ShiftCash, 0, len(l.Shifts)),
		Inventory:   make([]dto.StockLevel, 0, len(items)),
		GeneratedAt: now,
	}
	for _, sh := range l.Shifts {
		ov.Cash = append(ov.Cash, shiftCash(sh, txs, now))
	}
	for _, it := range items {
		ov.Inventory = append(ov.Inventory, stockLevel(it))
	}
	return ov, nil
}

func shiftCash(sh ledger.Shift, txs []model.Transaction, now time.Time) dto.ShiftCash {
	c := dto.ShiftCash{
		ID:         sh.ID,
		Name:       sh.Name,
		Status:     sh.Status,
		Income:     sh.SystemIncome,
		Expense:    sh.SystemExpense,
		RealCash:   sh.RealCash,
		Difference: sh.Difference,
	}
	if sh.Status == ledger.StatusOpen {
		c.Income, c.Expense = reconcile.CashTotals(sh, txs, now)
		c.Live = true
	}
	c.Expected = sh.OpeningCash.Add(c.Income).Sub(c.Expense)
	return c
}

func stockLevel(it model.InventoryItem) dto.StockLevel {
	return dto.StockLevel{
		ProductName:  it.ProductName,
		InitialStock: it.InitialStock,
		Entries:      it.Entries,
		Exits:        it.Exits,
		Expected:     reconcile.ExpectedStock(it),
	}
}

// ── Preview ──────────────────────────────────────────────────────────────────

func (s *shiftService) Preview(ctx context.Context, req dto.CloseShiftRequest) (*dto.ClosePreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	l := rec.Payload

	open, txs, ok, err := s.openShiftTxs(ctx, l)
	if err != nil {
		return nil, err
	}
	if !ok {
		cause := ledger.ErrShiftNotOpen
		if l.Archived {
			cause = ledger.ErrLedgerArchived
		}
		return nil, &ledger.PreconditionError{Op: "preview", State: ledger.DeriveState(l), Err: cause}
	}
	if req.DeclaredCash == nil {
		return nil, &ledger.PreconditionError{Op: "preview", State: ledger.DeriveState(l), Err: ledger.ErrCashNotDeclared}
	}

	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, unavailable("load inventory", err)
	}

	cash := reconcile.EvaluateCount(reconcile.ExpectedCash(open, txs, s.cal.now()), *req.DeclaredCash)
	p := &dto.ClosePreview{
		ShiftID:    open.ID,
		Cash:       cash,
		Stock:      stockEvaluations(items, req.StockCounts),
		Mismatches: mismatchNames(reconcile.DetectMismatches(items, req.StockCounts)),
	}
	p.NoteSuggested = len(p.Mismatches) > 0 || cash.Status != reconcile.Balanced
	return p, nil
}

func stockEvaluations(items []model.InventoryItem, counts map[string]int) []dto.StockEvaluation {
	out := make([]dto.StockEvaluation, 0, len(counts))
	for _, it := range items {
		declared, ok := counts[it.ProductName]
		if !ok {
			continue
		}
		expected := reconcile.ExpectedStock(it)
		ev := reconcile.EvaluateStock(expected, declared)
		out = append(out, dto.StockEvaluation{
			ProductName: it.ProductName,
			Expected:    expected,
			Declared:    declared,
			Difference:  declared - expected,
			Status:      ev.Status,
		})
	}
	return out
}

func mismatchNames(items []model.InventoryItem) []string {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.ProductName)
	}
	return names
}

// unknownProducts lists declared names with no inventory row; they do not
// enter the snapshot.
func unknownProducts(items []model.InventoryItem, counts map[string]int) []string {
	known := make(map[string]struct{}, len(items))
	for _, it := range items {
		known[it.ProductName] = struct{}{}
	}
	var out []string
	for name := range counts {
		if _, ok := known[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ── Transitions ──────────────────────────────────────────────────────────────

func (s *shiftService) Close(ctx context.Context, shiftID int, req dto.CloseShiftRequest) (*dto.CloseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	l := rec.Payload

	// Totals are frozen from the open shift's window, ending now.
	now := s.cal.now()
	var income, expense decimal.Decimal
	if idx, ok := ledger.FindShift(l, shiftID); ok && l.Shifts[idx].Status == ledger.StatusOpen {
		open := l.Shifts[idx]
		var txs []model.Transaction
		if open.OpenedAt != nil {
			txs, err = s.txs.ListSince(ctx, *open.OpenedAt)
			if err != nil {
				return nil, unavailable("load transactions", err)
			}
		}
		income, expense = reconcile.CashTotals(open, txs, now)
	}

	items, err := s.inventory.List(ctx)
	if err != nil {
		return nil, unavailable("load inventory", err)
	}

	next, err := ledger.Close(l, shiftID, ledger.CloseInput{
		DeclaredCash:  req.DeclaredCash,
		Income:        income,
		Expense:       expense,
		StockSnapshot: reconcile.SnapshotStock(items, req.StockCounts),
		Notes:         req.Notes,
		ClosedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	if err := runTx(ctx, s.ledgers.DB(), func(tx *gorm.DB) error {
		return s.ledgers.SaveTx(tx, rec, next)
	}); err != nil {
		return nil, storeErr("close shift", err)
	}

	idx, _ := ledger.FindShift(next, shiftID)
	closed := next.Shifts[idx]
	expected := closed.OpeningCash.Add(closed.SystemIncome).Sub(closed.SystemExpense)
	cash := reconcile.EvaluateCount(expected, *closed.RealCash)

	res := &dto.CloseResult{
		Ledger:     next,
		State:      ledger.DeriveState(next),
		Shift:      closed,
		Cash:       cash,
		Mismatches: mismatchNames(reconcile.DetectMismatches(items, req.StockCounts)),
	}
	res.Warnings = closeWarnings(items, req, res.Mismatches, cash)

	log.Info().
		Str("business_date", next.BusinessDate).
		Int("shift_id", shiftID).
		Str("expected", expected.String()).
		Str("real_cash", closed.RealCash.String()).
		Str("difference", closed.Difference.String()).
		Int("mismatches", len(res.Mismatches)).
		Msg("shift closed")

	s.publish(ctx, next)
	return res, nil
}

func closeWarnings(items []model.InventoryItem, req dto.CloseShiftRequest, mismatches []string, cash reconcile.Evaluation) []string {
	warnings := make([]string, 0)
	if cash.Status != reconcile.Balanced {
		warnings = append(warnings, fmt.Sprintf("cash %s of %s", cash.Status, cash.Difference.Abs().String()))
	}
	byName := make(map[string]model.InventoryItem, len(items))
	for _, it := range items {
		byName[it.ProductName] = it
	}
	for _, name := range mismatches {
		warnings = append(warnings, fmt.Sprintf("stock mismatch for %s: declared %d, expected %d",
			name, req.StockCounts[name], reconcile.ExpectedStock(byName[name])))
	}
	for _, name := range unknownProducts(items, req.StockCounts) {
		warnings = append(warnings, fmt.Sprintf("count for unknown product %s was ignored", name))
	}
	if len(warnings) > 0 && req.Notes == "" {
		warnings = append(warnings, "consider leaving a note explaining the difference")
	}
	return warnings
}

func (s *shiftService) Handover(ctx context.Context) (*dto.HandoverResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	l := rec.Payload

	next, transferred, err := ledger.Handover(l)
	if err != nil {
		return nil, err
	}

	// The inventory rebase commits or rolls back together with the ledger.
	if err := runTx(ctx, s.ledgers.DB(), func(tx *gorm.DB) error {
		if err := s.inventory.RebaseTx(tx, l.BusinessDate, transferred); err != nil {
			return fmt.Errorf("inventory rebase: %w", err)
		}
		return s.ledgers.SaveTx(tx, rec, next)
	}); err != nil {
		return nil, storeErr("handover", err)
	}

	open, _ := ledger.OpenShift(next)
	log.Info().
		Str("business_date", next.BusinessDate).
		Int("shift_id", open.ID).
		Str("opening_cash", open.OpeningCash.String()).
		Int("products", len(transferred)).
		Msg("handover")

	s.publish(ctx, next)
	return &dto.HandoverResponse{Ledger: next, State: ledger.DeriveState(next), Transferred: transferred}, nil
}

func (s *shiftService) Archive(ctx context.Context) (*ledger.ArchivedDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	l := rec.Payload
	if _, err := ledger.BuildArchive(l, nil, s.cal.now()); err != nil {
		return nil, err
	}

	from, to, err := s.cal.Bounds(l.BusinessDate)
	if err != nil {
		return nil, err
	}
	txs, err := s.txs.ListBetween(ctx, from, to)
	if err != nil {
		return nil, unavailable("load transactions", err)
	}
	movements := reconcile.MovementsByAccount(txs)

	var day ledger.ArchivedDay
	now := s.cal.now()
	err = runTx(ctx, s.ledgers.DB(), func(tx *gorm.DB) error {
		d, next, err := s.archiver.Archive(ctx, tx, l, movements, now)
		if err != nil {
			return err
		}
		if err := s.ledgers.SaveTx(tx, rec, next); err != nil {
			return err
		}
		day = d
		return nil
	})
	if err != nil {
		return nil, storeErr("archive", err)
	}

	log.Info().
		Str("business_date", day.Date).
		Str("total_balance", day.TotalBalance.String()).
		Int("accounts", len(day.Movements)).
		Msg("day archived")

	if s.mirror != nil {
		if err := s.mirror.Mirror(ctx, day); err != nil {
			log.Warn().Err(err).Str("business_date", day.Date).Msg("archive mirror failed")
		}
	}

	s.publish(ctx, rec.Payload)
	return &day, nil
}

// ── Refresh ──────────────────────────────────────────────────────────────────

func (s *shiftService) Refresh(ctx context.Context) error {
	if s.broadcaster == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.active(ctx)
	if err != nil {
		return err
	}
	ov, err := s.overview(ctx, rec.Payload)
	if err != nil {
		return err
	}
	s.broadcaster.Broadcast(ov)
	return nil
}

// publish pushes the overview after a transition. Failures are logged only;
// the transition is already committed. Caller holds s.mu.
func (s *shiftService) publish(ctx context.Context, l ledger.Ledger) {
	if s.broadcaster == nil {
		return
	}
	ov, err := s.overview(ctx, l)
	if err != nil {
		log.Warn().Err(err).Str("business_date", l.BusinessDate).Msg("overview broadcast skipped")
		return
	}
	s.broadcaster.Broadcast(ov)
}

// storeErr keeps precondition, conflict and already classified errors and
// marks everything else as a store failure.
func storeErr(op string, err error) error {
	switch {
	case ledger.IsPrecondition(err), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, repository.ErrVersionConflict):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return unavailable(op, err)
	}
}
