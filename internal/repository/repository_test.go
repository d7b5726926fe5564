package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nozzip/seccional/internal/infra"
	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := infra.NewDatabase("sqlite://"+filepath.Join(t.TempDir(), "test.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var t0 = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

// ── Transactions ─────────────────────────────────────────────────────────────

func TestTransactionRepo_ListBetweenIsHalfOpen(t *testing.T) {
	repo := NewTransactionRepository(newTestDB(t))
	ctx := context.Background()

	for i, at := range []time.Time{t0.Add(-time.Minute), t0, t0.Add(time.Hour), t0.Add(2 * time.Hour)} {
		require.NoError(t, repo.Create(ctx, &model.Transaction{
			Date:          at,
			Type:          model.TypeIncome,
			Category:      "bar",
			Amount:        decimal.NewFromInt(int64(100 * (i + 1))),
			PaymentMethod: model.PaymentCash,
		}))
	}

	txs, err := repo.ListBetween(ctx, t0, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "200", txs[0].Amount.String())
	assert.Equal(t, "300", txs[1].Amount.String())

	since, err := repo.ListSince(ctx, t0)
	require.NoError(t, err)
	assert.Len(t, since, 3)
}

// ── Inventory ────────────────────────────────────────────────────────────────

func TestInventoryRepo_MovementsAndRebase(t *testing.T) {
	repo := NewInventoryRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.SetInitialStock(ctx, "Water", 12, "opening count")
	require.NoError(t, err)
	_, err = repo.SetInitialStock(ctx, "Soda", 5, "opening count")
	require.NoError(t, err)

	it, err := repo.ApplyMovement(ctx, "Water", model.MovementExit, 3, "sold")
	require.NoError(t, err)
	assert.Equal(t, 3, it.Exits)
	_, err = repo.ApplyMovement(ctx, "Soda", model.MovementEntry, 2, "delivery")
	require.NoError(t, err)

	_, err = repo.ApplyMovement(ctx, "Ghost", model.MovementEntry, 1, "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.ApplyMovement(ctx, "Water", model.MovementExit, 0, "")
	assert.Error(t, err)

	err = repo.DB().Transaction(func(tx *gorm.DB) error {
		return repo.RebaseTx(tx, "2024-05-10", []ledger.StockLine{{ProductName: "Water", Quantity: 10}})
	})
	require.NoError(t, err)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Soda was not in the snapshot, so it keeps its own expected stock.
	assert.Equal(t, model.InventoryItem{ProductName: "Soda", InitialStock: 7}, stripTime(items[0]))
	assert.Equal(t, model.InventoryItem{ProductName: "Water", InitialStock: 10}, stripTime(items[1]))

	movs, total, err := repo.ListMovements(ctx, MovementFilter{ProductName: "Water", Kind: model.MovementRebase})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.NotNil(t, movs[0].BusinessDate)
	assert.Equal(t, "2024-05-10", *movs[0].BusinessDate)
	assert.Equal(t, 9, movs[0].StockBefore)
	assert.Equal(t, 10, movs[0].StockAfter)
}

func stripTime(it model.InventoryItem) model.InventoryItem {
	it.UpdatedAt = time.Time{}
	return it
}

func TestInventoryRepo_SetInitialStockKeepsCounters(t *testing.T) {
	repo := NewInventoryRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.SetInitialStock(ctx, "Water", 4, "")
	require.NoError(t, err)
	_, err = repo.ApplyMovement(ctx, "Water", model.MovementEntry, 6, "")
	require.NoError(t, err)

	it, err := repo.SetInitialStock(ctx, "Water", 1, "recount")
	require.NoError(t, err)
	assert.Equal(t, 1, it.InitialStock)
	assert.Equal(t, 6, it.Entries)
}

// ── Roster ───────────────────────────────────────────────────────────────────

func TestRosterRepo_Upsert(t *testing.T) {
	repo := NewRosterRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Find(ctx, "monday")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Upsert(ctx, &model.RosterEntry{Weekday: "monday", MorningResponsible: "Ana", AfternoonResponsible: "Luis"}))
	require.NoError(t, repo.Upsert(ctx, &model.RosterEntry{Weekday: "monday", MorningResponsible: "Carla", AfternoonResponsible: "Luis"}))

	e, err := repo.Find(ctx, "monday")
	require.NoError(t, err)
	assert.Equal(t, []string{"Carla", "Luis"}, e.Responsibles())

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// ── Ledgers ──────────────────────────────────────────────────────────────────

func sampleLedger(t *testing.T, date string) ledger.Ledger {
	t.Helper()
	l, err := ledger.New(date,
		[]ledger.ShiftDef{{Name: "Morning"}, {Name: "Afternoon"}},
		[]string{"Ana", "Luis"},
		decimal.NewFromInt(10000),
		[]ledger.StockLine{{ProductName: "Water", Quantity: 10}},
		t0)
	require.NoError(t, err)
	return l
}

func TestLedgerRepo_VersionCheck(t *testing.T) {
	db := newTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	l := sampleLedger(t, "2024-05-10")
	rec, err := repo.CreateTx(db, l)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, string(ledger.StateShiftOneOpen), rec.State)

	stale := *rec

	declared := decimal.NewFromInt(13500)
	closed, err := ledger.Close(l, 1, ledger.CloseInput{DeclaredCash: &declared, ClosedAt: t0.Add(6 * time.Hour)})
	require.NoError(t, err)
	require.NoError(t, repo.SaveTx(db, rec, closed))
	assert.Equal(t, 2, rec.Version)

	err = repo.SaveTx(db, &stale, closed)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, err := repo.FindByDate(ctx, "2024-05-10")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, string(ledger.StateHandover), got.State)
	assert.Equal(t, ledger.StatusClosed, got.Payload.Shifts[0].Status)
	assert.Equal(t, "13500", got.Payload.Shifts[0].RealCash.String())
}

func TestLedgerRepo_FindActiveSkipsArchived(t *testing.T) {
	db := newTestDB(t)
	repo := NewLedgerRepository(db)
	ctx := context.Background()

	_, err := repo.FindActive(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	old := sampleLedger(t, "2024-05-09")
	old.Archived = true
	_, err = repo.CreateTx(db, old)
	require.NoError(t, err)
	_, err = repo.FindActive(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.CreateTx(db, sampleLedger(t, "2024-05-10"))
	require.NoError(t, err)
	got, err := repo.FindActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", got.BusinessDate)
}

// ── Archived days ────────────────────────────────────────────────────────────

func TestArchiveRepo_InsertOnlyOncePerDate(t *testing.T) {
	db := newTestDB(t)
	repo := NewArchiveRepository(db)
	ctx := context.Background()

	day := ledger.ArchivedDay{
		Date:         "2024-05-10",
		TotalBalance: decimal.NewFromInt(9000),
		Shifts:       sampleLedger(t, "2024-05-10").Shifts,
		Movements:    map[string]ledger.Movement{"bar": {Income: decimal.NewFromInt(5000), Expense: decimal.Zero}},
		ArchivedAt:   t0.Add(14 * time.Hour),
	}
	require.NoError(t, repo.InsertTx(db, model.NewArchivedDay(day)))
	assert.Error(t, repo.InsertTx(db, model.NewArchivedDay(day)))

	earlier := day
	earlier.Date = "2024-05-09"
	earlier.TotalBalance = decimal.NewFromInt(100)
	require.NoError(t, repo.InsertTx(db, model.NewArchivedDay(earlier)))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-10", latest.Date)
	assert.Equal(t, "9000", latest.TotalBalance.String())
	assert.Equal(t, "5000", latest.ToLedger().Movements["bar"].Income.String())

	days, total, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-05-10", days[0].Date)

	_, err = repo.FindByDate(ctx, "2024-01-01")
	assert.ErrorIs(t, err, ErrNotFound)
}
