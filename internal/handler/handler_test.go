package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nozzip/seccional/internal/infra"
	"github.com/nozzip/seccional/internal/ledger"
	"github.com/nozzip/seccional/internal/repository"
	"github.com/nozzip/seccional/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	t      *testing.T
	now    time.Time
	engine *gin.Engine
}

// Friday 2024-05-10, 08:00 UTC.
var dayOne = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := infra.NewDatabase("sqlite://"+filepath.Join(t.TempDir(), "test.db"), true)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	e := &env{t: t, now: dayOne}
	cal := service.Calendar{Location: time.UTC, Now: func() time.Time { return e.now }}

	ledgers := repository.NewLedgerRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	invRepo := repository.NewInventoryRepository(db)
	rosRepo := repository.NewRosterRepository(db)
	arcRepo := repository.NewArchiveRepository(db)

	shifts := service.NewShiftService(service.ShiftConfig{
		Calendar:   cal,
		Layout:     []ledger.ShiftDef{{Name: "Morning"}, {Name: "Afternoon"}},
		DefaultDay: "default",
	}, service.ShiftDeps{
		Ledgers:      ledgers,
		Transactions: txRepo,
		Inventory:    invRepo,
		Roster:       rosRepo,
		Archives:     arcRepo,
	})

	shiftsH := NewShiftsHandler(shifts, nil)
	txH := NewTransactionsHandler(service.NewTransactionService(txRepo, nil, cal))
	invH := NewInventoryHandler(service.NewInventoryService(invRepo, nil))
	rosH := NewRosterHandler(service.NewRosterService(rosRepo, "default"))
	arcH := NewArchivesHandler(service.NewArchiveService(arcRepo, cal))

	r := gin.New()
	v1 := r.Group("/v1")
	v1.GET("/shifts/current", shiftsH.Current)
	v1.POST("/shifts/preview", shiftsH.Preview)
	v1.POST("/shifts/:id/close", shiftsH.Close)
	v1.POST("/shifts/handover", shiftsH.Handover)
	v1.POST("/shifts/archive", shiftsH.Archive)
	v1.GET("/shifts/ws", shiftsH.Stream)
	v1.GET("/transactions", txH.List)
	v1.POST("/transactions", txH.Register)
	v1.GET("/transactions/summary", txH.Summary)
	v1.GET("/inventory", invH.List)
	v1.PUT("/inventory", invH.Upsert)
	v1.GET("/inventory/movements", invH.Movements)
	v1.POST("/inventory/movements", invH.RecordMovement)
	v1.GET("/roster", rosH.List)
	v1.GET("/roster/:weekday", rosH.Get)
	v1.PUT("/roster/:weekday", rosH.Put)
	v1.GET("/archives", arcH.List)
	v1.GET("/archives/:date", arcH.Get)
	e.engine = r
	return e
}

func (e *env) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(e.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

// ── Shifts ───────────────────────────────────────────────────────────────────

func TestShifts_CurrentStartsTheDay(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodGet, "/v1/shifts/current", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "shift_one_open", body["state"])
	assert.Equal(t, true, body["can_close"])
	assert.Equal(t, false, body["can_archive"])
}

func TestShifts_FullDay(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/v1/shifts/current", nil).Code)

	e.now = e.now.Add(time.Hour)
	w := e.do(http.MethodPost, "/v1/transactions", map[string]any{
		"type": "income", "category": "bar", "amount": "5000", "payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	e.now = e.now.Add(30 * time.Minute)
	w = e.do(http.MethodPost, "/v1/shifts/preview", map[string]any{"declared_cash": "4800"})
	require.Equal(t, http.StatusOK, w.Code)
	preview := decode[map[string]any](t, w)
	assert.Equal(t, true, preview["note_suggested"])

	w = e.do(http.MethodPost, "/v1/shifts/1/close", map[string]any{"declared_cash": "5000"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "handover", decode[map[string]any](t, w)["state"])

	// Closing again is a precondition failure.
	w = e.do(http.MethodPost, "/v1/shifts/1/close", map[string]any{"declared_cash": "5000"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodPost, "/v1/shifts/archive", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	e.now = e.now.Add(30 * time.Minute)
	w = e.do(http.MethodPost, "/v1/shifts/handover", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shift_two_open", decode[map[string]any](t, w)["state"])

	e.now = e.now.Add(6 * time.Hour)
	w = e.do(http.MethodPost, "/v1/shifts/2/close", map[string]any{"declared_cash": "5000"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/v1/shifts/archive", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	day := decode[ledger.ArchivedDay](t, w)
	assert.Equal(t, "2024-05-10", day.Date)
	assert.Equal(t, "5000", day.TotalBalance.String())

	w = e.do(http.MethodGet, "/v1/archives/2024-05-10", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/v1/archives", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]any](t, w)["total"])
}

func TestShifts_CloseRequestErrors(t *testing.T) {
	e := newEnv(t)
	require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/v1/shifts/current", nil).Code)

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"bad id", "/v1/shifts/abc/close", map[string]any{"declared_cash": "1"}, http.StatusBadRequest},
		{"malformed json", "/v1/shifts/1/close", "{", http.StatusBadRequest},
		{"missing declared cash", "/v1/shifts/1/close", map[string]any{}, http.StatusUnprocessableEntity},
		{"negative declared cash", "/v1/shifts/1/close", map[string]any{"declared_cash": "-1"}, http.StatusUnprocessableEntity},
		{"negative stock count", "/v1/shifts/1/close", map[string]any{"declared_cash": "1", "stock_counts": map[string]int{"Water": -2}}, http.StatusUnprocessableEntity},
		{"unknown shift", "/v1/shifts/9/close", map[string]any{"declared_cash": "1"}, http.StatusNotFound},
		{"shift not open", "/v1/shifts/2/close", map[string]any{"declared_cash": "1"}, http.StatusConflict},
		// An empty drawer is a valid count.
		{"zero cash preview", "/v1/shifts/preview", map[string]any{"declared_cash": "0"}, http.StatusOK},
		{"zero cash close", "/v1/shifts/1/close", map[string]any{"declared_cash": "0"}, http.StatusOK},
		{"zero cash close again", "/v1/shifts/1/close", map[string]any{"declared_cash": "0"}, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := e.do(http.MethodPost, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}

	w := e.do(http.MethodPost, "/v1/shifts/1/close", map[string]any{})
	fields := decode[map[string]any](t, w)["fields"].(map[string]any)
	assert.Equal(t, "required", fields["DeclaredCash"])
}

func TestShifts_StreamDisabledWithoutHub(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/v1/shifts/ws", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

// ── Feeds ────────────────────────────────────────────────────────────────────

func TestTransactions(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPost, "/v1/transactions", map[string]any{
		"type": "refund", "category": "bar", "amount": "10", "payment_method": "cash",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(http.MethodPost, "/v1/transactions", map[string]any{
		"type": "expense", "category": "cleaning", "amount": "0", "payment_method": "cash",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(http.MethodPost, "/v1/transactions", map[string]any{
		"type": "expense", "category": "cleaning", "amount": "120.50", "payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(http.MethodGet, "/v1/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string]any](t, w)
	assert.Equal(t, "2024-05-10", list["date"])
	assert.EqualValues(t, 1, list["total"])

	w = e.do(http.MethodGet, "/v1/transactions?date=2024-05-09", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[map[string]any](t, w)["total"])

	assert.Equal(t, http.StatusUnprocessableEntity, e.do(http.MethodGet, "/v1/transactions?date=10/05/2024", nil).Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/v1/transactions/summary", nil).Code)
}

func TestInventory(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPut, "/v1/inventory", map[string]any{"product_name": "Water", "initial_stock": 10})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPost, "/v1/inventory/movements", map[string]any{"product_name": "Water", "kind": "exit", "quantity": 3})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 7, decode[map[string]any](t, w)["expected"])

	w = e.do(http.MethodPost, "/v1/inventory/movements", map[string]any{"product_name": "Soda", "kind": "entry", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodPost, "/v1/inventory/movements", map[string]any{"product_name": "Water", "kind": "loss", "quantity": 1})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(http.MethodGet, "/v1/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)

	w = e.do(http.MethodGet, "/v1/inventory/movements?product=Water&limit=abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[map[string]any](t, w)
	assert.EqualValues(t, 100, page["limit"])
	assert.EqualValues(t, 2, page["total"])
}

func TestRoster(t *testing.T) {
	e := newEnv(t)

	w := e.do(http.MethodPut, "/v1/roster/funday", map[string]any{"morning_responsible": "Ana"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = e.do(http.MethodPut, "/v1/roster/default", map[string]any{"morning_responsible": "Ana"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/v1/roster/Monday", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "Ana", got["morning_responsible"])
	assert.Equal(t, true, got["fallback"])

	w = e.do(http.MethodGet, "/v1/roster", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
}

func TestArchives_Errors(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/v1/archives/2024-05-01", nil).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, e.do(http.MethodGet, "/v1/archives/yesterday", nil).Code)
}

// ── Error mapping ────────────────────────────────────────────────────────────

func TestWriteError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      int
		retryable bool
	}{
		{"unavailable", fmt.Errorf("save ledger: %w: %w", service.ErrUnavailable, errors.New("dial tcp: refused")), http.StatusServiceUnavailable, true},
		{"version conflict", fmt.Errorf("save: %w", repository.ErrVersionConflict), http.StatusConflict, false},
		{"precondition", &ledger.PreconditionError{Op: "handover", State: ledger.StateShiftOneOpen, Err: ledger.ErrNotReadyForHandover}, http.StatusConflict, false},
		{"not found", repository.ErrNotFound, http.StatusNotFound, false},
		{"invalid", fmt.Errorf("%w: bad date", service.ErrInvalidInput), http.StatusUnprocessableEntity, false},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { writeError(c, tc.err) })
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tc.want, w.Code)
			body := decode[map[string]any](t, w)
			assert.Equal(t, tc.retryable, body["retryable"] == true)
			assert.NotContains(t, w.Body.String(), "dial tcp")
		})
	}
}
