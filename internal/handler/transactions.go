package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nozzip/seccional/internal/dto"
	"github.com/nozzip/seccional/internal/service"
)

type TransactionsHandler struct{ svc service.TransactionService }

func NewTransactionsHandler(svc service.TransactionService) *TransactionsHandler {
	return &TransactionsHandler{svc: svc}
}

// Register godoc
// @Summary Registers an income or expense
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegisterTransactionRequest true "Transaction"
// @Success 201 {object} dto.TransactionResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/transactions [post]
func (h *TransactionsHandler) Register(c *gin.Context) {
	var req dto.RegisterTransactionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Lists the transactions of a business date
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} dto.TransactionListResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/transactions [get]
func (h *TransactionsHandler) List(c *gin.Context) {
	resp, err := h.svc.ListByDate(c.Request.Context(), c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary Income and expense totals of a business date
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} reconcile.DailySummary
// @Router /v1/transactions/summary [get]
func (h *TransactionsHandler) Summary(c *gin.Context) {
	resp, err := h.svc.Summary(c.Request.Context(), c.Query("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
