package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nozzip/seccional/internal/dto"
	"github.com/nozzip/seccional/internal/repository"
	"github.com/nozzip/seccional/internal/service"
)

type InventoryHandler struct{ svc service.InventoryService }

func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// List godoc
// @Summary Stock levels relative to the open shift
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.StockLevel
// @Router /v1/inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Upsert godoc
// @Summary Creates a product or resets its initial stock
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.UpsertInventoryRequest true "Product"
// @Success 200 {object} dto.StockLevel
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/inventory [put]
func (h *InventoryHandler) Upsert(c *gin.Context) {
	var req dto.UpsertInventoryRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Upsert(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordMovement godoc
// @Summary Records a stock entry or exit
// @Tags inventory
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.InventoryMovementRequest true "Movement"
// @Success 201 {object} dto.StockLevel
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/inventory/movements [post]
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	var req dto.InventoryMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordMovement(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Movements godoc
// @Summary Paged stock movement history
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param product query string false "Product name"
// @Param kind query string false "entry, exit or rebase"
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(100)
// @Success 200 {object} dto.InventoryMovementListResponse
// @Router /v1/inventory/movements [get]
func (h *InventoryHandler) Movements(c *gin.Context) {
	page, limit := pageParams(c, 100)
	resp, err := h.svc.Movements(c.Request.Context(), repository.MovementFilter{
		ProductName: c.Query("product"),
		Kind:        c.Query("kind"),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
