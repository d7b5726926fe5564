package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nozzip/seccional/internal/apierror"
	"github.com/nozzip/seccional/internal/dto"
	"github.com/nozzip/seccional/internal/middleware"
	"github.com/nozzip/seccional/internal/service"
)

// WSServer upgrades a request into an overview subscription.
type WSServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type ShiftsHandler struct {
	svc service.ShiftService
	ws  WSServer
}

func NewShiftsHandler(svc service.ShiftService, ws WSServer) *ShiftsHandler {
	return &ShiftsHandler{svc: svc, ws: ws}
}

// Current godoc
// @Summary Overview of the business day's ledger
// @Description Starts the business day on first access.
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ShiftOverview
// @Failure 503 {object} apierror.APIError
// @Router /v1/shifts/current [get]
func (h *ShiftsHandler) Current(c *gin.Context) {
	ov, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}

// Preview godoc
// @Summary Evaluates a count against the open shift without closing it
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseShiftRequest true "Physical count"
// @Success 200 {object} dto.ClosePreview
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/shifts/preview [post]
func (h *ShiftsHandler) Preview(c *gin.Context) {
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Preview(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary Closes the open shift with the declared count
// @Tags shifts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Shift id"
// @Param body body dto.CloseShiftRequest true "Physical count"
// @Success 200 {object} dto.CloseResult
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/shifts/{id}/close [post]
func (h *ShiftsHandler) Close(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, apierror.New("invalid shift id"))
		return
	}
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Handover godoc
// @Summary Opens the next shift with the previous count as its opening
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.HandoverResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/shifts/handover [post]
func (h *ShiftsHandler) Handover(c *gin.Context) {
	resp, err := h.svc.Handover(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Archive godoc
// @Summary Archives the business day once every shift is closed
// @Tags shifts
// @Produce json
// @Security BearerAuth
// @Success 201 {object} ledger.ArchivedDay
// @Failure 409 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/shifts/archive [post]
func (h *ShiftsHandler) Archive(c *gin.Context) {
	day, err := h.svc.Archive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, day)
}

// Stream godoc
// @Summary Websocket stream of shift overviews
// @Description Pass the token as ?token= when the client cannot set headers.
// @Tags shifts
// @Security BearerAuth
// @Router /v1/shifts/ws [get]
func (h *ShiftsHandler) Stream(c *gin.Context) {
	if h.ws == nil {
		c.JSON(http.StatusNotImplemented, apierror.New("realtime updates are disabled"))
		return
	}
	h.ws.ServeWS(c.Writer, c.Request)
	// Push the current state so the new subscriber does not wait for a change.
	if err := h.svc.Refresh(c.Request.Context()); err != nil {
		middleware.RequestLogger(c).Warn().Err(err).Msg("initial overview push failed")
	}
}
