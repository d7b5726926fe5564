package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nozzip/seccional/internal/dto"
	"github.com/nozzip/seccional/internal/service"
)

type RosterHandler struct{ svc service.RosterService }

func NewRosterHandler(svc service.RosterService) *RosterHandler {
	return &RosterHandler{svc: svc}
}

// List godoc
// @Summary Stored roster entries
// @Tags roster
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.RosterResponse
// @Router /v1/roster [get]
func (h *RosterHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Responsibles for a weekday, with default-day fallback
// @Tags roster
// @Produce json
// @Security BearerAuth
// @Param weekday path string true "monday … sunday or the default key"
// @Success 200 {object} dto.RosterResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/roster/{weekday} [get]
func (h *RosterHandler) Get(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("weekday"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Put godoc
// @Summary Sets the responsibles of a weekday
// @Tags roster
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param weekday path string true "monday … sunday or the default key"
// @Param body body dto.PutRosterRequest true "Responsibles"
// @Success 200 {object} dto.RosterResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/roster/{weekday} [put]
func (h *RosterHandler) Put(c *gin.Context) {
	var req dto.PutRosterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Put(c.Request.Context(), c.Param("weekday"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
