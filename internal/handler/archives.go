package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nozzip/seccional/internal/service"
)

type ArchivesHandler struct{ svc service.ArchiveService }

func NewArchivesHandler(svc service.ArchiveService) *ArchivesHandler {
	return &ArchivesHandler{svc: svc}
}

// List godoc
// @Summary Archived days, newest first
// @Tags archives
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page" default(1)
// @Param limit query int false "Page size" default(30)
// @Success 200 {object} dto.ArchiveListResponse
// @Router /v1/archives [get]
func (h *ArchivesHandler) List(c *gin.Context) {
	page, limit := pageParams(c, 30)
	resp, err := h.svc.List(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary One archived day
// @Tags archives
// @Produce json
// @Security BearerAuth
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} ledger.ArchivedDay
// @Failure 404 {object} apierror.APIError
// @Router /v1/archives/{date} [get]
func (h *ArchivesHandler) Get(c *gin.Context) {
	day, err := h.svc.FindByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}
