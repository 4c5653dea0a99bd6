package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limpopochefs/academy-api/internal/models"
	"github.com/limpopochefs/academy-api/internal/service"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
	"github.com/limpopochefs/academy-api/pkg/response"
)

// ResultHandler exposes ledger and marking-progress endpoints.
type ResultHandler struct {
	results *service.ResultService
}

// NewResultHandler creates a new handler.
func NewResultHandler(results *service.ResultService) *ResultHandler {
	return &ResultHandler{results: results}
}

// Ledger godoc
// @Summary Get a ledger by its grouping key
// @Description One ledger per (campus, intakeGroup, outcome) triple
// @Tags Results
// @Produce json
// @Param campus query string true "Campus ID"
// @Param intakeGroup query string true "Intake group ID"
// @Param outcome query string true "Outcome ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/results [get]
func (h *ResultHandler) Ledger(c *gin.Context) {
	campusID := c.Query("campus")
	intakeGroupID := c.Query("intakeGroup")
	outcomeID := c.Query("outcome")
	if campusID == "" || intakeGroupID == "" || outcomeID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "campus, intakeGroup and outcome are required"))
		return
	}

	result, err := h.results.Ledger(c.Request.Context(), campusID, intakeGroupID, outcomeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListLedgers godoc
// @Summary List ledger heads for a campus
// @Tags Results
// @Produce json
// @Param id path string true "Campus ID"
// @Success 200 {object} response.Envelope
// @Router /admin/campuses/{id}/results [get]
func (h *ResultHandler) ListLedgers(c *gin.Context) {
	results, err := h.results.ListLedgers(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// SetEntryOutcome godoc
// @Summary Record a competency verdict on a ledger entry
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Result ID"
// @Param studentId path string true "Student ID"
// @Param payload body object true "Outcome payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/results/{id}/entries/{studentId}/outcome [put]
func (h *ResultHandler) SetEntryOutcome(c *gin.Context) {
	var payload struct {
		Outcome models.OverallOutcome `json:"overallOutcome" binding:"required"`
		Notes   string                `json:"notes"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid outcome payload"))
		return
	}

	if err := h.results.SetEntryOutcome(c.Request.Context(), c.Param("id"), c.Param("studentId"), payload.Outcome, payload.Notes); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkingProgress godoc
// @Summary Marking progress per outcome for a campus
// @Tags Results
// @Produce json
// @Param id path string true "Campus ID"
// @Success 200 {object} response.Envelope
// @Router /admin/campuses/{id}/marking-progress [get]
func (h *ResultHandler) MarkingProgress(c *gin.Context) {
	progress, err := h.results.MarkingProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// ExportCSV godoc
// @Summary Export a ledger as CSV
// @Tags Results
// @Produce text/csv
// @Param id path string true "Result ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /admin/results/{id}/export/csv [get]
func (h *ResultHandler) ExportCSV(c *gin.Context) {
	payload, filename, err := h.results.ExportLedgerCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportPDF godoc
// @Summary Export a ledger as PDF
// @Tags Results
// @Produce application/pdf
// @Param id path string true "Result ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /admin/results/{id}/export/pdf [get]
func (h *ResultHandler) ExportPDF(c *gin.Context) {
	payload, filename, err := h.results.ExportLedgerPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", payload)
}
