package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limpopochefs/academy-api/internal/service"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
	"github.com/limpopochefs/academy-api/pkg/response"
)

// MarkingHandler exposes the staff-facing marking endpoints.
type MarkingHandler struct {
	marking  *service.MarkingService
	sessions *service.SessionService
}

// NewMarkingHandler creates a new handler.
func NewMarkingHandler(marking *service.MarkingService, sessions *service.SessionService) *MarkingHandler {
	return &MarkingHandler{marking: marking, sessions: sessions}
}

// ListAttempts godoc
// @Summary List attempts against an assignment
// @Tags Marking
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/assignments/{id}/attempts [get]
func (h *MarkingHandler) ListAttempts(c *gin.Context) {
	attempts, err := h.marking.ListAttempts(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attempts, nil)
}

// AttemptDetail godoc
// @Summary Load one attempt with its answers
// @Tags Marking
// @Produce json
// @Param id path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/attempts/{id} [get]
func (h *MarkingHandler) AttemptDetail(c *gin.Context) {
	detail, err := h.marking.AttemptDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Mark godoc
// @Summary Confirm scores on a pending attempt
// @Description Writes confirmed scores, computes the percentage and folds it into the result ledger
// @Tags Marking
// @Accept json
// @Produce json
// @Param id path string true "Result ID"
// @Param payload body service.MarkRequest true "Marking payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/attempts/{id}/mark [post]
func (h *MarkingHandler) Mark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid marking payload"))
		return
	}

	result, err := h.marking.Mark(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// Moderate godoc
// @Summary Moderate a marked attempt
// @Description Records second-marker scores with a per-answer audit trail
// @Tags Marking
// @Accept json
// @Produce json
// @Param id path string true "Result ID"
// @Param payload body service.ModerateRequest true "Moderation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/attempts/{id}/moderate [post]
func (h *MarkingHandler) Moderate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid moderation payload"))
		return
	}

	result, err := h.marking.Moderate(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// AddFeedback godoc
// @Summary Append a feedback comment to an attempt
// @Tags Marking
// @Accept json
// @Produce json
// @Param id path string true "Result ID"
// @Param payload body object true "Feedback payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/attempts/{id}/feedback [post]
func (h *MarkingHandler) AddFeedback(c *gin.Context) {
	var payload struct {
		Comment string `json:"comment" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "feedback comment required"))
		return
	}

	if err := h.marking.AddFeedback(c.Request.Context(), c.Param("id"), payload.Comment); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListModerations godoc
// @Summary List moderation records for an assignment
// @Tags Marking
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/assignments/{id}/moderations [get]
func (h *MarkingHandler) ListModerations(c *gin.Context) {
	moderations, err := h.marking.ListModerations(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, moderations, nil)
}

// Terminate godoc
// @Summary Terminate an in-progress attempt
// @Description Force-submits the attempt; autosaved answers are graded and it lands in Terminated
// @Tags Marking
// @Produce json
// @Param id path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /admin/attempts/{id}/terminate [post]
func (h *MarkingHandler) Terminate(c *gin.Context) {
	detail, err := h.marking.AttemptDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.sessions.Terminate(c.Request.Context(), detail.Attempt.StudentID, detail.Attempt.AssignmentID, nil)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
