package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limpopochefs/academy-api/internal/models"
	"github.com/limpopochefs/academy-api/internal/service"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
	"github.com/limpopochefs/academy-api/pkg/response"
)

// SessionHandler exposes the student-facing assignment session endpoints.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new handler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// ListAssignments godoc
// @Summary List assignments for the current student
// @Description Assignments scoped to the student's campus and intake group, with attempt status
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/assignments [get]
func (h *SessionHandler) ListAssignments(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	assignments, err := h.sessions.ListAssignments(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, assignments, nil)
}

// Start godoc
// @Summary Start an assignment attempt
// @Description Opens an attempt in Starting status; tests may require a password
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body object false "Password payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /student/assignments/{id}/start [post]
func (h *SessionHandler) Start(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Password string `json:"password"`
	}
	// Body is optional: tasks carry no password.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid start payload"))
			return
		}
	}

	res, err := h.sessions.Start(c.Request.Context(), claims.UserID, c.Param("id"), payload.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// StartWriting godoc
// @Summary Enter the writing phase
// @Description Transitions the attempt to Writing and returns the shuffled question set
// @Tags Sessions
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /student/assignments/{id}/write [post]
func (h *SessionHandler) StartWriting(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.sessions.StartWriting(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// SaveAnswer godoc
// @Summary Save a draft answer
// @Description Upserts one answer while the attempt is in Writing
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body models.SubmittedAnswer true "Answer payload"
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /student/assignments/{id}/answers [put]
func (h *SessionHandler) SaveAnswer(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var submitted models.SubmittedAnswer
	if err := c.ShouldBindJSON(&submitted); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answer payload"))
		return
	}

	if err := h.sessions.SubmitAnswer(c.Request.Context(), claims.UserID, c.Param("id"), submitted); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Submit godoc
// @Summary Submit an attempt
// @Description Auto-grades the submission and moves the attempt to Pending
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body []models.SubmittedAnswer true "Final answers"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /student/assignments/{id}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var submissions []models.SubmittedAnswer
	if err := c.ShouldBindJSON(&submissions); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	res, err := h.sessions.Submit(c.Request.Context(), claims.UserID, c.Param("id"), submissions)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Terminate godoc
// @Summary Terminate the current attempt
// @Description Force-submits the attempt into Terminated; omitted answers fall back to autosaves
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body []models.SubmittedAnswer false "Answers written so far"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /student/assignments/{id}/terminate [post]
func (h *SessionHandler) Terminate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var submissions []models.SubmittedAnswer
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&submissions); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
			return
		}
	}

	res, err := h.sessions.Terminate(c.Request.Context(), claims.UserID, c.Param("id"), submissions)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
