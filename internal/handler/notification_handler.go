package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limpopochefs/academy-api/internal/service"
	appErrors "github.com/limpopochefs/academy-api/pkg/errors"
	"github.com/limpopochefs/academy-api/pkg/response"
)

// NotificationHandler exposes a student's notification feed.
type NotificationHandler struct {
	notifier *service.NotifierService
}

// NewNotificationHandler creates a new handler.
func NewNotificationHandler(notifier *service.NotifierService) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// List godoc
// @Summary List the current student's notifications
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Unread only"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notifier.List(c.Request.Context(), claims.UserID, unreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// MarkRead godoc
// @Summary Mark one notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /student/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.notifier.MarkRead(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
