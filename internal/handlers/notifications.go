package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jimsug/jolly-roger/internal/middleware"
	"github.com/jimsug/jolly-roger/internal/services"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
	"github.com/jimsug/jolly-roger/pkg/response"
)

// NotificationHandler exposes HTTP endpoints for chat notifications.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List returns the caller's undismissed notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	if h == nil || h.service == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	userID := strings.TrimSpace(c.GetString(middleware.CtxUserIDKey))
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	rows, err := h.service.ListForUser(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// Dismiss marks one of the caller's notifications as seen.
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	if h == nil || h.service == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	userID := strings.TrimSpace(c.GetString(middleware.CtxUserIDKey))
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	notificationID := strings.TrimSpace(c.Param("notificationID"))
	if notificationID == "" {
		response.Error(c, apperrors.NewBadRequest("notification id is required"))
		return
	}

	if err := h.service.Dismiss(requestContext(c), userID, notificationID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"dismissed": true})
}
