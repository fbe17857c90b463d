package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jimsug/jolly-roger/internal/middleware"
	"github.com/jimsug/jolly-roger/internal/realtime"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
	"github.com/jimsug/jolly-roger/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into WebSocket change-feed
// streams.
type RealtimeHandler struct {
	hub *realtime.Hub
}

// NewRealtimeHandler constructs a realtime handler over the hub.
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Stream upgrades the request and subscribes the caller to the requested
// streams, for example "notifications" or "chat.<puzzleID>". Further
// subscriptions can be managed over the socket itself.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h == nil || h.hub == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	userID := strings.TrimSpace(c.GetString(middleware.CtxUserIDKey))
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	var streams []string
	for _, raw := range strings.Split(c.Query("streams"), ",") {
		if stream := strings.TrimSpace(raw); stream != "" {
			streams = append(streams, stream)
		}
	}

	h.hub.Serve(userID, streams, c.Writer, c.Request)
}
