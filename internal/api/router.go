package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/jimsug/jolly-roger/internal/app"
	"github.com/jimsug/jolly-roger/internal/handlers"
	"github.com/jimsug/jolly-roger/internal/middleware"
)

// Handlers bundles the HTTP handlers mounted by the router.
type Handlers struct {
	Chat          *handlers.ChatHandler
	Notifications *handlers.NotificationHandler
	Realtime      *handlers.RealtimeHandler
}

// NewRouter builds the Gin engine, wires middleware and registers the chat routes.
func NewRouter(db *gorm.DB, cfg *app.Config, h Handlers) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if h.Chat == nil || h.Notifications == nil || h.Realtime == nil {
		return nil, fmt.Errorf("all handlers must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.Identity())

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")

	puzzles := api.Group("/puzzles/:puzzleID")
	{
		puzzles.GET("/messages", h.Chat.ListMessages)
		puzzles.POST("/messages", h.Chat.PostMessage)
		puzzles.GET("/messages/pinned", h.Chat.GetPin)
	}

	messages := api.Group("/messages/:messageID")
	{
		messages.POST("/pin", h.Chat.SetPin)
		messages.GET("/thread", h.Chat.Thread)
		messages.GET("/reactions", h.Chat.ListReactions)
		messages.POST("/reactions", h.Chat.ToggleReaction)
	}

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.Notifications.List)
		notifications.POST("/:notificationID/dismiss", h.Notifications.Dismiss)
	}

	api.GET("/ws", h.Realtime.Stream)

	return r, nil
}
