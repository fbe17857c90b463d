package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jimsug/jolly-roger/internal/app"
	"github.com/jimsug/jolly-roger/internal/database/testutil"
	"github.com/jimsug/jolly-roger/internal/directory"
	"github.com/jimsug/jolly-roger/internal/handlers"
	"github.com/jimsug/jolly-roger/internal/hooks"
	"github.com/jimsug/jolly-roger/internal/realtime"
	"github.com/jimsug/jolly-roger/internal/services"
)

func newRouterForTest(t *testing.T, cfg *app.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	dir, err := directory.NewService(db)
	require.NoError(t, err)

	hub := realtime.NewHub()
	feed := realtime.NewHubFeed(hub)

	messageSvc, err := services.NewMessageService(db, dir, hooks.NewRegistry(), feed)
	require.NoError(t, err)
	notificationSvc, err := services.NewNotificationService(db, feed)
	require.NoError(t, err)
	threadSvc, err := services.NewThreadService(messageSvc)
	require.NoError(t, err)
	reactionSvc, err := services.NewReactionService(db, messageSvc, dir)
	require.NoError(t, err)

	router, err := NewRouter(db, cfg, Handlers{
		Chat:          handlers.NewChatHandler(messageSvc, threadSvc, reactionSvc, dir, nil),
		Notifications: handlers.NewNotificationHandler(notificationSvc),
		Realtime:      handlers.NewRealtimeHandler(hub),
	})
	require.NoError(t, err)
	return router
}

func TestRouterHealthEndpoint(t *testing.T) {
	cfg := &app.Config{}
	cfg.Monitoring.Health.Enabled = true

	router := newRouterForTest(t, cfg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}

func TestRouterMetricsEndpoint(t *testing.T) {
	cfg := &app.Config{}
	cfg.Monitoring.Prometheus.Enabled = true

	router := newRouterForTest(t, cfg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouterRequiresDependencies(t *testing.T) {
	_, err := NewRouter(nil, &app.Config{}, Handlers{})
	require.Error(t, err)
}
