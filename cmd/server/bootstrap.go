package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jimsug/jolly-roger/internal/api"
	"github.com/jimsug/jolly-roger/internal/app"
	"github.com/jimsug/jolly-roger/internal/attachments"
	"github.com/jimsug/jolly-roger/internal/database"
	"github.com/jimsug/jolly-roger/internal/directory"
	"github.com/jimsug/jolly-roger/internal/handlers"
	"github.com/jimsug/jolly-roger/internal/hooks"
	"github.com/jimsug/jolly-roger/internal/realtime"
	"github.com/jimsug/jolly-roger/internal/services"
	"github.com/jimsug/jolly-roger/pkg/logger"
)

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB     *gorm.DB
	Hub    *realtime.Hub
	Router *gin.Engine
}

// bootstrapRuntime initialises the database, realtime hub, services, and the HTTP router.
func bootstrapRuntime(cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	stack.Hub = realtime.NewHub()
	feed := realtime.NewHubFeed(stack.Hub)

	dir, err := directory.NewService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise directory service: %w", err)
	}
	flags := directory.StaticFlags{DisableDingwords: cfg.Features.DisableDingwords}

	registry := hooks.NewRegistry()

	messageSvc, err := services.NewMessageService(stack.DB, dir, registry, feed)
	if err != nil {
		return nil, fmt.Errorf("initialise message service: %w", err)
	}

	notificationSvc, err := services.NewNotificationService(stack.DB, feed)
	if err != nil {
		return nil, fmt.Errorf("initialise notification service: %w", err)
	}

	threadSvc, err := services.NewThreadService(messageSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise thread service: %w", err)
	}

	reactionSvc, err := services.NewReactionService(stack.DB, messageSvc, dir)
	if err != nil {
		return nil, fmt.Errorf("initialise reaction service: %w", err)
	}

	chatHooks, err := hooks.NewChatNotificationHookset(messageSvc, dir, flags, notificationSvc)
	if err != nil {
		return nil, fmt.Errorf("initialise chat notification hookset: %w", err)
	}
	registry.Add(chatHooks)

	var uploader *attachments.Uploader
	if endpoint := strings.TrimSpace(cfg.Storage.ProvisionEndpoint); endpoint != "" {
		provisioner := attachments.NewHTTPProvisioner(endpoint, nil)
		uploader, err = attachments.NewUploader(provisioner,
			attachments.WithMaxFileSize(cfg.Storage.MaxFileSize),
			attachments.WithHTTPClient(&http.Client{Timeout: cfg.Storage.UploadTimeout}),
		)
		if err != nil {
			return nil, fmt.Errorf("initialise attachment uploader: %w", err)
		}
	} else {
		log.Info("attachment storage not configured; attachment sends disabled")
	}

	stack.Router, err = api.NewRouter(stack.DB, cfg, api.Handlers{
		Chat:          handlers.NewChatHandler(messageSvc, threadSvc, reactionSvc, dir, uploader),
		Notifications: handlers.NewNotificationHandler(notificationSvc),
		Realtime:      handlers.NewRealtimeHandler(stack.Hub),
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	return stack, nil
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}
