package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jimsug/jolly-roger/internal/hooks"
	"github.com/jimsug/jolly-roger/internal/models"
	"github.com/jimsug/jolly-roger/internal/realtime"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

// NotificationService stores per-recipient notification copies produced by
// chat fan-out and lets recipients list and dismiss them.
type NotificationService struct {
	db   *gorm.DB
	feed realtime.ChangeFeed
}

// NewNotificationService constructs a notification service.
func NewNotificationService(db *gorm.DB, feed realtime.ChangeFeed) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, feed: feed}, nil
}

var _ hooks.NotificationSink = (*NotificationService)(nil)

// Create persists one notification copy. Implements the sink the chat
// fan-out hookset writes to.
func (s *NotificationService) Create(ctx context.Context, input hooks.NotificationInput) error {
	ctx = ensureContext(ctx)

	rawContent, err := input.Content.Encode()
	if err != nil {
		return fmt.Errorf("notification service: encode content: %w", err)
	}

	notification := models.ChatNotification{
		UserID:    input.UserID,
		Sender:    input.Sender,
		PuzzleID:  input.PuzzleID,
		HuntID:    input.HuntID,
		Text:      input.Text,
		Content:   datatypes.JSON(rawContent),
		Timestamp: input.Timestamp,
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return fmt.Errorf("notification service: create: %w", err)
	}

	if s.feed != nil {
		s.feed.PublishNotification(notification.UserID, realtime.ChangeEvent{
			Op:  realtime.OpInsert,
			Doc: &notification,
		})
	}
	return nil
}

// ListForUser returns the user's undismissed notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string) ([]models.ChatNotification, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.ErrNotFound
	}

	var rows []models.ChatNotification
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND dismissed = ?", userID, false).
		Order("timestamp DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: list: %w", err)
	}
	return rows, nil
}

// Dismiss marks a notification as seen. Only the notification's recipient
// may dismiss it. Dismissing twice is a no-op.
func (s *NotificationService) Dismiss(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)

	var notification models.ChatNotification
	err := s.db.WithContext(ctx).
		First(&notification, "id = ? AND user_id = ?", strings.TrimSpace(notificationID), strings.TrimSpace(userID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("notification service: dismiss: %w", err)
	}
	if notification.Dismissed {
		return nil
	}

	if err := s.db.WithContext(ctx).
		Model(&models.ChatNotification{}).
		Where("id = ?", notification.ID).
		Update("dismissed", true).Error; err != nil {
		return fmt.Errorf("notification service: dismiss: %w", err)
	}
	notification.Dismissed = true

	if s.feed != nil {
		s.feed.PublishNotification(notification.UserID, realtime.ChangeEvent{
			Op:  realtime.OpRemove,
			Doc: notification.ID,
		})
	}
	return nil
}
