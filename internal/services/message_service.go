package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jimsug/jolly-roger/internal/content"
	"github.com/jimsug/jolly-roger/internal/directory"
	"github.com/jimsug/jolly-roger/internal/hooks"
	"github.com/jimsug/jolly-roger/internal/models"
	"github.com/jimsug/jolly-roger/internal/realtime"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
	"github.com/jimsug/jolly-roger/pkg/metrics"
)

// AppendMessageParams carries the payload required to append a chat message.
type AppendMessageParams struct {
	PuzzleID    string
	Sender      string // empty for system messages
	Content     content.Document
	ParentID    *string
	Attachments []models.Attachment
	PinTs       *time.Time
}

// MessageService is the message store: an append-mostly log of channel
// messages where only the pin state may change after creation.
type MessageService struct {
	db       *gorm.DB
	puzzles  directory.PuzzleLookup
	registry *hooks.Registry
	feed     realtime.ChangeFeed
	timeNow  func() time.Time

	// lastTs keeps per-channel append timestamps strictly increasing so the
	// channel ordering is total even when the clock stalls.
	mu     sync.Mutex
	lastTs map[string]time.Time
}

// MessageServiceOption customises service construction.
type MessageServiceOption func(*MessageService)

// WithMessageClock injects a deterministic clock for tests.
func WithMessageClock(now func() time.Time) MessageServiceOption {
	return func(s *MessageService) {
		if now != nil {
			s.timeNow = now
		}
	}
}

// NewMessageService constructs a message service once its dependencies are supplied.
func NewMessageService(db *gorm.DB, puzzles directory.PuzzleLookup, registry *hooks.Registry, feed realtime.ChangeFeed, opts ...MessageServiceOption) (*MessageService, error) {
	if db == nil {
		return nil, errors.New("message service: db is required")
	}
	if puzzles == nil {
		return nil, errors.New("message service: puzzle lookup is required")
	}
	if registry == nil {
		return nil, errors.New("message service: hook registry is required")
	}

	svc := &MessageService{
		db:       db,
		puzzles:  puzzles,
		registry: registry,
		feed:     feed,
		timeNow:  time.Now,
		lastTs:   make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Append validates, persists, and dispatches a new chat message, returning
// the stored row. The message survives even when a hook fails afterwards;
// the hook failure is reported to the caller.
func (s *MessageService) Append(ctx context.Context, params AppendMessageParams) (*models.ChatMessage, error) {
	ctx = ensureContext(ctx)

	puzzleID := strings.TrimSpace(params.PuzzleID)
	if puzzleID == "" {
		return nil, apperrors.ErrNotFound
	}

	puzzle, err := s.puzzles.FindPuzzle(ctx, puzzleID)
	if err != nil {
		return nil, err
	}

	doc := params.Content
	if len(doc.Children) == 0 {
		// Attachment-only (or even fully empty) sends stay representable.
		doc = content.EmptyTextDocument()
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if params.ParentID != nil {
		parent, err := s.Get(ctx, *params.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PuzzleID != puzzleID {
			return nil, apperrors.NewValidation("parent message belongs to a different channel")
		}
	}

	rawContent, err := doc.Encode()
	if err != nil {
		return nil, apperrors.NewValidation("content is not serialisable").WithInternal(err)
	}

	var rawAttachments datatypes.JSON
	if len(params.Attachments) > 0 {
		data, err := json.Marshal(params.Attachments)
		if err != nil {
			return nil, apperrors.NewValidation("attachments are not serialisable").WithInternal(err)
		}
		rawAttachments = datatypes.JSON(data)
	}

	message := models.ChatMessage{
		PuzzleID:    puzzleID,
		HuntID:      puzzle.HuntID,
		Sender:      strings.TrimSpace(params.Sender),
		Timestamp:   s.nextTimestamp(puzzleID),
		PinTs:       params.PinTs,
		ParentID:    params.ParentID,
		Content:     datatypes.JSON(rawContent),
		Attachments: rawAttachments,
	}

	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("message service: append: %w", err)
	}

	metrics.MessagesCreated.WithLabelValues(messageKind(&message)).Inc()

	if s.feed != nil {
		s.feed.PublishChat(puzzleID, realtime.ChangeEvent{Op: realtime.OpInsert, Doc: &message})
	}

	// Hooks run after the message is durable, strictly in registration order.
	if err := s.registry.DispatchMessageCreated(ctx, message.ID); err != nil {
		return &message, err
	}

	return &message, nil
}

// Get fetches a single message by id.
func (s *MessageService) Get(ctx context.Context, id string) (*models.ChatMessage, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.ErrNotFound
	}

	var message models.ChatMessage
	if err := s.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("message service: get: %w", err)
	}
	return &message, nil
}

// List returns the channel's messages ordered by timestamp ascending. The
// result is a finite snapshot; liveness comes from the change feed.
func (s *MessageService) List(ctx context.Context, puzzleID string) ([]models.ChatMessage, error) {
	ctx = ensureContext(ctx)
	puzzleID = strings.TrimSpace(puzzleID)
	if puzzleID == "" {
		return nil, apperrors.ErrNotFound
	}

	var rows []models.ChatMessage
	if err := s.db.WithContext(ctx).
		Where("puzzle_id = ?", puzzleID).
		Order("timestamp ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("message service: list: %w", err)
	}
	return rows, nil
}

// SetPin is the only mutation allowed on a stored message. Pinning an
// already pinned message refreshes its pin timestamp; unpinning an unpinned
// message is a no-op.
func (s *MessageService) SetPin(ctx context.Context, id string, pinned bool) (*models.ChatMessage, error) {
	ctx = ensureContext(ctx)

	message, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !pinned && message.PinTs == nil {
		return message, nil
	}

	var pinTs *time.Time
	if pinned {
		now := s.timeNow().UTC()
		pinTs = &now
	}

	if err := s.db.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("id = ?", id).
		Update("pin_ts", pinTs).Error; err != nil {
		return nil, fmt.Errorf("message service: set pin: %w", err)
	}
	message.PinTs = pinTs

	if s.feed != nil {
		s.feed.PublishChat(message.PuzzleID, realtime.ChangeEvent{Op: realtime.OpUpdate, Doc: message})
	}

	return message, nil
}

// CurrentPin returns the most recently pinned message of a channel, or nil
// when nothing is pinned.
func (s *MessageService) CurrentPin(ctx context.Context, puzzleID string) (*models.ChatMessage, error) {
	ctx = ensureContext(ctx)

	var message models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("puzzle_id = ? AND pin_ts IS NOT NULL", strings.TrimSpace(puzzleID)).
		Order("pin_ts DESC").
		First(&message).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("message service: current pin: %w", err)
	}
	return &message, nil
}

// RemoveReaction deletes a reaction message, the only removal the chat core
// performs (withdrawing an emoji reaction). Ordinary messages are never
// physically deleted here.
func (s *MessageService) RemoveReaction(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	message, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !message.IsReaction() {
		return apperrors.NewBadRequest("message is not a reaction")
	}

	if err := s.db.WithContext(ctx).Delete(&models.ChatMessage{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("message service: remove reaction: %w", err)
	}

	if s.feed != nil {
		s.feed.PublishChat(message.PuzzleID, realtime.ChangeEvent{Op: realtime.OpRemove, Doc: message.ID})
	}
	return nil
}

// nextTimestamp returns a strictly increasing timestamp for the channel so
// ordering ties cannot occur even under clock stalls.
func (s *MessageService) nextTimestamp(puzzleID string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.timeNow().UTC()
	if last, ok := s.lastTs[puzzleID]; ok && !ts.After(last) {
		ts = last.Add(time.Millisecond)
	}
	s.lastTs[puzzleID] = ts
	return ts
}

func messageKind(message *models.ChatMessage) string {
	switch {
	case message.IsSystem():
		return "system"
	case message.IsReaction():
		return "reaction"
	default:
		return "message"
	}
}
