package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"github.com/jimsug/jolly-roger/internal/content"
	"github.com/jimsug/jolly-roger/internal/directory"
	"github.com/jimsug/jolly-roger/internal/models"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

// ReactionSummary describes the reaction state of one message for one viewer.
type ReactionSummary struct {
	// Counts maps each emoji to its number of distinct reacting senders.
	Counts map[string]int `json:"counts"`

	// Users maps each emoji to the display names of its reactors, sorted.
	// Unresolvable senders appear as "???".
	Users map[string][]string `json:"users"`

	// SelfReactions marks the emoji the viewer has already applied.
	SelfReactions map[string]bool `json:"selfReactions"`
}

// ReactionService aggregates and toggles emoji reactions. Reactions are
// ordinary chat messages whose content is a single emoji and whose parent is
// the reacted-to message; no separate table exists.
type ReactionService struct {
	db       *gorm.DB
	messages *MessageService
	users    directory.UserDirectory
}

// NewReactionService constructs a reaction service.
func NewReactionService(db *gorm.DB, messages *MessageService, users directory.UserDirectory) (*ReactionService, error) {
	if db == nil {
		return nil, errors.New("reaction service: db is required")
	}
	if messages == nil {
		return nil, errors.New("reaction service: message service is required")
	}
	if users == nil {
		return nil, errors.New("reaction service: user directory is required")
	}
	return &ReactionService{db: db, messages: messages, users: users}, nil
}

// Aggregate computes the reaction summary of a message from the viewer's
// perspective. Multiple reactions with the same emoji from one sender count
// once.
func (s *ReactionService) Aggregate(ctx context.Context, messageID, viewerID string) (*ReactionSummary, error) {
	ctx = ensureContext(ctx)

	if _, err := s.messages.Get(ctx, messageID); err != nil {
		return nil, err
	}

	replies, err := s.replies(ctx, messageID)
	if err != nil {
		return nil, err
	}

	summary := &ReactionSummary{
		Counts:        make(map[string]int),
		Users:         make(map[string][]string),
		SelfReactions: make(map[string]bool),
	}

	// senders[emoji] tracks distinct reacting users per emoji.
	senders := make(map[string]map[string]bool)
	names := make(map[string]string)

	for i := range replies {
		reply := &replies[i]
		if !reply.IsReaction() {
			continue
		}
		emoji := reactionEmoji(reply)
		if emoji == "" {
			continue
		}

		if senders[emoji] == nil {
			senders[emoji] = make(map[string]bool)
		}
		if senders[emoji][reply.Sender] {
			continue
		}
		senders[emoji][reply.Sender] = true

		summary.Counts[emoji]++
		if reply.Sender == viewerID {
			summary.SelfReactions[emoji] = true
		}

		name, ok := names[reply.Sender]
		if !ok {
			name = s.displayName(ctx, reply.Sender)
			names[reply.Sender] = name
		}
		summary.Users[emoji] = append(summary.Users[emoji], name)
	}

	for emoji := range summary.Users {
		sort.Strings(summary.Users[emoji])
	}
	return summary, nil
}

// Toggle applies or withdraws the viewer's reaction. If the viewer already
// reacted with the emoji the reaction is removed, otherwise a new reaction
// message is appended.
func (s *ReactionService) Toggle(ctx context.Context, messageID, userID, emoji string) (*ReactionSummary, error) {
	ctx = ensureContext(ctx)

	target, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if emoji == "" {
		return nil, apperrors.NewValidation("reaction emoji is required")
	}

	doc := content.NewDocument(content.TextNode(emoji))
	if !doc.IsReaction() {
		return nil, apperrors.NewValidation("reaction must start with an emoji")
	}

	existing, err := s.findOwnReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if err := s.messages.RemoveReaction(ctx, existing.ID); err != nil {
			return nil, err
		}
	} else {
		parentID := target.ID
		if _, err := s.messages.Append(ctx, AppendMessageParams{
			PuzzleID: target.PuzzleID,
			Sender:   userID,
			Content:  doc,
			ParentID: &parentID,
		}); err != nil {
			return nil, err
		}
	}

	return s.Aggregate(ctx, messageID, userID)
}

func (s *ReactionService) replies(ctx context.Context, messageID string) ([]models.ChatMessage, error) {
	var rows []models.ChatMessage
	if err := s.db.WithContext(ctx).
		Where("parent_id = ?", messageID).
		Order("timestamp ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("reaction service: replies: %w", err)
	}
	return rows, nil
}

func (s *ReactionService) findOwnReaction(ctx context.Context, messageID, userID, emoji string) (*models.ChatMessage, error) {
	replies, err := s.replies(ctx, messageID)
	if err != nil {
		return nil, err
	}
	for i := range replies {
		reply := &replies[i]
		if reply.Sender != userID || !reply.IsReaction() {
			continue
		}
		if reactionEmoji(reply) == emoji {
			return reply, nil
		}
	}
	return nil, nil
}

func reactionEmoji(message *models.ChatMessage) string {
	doc, err := message.ContentDocument()
	if err != nil {
		return ""
	}
	return doc.ReactionEmoji()
}

func (s *ReactionService) displayName(ctx context.Context, senderID string) string {
	user, err := s.users.FindUser(ctx, senderID)
	if err != nil || user.DisplayName == "" {
		return "???"
	}
	return user.DisplayName
}
