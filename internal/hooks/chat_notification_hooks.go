package hooks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jimsug/jolly-roger/internal/content"
	"github.com/jimsug/jolly-roger/internal/directory"
	"github.com/jimsug/jolly-roger/internal/models"
	"github.com/jimsug/jolly-roger/pkg/metrics"
)

// MessageSource fetches persisted chat messages by id.
type MessageSource interface {
	Get(ctx context.Context, id string) (*models.ChatMessage, error)
}

// NotificationInput is one per-recipient notification to persist.
type NotificationInput struct {
	UserID    string
	Sender    string
	PuzzleID  string
	HuntID    string
	Text      string
	Content   content.Document
	Timestamp time.Time
}

// NotificationSink persists notifications computed by fan-out.
type NotificationSink interface {
	Create(ctx context.Context, input NotificationInput) error
}

// ChatNotificationHookset implements notifications for both dingwords and
// @-mentions together, so a user who is both mentioned and dingword-matched
// by the same message receives exactly one notification.
//
// Dingwords can be disabled by feature flag (they do O(hunt members) work);
// mentions cannot (they do O(message nodes) work).
type ChatNotificationHookset struct {
	messages MessageSource
	users    directory.UserDirectory
	flags    directory.FeatureFlags
	sink     NotificationSink
}

// NewChatNotificationHookset wires the fan-out engine's dependencies.
func NewChatNotificationHookset(
	messages MessageSource,
	users directory.UserDirectory,
	flags directory.FeatureFlags,
	sink NotificationSink,
) (*ChatNotificationHookset, error) {
	if messages == nil {
		return nil, errors.New("chat notification hookset: message source is required")
	}
	if users == nil {
		return nil, errors.New("chat notification hookset: user directory is required")
	}
	if sink == nil {
		return nil, errors.New("chat notification hookset: notification sink is required")
	}
	return &ChatNotificationHookset{
		messages: messages,
		users:    users,
		flags:    flags,
		sink:     sink,
	}, nil
}

// Name identifies the hookset in dispatch logs.
func (h *ChatNotificationHookset) Name() string {
	return "chat-notifications"
}

// OnMessageCreated computes the recipient set for the new message and
// persists one notification per recipient.
func (h *ChatNotificationHookset) OnMessageCreated(ctx context.Context, messageID string) error {
	message, err := h.messages.Get(ctx, messageID)
	if err != nil {
		return fmt.Errorf("load message %s: %w", messageID, err)
	}

	// System messages never notify.
	if message.IsSystem() {
		return nil
	}

	doc, err := message.ContentDocument()
	if err != nil {
		return fmt.Errorf("decode message %s content: %w", messageID, err)
	}

	recipients := make(map[string]string) // user id -> trigger

	for _, mentioned := range doc.Mentions() {
		// Don't have messages notify yourself.
		if mentioned == message.Sender {
			continue
		}
		// Only notify users that are in the message's hunt.
		user, err := h.users.FindUser(ctx, mentioned)
		if err != nil {
			// Mentions of unknown users are ignored, not fatal.
			continue
		}
		if user.InHunt(message.HuntID) {
			recipients[mentioned] = "mention"
		}
	}

	if h.flags == nil || !h.flags.DingwordsDisabled() {
		normalizedText := strings.ToLower(strings.TrimSpace(doc.Flatten()))
		if normalizedText != "" {
			members, err := h.users.DingwordUsers(ctx, message.HuntID)
			if err != nil {
				return fmt.Errorf("list dingword users for hunt %s: %w", message.HuntID, err)
			}
			for _, member := range members {
				// Avoid making users ding themselves.
				if member.ID == message.Sender {
					continue
				}
				if _, already := recipients[member.ID]; already {
					continue
				}
				for _, dingword := range member.Dingwords {
					// Plain substring match, no word-boundary anchoring.
					// Directory data is owned externally, so casing is
					// normalised here rather than assumed.
					dingword = strings.ToLower(strings.TrimSpace(dingword))
					if dingword != "" && strings.Contains(normalizedText, dingword) {
						recipients[member.ID] = "dingword"
						break
					}
				}
			}
		}
	}

	if len(recipients) == 0 {
		return nil
	}

	// Persist the notifications concurrently; order among recipients is not
	// significant, but all must land before dispatch returns.
	g, gctx := errgroup.WithContext(ctx)
	for userID, trigger := range recipients {
		userID, trigger := userID, trigger
		g.Go(func() error {
			if err := h.sink.Create(gctx, NotificationInput{
				UserID:    userID,
				Sender:    message.Sender,
				PuzzleID:  message.PuzzleID,
				HuntID:    message.HuntID,
				Text:      doc.Flatten(),
				Content:   doc,
				Timestamp: message.Timestamp,
			}); err != nil {
				return fmt.Errorf("notify user %s: %w", userID, err)
			}
			metrics.NotificationsFannedOut.WithLabelValues(trigger).Inc()
			return nil
		})
	}
	return g.Wait()
}
