package realtime

import "strings"

// Named realtime streams used across the chat layer.
const (
	// StreamNotifications carries per-user notification events.
	StreamNotifications = "notifications"

	chatStreamPrefix = "chat."
)

// ChatStream names the change-feed stream for one puzzle channel.
func ChatStream(puzzleID string) string {
	return chatStreamPrefix + strings.TrimSpace(puzzleID)
}
