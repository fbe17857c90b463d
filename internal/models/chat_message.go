package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/jimsug/jolly-roger/internal/content"
)

// Attachment describes one uploaded file carried by a chat message.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// ChatMessage is one entry in a puzzle's chat channel. Messages are
// append-only: after creation only PinTs may change.
type ChatMessage struct {
	BaseModel

	PuzzleID string `gorm:"type:uuid;index:idx_chat_messages_puzzle;not null" json:"puzzle"`
	HuntID   string `gorm:"type:uuid;index" json:"hunt"`

	// Sender is empty for system messages.
	Sender    string    `gorm:"type:uuid;index" json:"sender,omitempty"`
	Timestamp time.Time `gorm:"index:idx_chat_messages_puzzle" json:"timestamp"`

	// PinTs is non-null while the message is pinned; the most recent pin
	// wins when several messages in a channel are pinned.
	PinTs *time.Time `gorm:"index" json:"pinTs"`

	// ParentID links a reply or reaction to its anchor message.
	ParentID *string `gorm:"type:uuid;index" json:"parentId"`

	Content     datatypes.JSON `gorm:"not null" json:"content"`
	Attachments datatypes.JSON `json:"attachments"`
}

// ContentDocument decodes the stored content into its node form.
func (m *ChatMessage) ContentDocument() (content.Document, error) {
	return content.Parse(m.Content)
}

// AttachmentList decodes the stored attachments.
func (m *ChatMessage) AttachmentList() []Attachment {
	if len(m.Attachments) == 0 {
		return nil
	}
	var list []Attachment
	if err := json.Unmarshal(m.Attachments, &list); err != nil {
		return nil
	}
	return list
}

// IsSystem reports whether the message was emitted without a sender.
func (m *ChatMessage) IsSystem() bool {
	return m.Sender == ""
}

// IsReaction reports whether the message is an emoji reaction: anchored to a
// parent with a single non-empty text child starting with an emoji.
func (m *ChatMessage) IsReaction() bool {
	if m.ParentID == nil {
		return false
	}
	doc, err := m.ContentDocument()
	if err != nil {
		return false
	}
	return doc.IsReaction()
}
