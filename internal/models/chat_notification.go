package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChatNotification is one per-recipient copy of a message that matched the
// recipient's mentions or dingwords. Created once by fan-out; only the
// dismiss operation mutates it afterwards.
type ChatNotification struct {
	BaseModel

	UserID   string `gorm:"type:uuid;index;not null" json:"user"`
	Sender   string `gorm:"type:uuid" json:"sender"`
	PuzzleID string `gorm:"type:uuid;index" json:"puzzle"`
	HuntID   string `gorm:"type:uuid" json:"hunt"`

	// Text is the flattened copy of the message content, kept so clients can
	// render the notification without re-walking the node tree.
	Text      string         `gorm:"type:text" json:"text"`
	Content   datatypes.JSON `json:"content"`
	Timestamp time.Time      `gorm:"index" json:"timestamp"`

	Dismissed bool `gorm:"default:false;index" json:"dismissed"`
}
