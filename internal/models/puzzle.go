package models

// Puzzle identifies one chat channel. Puzzle CRUD is a collaborating
// subsystem's concern; the chat layer validates existence and derives the
// hunt partition key from it.
type Puzzle struct {
	BaseModel

	HuntID string `gorm:"type:uuid;index;not null" json:"hunt"`
	Title  string `gorm:"type:varchar(255)" json:"title"`
}
