package models

// Hunt is the top-level partition: every puzzle and chat message belongs to
// exactly one hunt. CRUD on hunts lives in a collaborating subsystem; the
// chat layer only resolves them.
type Hunt struct {
	BaseModel

	Name string `gorm:"type:varchar(255);not null" json:"name"`
}
