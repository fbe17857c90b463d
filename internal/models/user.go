package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// User carries the directory data the chat layer reads: hunt memberships,
// dingwords, and a display name. Account management is external.
type User struct {
	BaseModel

	DisplayName string `gorm:"type:varchar(255)" json:"display_name"`

	// Hunts holds the ids of hunts the user belongs to.
	Hunts datatypes.JSON `json:"hunts"`

	// Dingwords holds per-user substring triggers, stored lower-cased.
	Dingwords datatypes.JSON `json:"dingwords"`
}

// HuntIDs decodes the stored hunt membership list.
func (u *User) HuntIDs() []string {
	return decodeStringList(u.Hunts)
}

// DingwordList decodes the stored dingwords.
func (u *User) DingwordList() []string {
	return decodeStringList(u.Dingwords)
}

// InHunt reports whether the user is a member of the supplied hunt.
func (u *User) InHunt(huntID string) bool {
	for _, id := range u.HuntIDs() {
		if id == huntID {
			return true
		}
	}
	return false
}

func decodeStringList(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil
	}
	return list
}

// EncodeStringList serialises a string list for storage in a JSON column.
func EncodeStringList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}
