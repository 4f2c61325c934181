package models

import "github.com/google/uuid"

// Address is an address-book entry. Entries are append-only.
type Address struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	FirstName string    `gorm:"column:fname" json:"fname"`
	LastName  string    `gorm:"column:lname" json:"lname"`
	Email     string    `json:"email"`
	Address   string    `gorm:"not null" json:"address"`
}
