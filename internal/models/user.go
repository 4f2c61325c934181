package models

// User represents a registered customer.
type User struct {
	BaseModel
	Email        string  `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	FirstName    string  `gorm:"column:fname;not null" json:"fname"`
	Username     *string `gorm:"column:uname" json:"uname"`
	Address      *string `json:"address"`
	ProfileImage *string `json:"profile_image"`
	Phone        string  `gorm:"not null" json:"phone"`
}
