package models

// Subscription is a newsletter sign-up.
type Subscription struct {
	BaseModel
	Email string `gorm:"uniqueIndex;not null" json:"subscribeEmail"`
}

// ContactMessage is a message left through the contact form.
type ContactMessage struct {
	BaseModel
	FirstName string `gorm:"column:fname;not null" json:"fname"`
	LastName  string `gorm:"column:lname;not null" json:"lname"`
	Email     string `gorm:"not null" json:"email"`
	Message   string `gorm:"type:text;not null" json:"message"`
}

type SupportTicket struct {
	BaseModel
	FirstName string `gorm:"column:fname;not null" json:"fname"`
	LastName  string `gorm:"column:lname;not null" json:"lname"`
	Email     string `gorm:"not null" json:"email"`
	Phone     string `json:"phone"`
	Subject   string `gorm:"not null" json:"subject"`
	Message   string `gorm:"type:text;not null" json:"message"`
}
