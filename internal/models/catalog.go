package models

// Category groups products for filtering.
type Category struct {
	BaseModel
	Name     string    `gorm:"not null" json:"category_name"`
	Products []Product `json:"products,omitempty"`
}
