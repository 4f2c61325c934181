package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Type        string          `gorm:"index" json:"type"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Rating      float64         `json:"rating"`
	ImageSrc    string          `json:"imageSrc"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	Images      []ProductImage  `json:"images,omitempty"`
}

type ProductImage struct {
	BaseModel
	ProductID    uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	Image        string    `gorm:"not null" json:"image"`
	DisplayOrder int       `json:"display_order"`
}
