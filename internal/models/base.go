package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel provides shared columns for all tables.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUIDs are generated for new records.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	b.EnsureID()
	return nil
}

// EnsureID assigns a fresh UUID when the record has none yet. Batch inserts
// and in-memory stores call it directly.
func (b *BaseModel) EnsureID() {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
}

// All returns every model that AutoMigrate manages, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Credential{},
		&Category{},
		&Product{},
		&ProductImage{},
		&CartLine{},
		&Address{},
		&OrderLine{},
		&PaymentIntent{},
		&Subscription{},
		&ContactMessage{},
		&SupportTicket{},
	}
}
