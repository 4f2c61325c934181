package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentIntent records an intent created with the payment provider.
type PaymentIntent struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	Provider    string          `gorm:"size:32;not null" json:"provider"`
	ProviderID  string          `gorm:"index" json:"provider_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	AmountMinor int64           `gorm:"not null" json:"amount_minor"`
	Currency    string          `gorm:"size:8;not null" json:"currency"`
}
