package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const OrderStatusPlaced = "Placed"

// OrderLine is one persisted line of a checkout. All lines of a checkout
// share a TrackingID.
type OrderLine struct {
	BaseModel
	TrackingID     string          `gorm:"size:32;index;not null" json:"trackingId"`
	UserID         uuid.UUID       `gorm:"type:uuid;index;not null" json:"userId"`
	ProductID      uuid.UUID       `gorm:"type:uuid;index;not null" json:"productId"`
	Product        *Product        `json:"product,omitempty"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Tax            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax"`
	ShippingCost   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"shippingCost"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	PaymentMethod  string          `gorm:"not null" json:"paymentMethod"`
	Status         string          `gorm:"not null" json:"status"`
	BillingAddress string          `gorm:"not null" json:"billingAddress"`
	PlacedAt       time.Time       `gorm:"index" json:"dateTime"`
}
