package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

type Payments struct {
	db *gorm.DB
}

func NewPayments(db *gorm.DB) *Payments {
	return &Payments{db: db}
}

func (r *Payments) CreateIntent(ctx context.Context, intent *models.PaymentIntent) error {
	if err := conn(ctx, r.db).Create(intent).Error; err != nil {
		return fmt.Errorf("insert payment intent: %w", err)
	}
	return nil
}
