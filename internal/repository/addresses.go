package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

type Addresses struct {
	db *gorm.DB
}

func NewAddresses(db *gorm.DB) *Addresses {
	return &Addresses{db: db}
}

func (r *Addresses) Create(ctx context.Context, address *models.Address) error {
	if err := conn(ctx, r.db).Create(address).Error; err != nil {
		return fmt.Errorf("insert address: %w", translate(err))
	}
	return nil
}

func (r *Addresses) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	addresses := []models.Address{}
	if err := conn(ctx, r.db).Where("user_id = ?", userID).
		Order("created_at asc").Find(&addresses).Error; err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return addresses, nil
}
