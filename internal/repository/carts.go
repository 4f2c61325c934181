package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

type Carts struct {
	db *gorm.DB
}

func NewCarts(db *gorm.DB) *Carts {
	return &Carts{db: db}
}

// CreateBatch writes all lines in a single insert.
func (r *Carts) CreateBatch(ctx context.Context, lines []models.CartLine) error {
	if len(lines) == 0 {
		return nil
	}
	if err := conn(ctx, r.db).Create(&lines).Error; err != nil {
		return fmt.Errorf("insert cart lines: %w", translate(err))
	}
	return nil
}

// ListByUser returns the user's cart lines with their products loaded.
func (r *Carts) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error) {
	var lines []models.CartLine
	if err := conn(ctx, r.db).Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	return lines, nil
}
