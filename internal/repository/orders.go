package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

type Orders struct {
	db *gorm.DB
}

func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

func (r *Orders) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	var count int64
	if err := conn(ctx, r.db).Model(&models.OrderLine{}).
		Where("tracking_id = ?", trackingID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check tracking id: %w", err)
	}
	return count > 0, nil
}

func (r *Orders) CreateLine(ctx context.Context, line *models.OrderLine) error {
	if err := conn(ctx, r.db).Create(line).Error; err != nil {
		return fmt.Errorf("insert order line: %w", translate(err))
	}
	return nil
}

// ListByUser returns every order line of the user, newest first.
func (r *Orders) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	if err := conn(ctx, r.db).Preload("Product").
		Where("user_id = ?", userID).
		Order("placed_at desc").
		Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return lines, nil
}

// ListByTrackingID returns the lines of one checkout owned by the user.
func (r *Orders) ListByTrackingID(ctx context.Context, userID uuid.UUID, trackingID string) ([]models.OrderLine, error) {
	lines := []models.OrderLine{}
	if err := conn(ctx, r.db).Preload("Product").
		Where("user_id = ? AND tracking_id = ?", userID, trackingID).
		Order("created_at asc").
		Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("list checkout lines: %w", err)
	}
	return lines, nil
}
