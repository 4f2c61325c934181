package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// Inbox stores newsletter subscriptions and contact/support submissions.
type Inbox struct {
	db *gorm.DB
}

func NewInbox(db *gorm.DB) *Inbox {
	return &Inbox{db: db}
}

// Subscribe returns ErrDuplicate when the email is already subscribed.
func (r *Inbox) Subscribe(ctx context.Context, sub *models.Subscription) error {
	if err := conn(ctx, r.db).Create(sub).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *Inbox) CreateContact(ctx context.Context, msg *models.ContactMessage) error {
	if err := conn(ctx, r.db).Create(msg).Error; err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

func (r *Inbox) CreateSupport(ctx context.Context, ticket *models.SupportTicket) error {
	if err := conn(ctx, r.db).Create(ticket).Error; err != nil {
		return fmt.Errorf("insert support ticket: %w", err)
	}
	return nil
}
