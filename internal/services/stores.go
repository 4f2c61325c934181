package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

// Transactor runs fn in one store transaction; stores called with the ctx
// passed to fn take part in it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	FindOrCreate(ctx context.Context, user *models.User) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type CredentialStore interface {
	Issue(ctx context.Context, cred *models.Credential) error
	FindActive(ctx context.Context, tokenHash string) (*models.Credential, error)
	RecordFailedAttempt(ctx context.Context, id uuid.UUID) (int, error)
	MarkOTPVerified(ctx context.Context, id uuid.UUID, at time.Time) error
	ClearOTP(ctx context.Context, id uuid.UUID) error
	Consume(ctx context.Context, id uuid.UUID, at time.Time) error
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type CartStore interface {
	CreateBatch(ctx context.Context, lines []models.CartLine) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartLine, error)
}

type ProductStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID, sort string) ([]models.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error)
	ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type OrderStore interface {
	TrackingIDExists(ctx context.Context, trackingID string) (bool, error)
	CreateLine(ctx context.Context, line *models.OrderLine) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.OrderLine, error)
	ListByTrackingID(ctx context.Context, userID uuid.UUID, trackingID string) ([]models.OrderLine, error)
}

type AddressStore interface {
	Create(ctx context.Context, address *models.Address) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
}

type InboxStore interface {
	Subscribe(ctx context.Context, sub *models.Subscription) error
	CreateContact(ctx context.Context, msg *models.ContactMessage) error
	CreateSupport(ctx context.Context, ticket *models.SupportTicket) error
}

type PaymentStore interface {
	CreateIntent(ctx context.Context, intent *models.PaymentIntent) error
}
