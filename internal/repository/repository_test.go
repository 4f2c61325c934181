package repository_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Connect(context.Background(), dsn, false, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newUser(t *testing.T, users *repository.Users) *models.User {
	t.Helper()
	user := &models.User{Email: uuid.NewString() + "@example.com", PasswordHash: "x", FirstName: "Test", Phone: "1"}
	created, err := users.FindOrCreate(context.Background(), user)
	require.NoError(t, err)
	require.True(t, created)
	return user
}

func TestUsersFindOrCreate(t *testing.T) {
	db := openTestDB(t)
	users := repository.NewUsers(db)
	ctx := context.Background()

	user := newUser(t, users)
	dup := &models.User{Email: user.Email, PasswordHash: "y", FirstName: "Other", Phone: "2"}
	created, err := users.FindOrCreate(ctx, dup)
	require.NoError(t, err)
	assert.False(t, created)

	found, err := users.FindByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, "x", found.PasswordHash)

	_, err = users.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, users.UpdatePassword(ctx, uuid.New(), "z"), repository.ErrNotFound)
}

func TestCredentialsIssueConsumesPrevious(t *testing.T) {
	db := openTestDB(t)
	users := repository.NewUsers(db)
	creds := repository.NewCredentials(db)
	ctx := context.Background()
	user := newUser(t, users)

	issue := func() *models.Credential {
		hash := "otp"
		exp := time.Now().Add(time.Minute)
		c := &models.Credential{
			UserID: user.ID, Purpose: models.PurposeLogin, TokenHash: uuid.NewString(),
			OTPHash: &hash, OTPExpiresAt: &exp, ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, creds.Issue(ctx, c))
		return c
	}
	first := issue()
	second := issue()

	_, err := creds.FindActive(ctx, first.TokenHash)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	active, err := creds.FindActive(ctx, second.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	n, err := creds.RecordFailedAttempt(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = creds.RecordFailedAttempt(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, creds.MarkOTPVerified(ctx, second.ID, time.Now()))
	active, err = creds.FindActive(ctx, second.TokenHash)
	require.NoError(t, err)
	assert.Nil(t, active.OTPHash)
	assert.NotNil(t, active.OTPVerifiedAt)
}

func TestCredentialsConsumeOnce(t *testing.T) {
	db := openTestDB(t)
	users := repository.NewUsers(db)
	creds := repository.NewCredentials(db)
	ctx := context.Background()
	user := newUser(t, users)

	c := &models.Credential{
		UserID: user.ID, Purpose: models.PurposeSession, TokenHash: uuid.NewString(),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, creds.Issue(ctx, c))

	require.NoError(t, creds.Consume(ctx, c.ID, time.Now()))
	assert.ErrorIs(t, creds.Consume(ctx, c.ID, time.Now()), repository.ErrNotFound)
	assert.ErrorIs(t, creds.Consume(ctx, uuid.New(), time.Now()), repository.ErrNotFound)
}

func TestOrdersRollBackWithTransaction(t *testing.T) {
	db := openTestDB(t)
	users := repository.NewUsers(db)
	orders := repository.NewOrders(db)
	products := repository.NewProducts(db)
	tx := repository.NewTransactor(db)
	ctx := context.Background()
	user := newUser(t, users)

	product := &models.Product{Name: "Shirt", Price: decimal.RequireFromString("10.00")}
	require.NoError(t, db.Create(product).Error)
	trackingID := uuid.NewString()[:26]

	errBoom := errors.New("boom")
	err := tx.WithinTx(ctx, func(ctx context.Context) error {
		line := &models.OrderLine{
			TrackingID: trackingID, UserID: user.ID, ProductID: product.ID, Quantity: 1,
			Subtotal: product.Price, Total: product.Price, PaymentMethod: "card",
			Status: models.OrderStatusPlaced, BillingAddress: "somewhere", PlacedAt: time.Now(),
		}
		require.NoError(t, orders.CreateLine(ctx, line))
		_, err := products.FindByID(ctx, uuid.New())
		require.ErrorIs(t, err, repository.ErrNotFound)
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	exists, err := orders.TrackingIDExists(ctx, trackingID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInboxSubscribeDuplicate(t *testing.T) {
	db := openTestDB(t)
	inbox := repository.NewInbox(db)
	email := uuid.NewString() + "@example.com"

	require.NoError(t, inbox.Subscribe(context.Background(), &models.Subscription{Email: email}))
	err := inbox.Subscribe(context.Background(), &models.Subscription{Email: email})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}
