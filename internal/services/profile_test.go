package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
)

func TestProfileUpdate(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "a@x.com", "secret1")
	f.register(t, "b@x.com", "secret1")
	svc := NewProfileService(f.store.Users(), f.store.Addresses())
	ctx := context.Background()

	uname := "asha"
	addr := "12 MG Road"
	updated, err := svc.Update(ctx, user.ID, ProfileUpdate{Username: &uname, Address: &addr})
	require.NoError(t, err)
	require.NotNil(t, updated.Username)
	assert.Equal(t, "asha", *updated.Username)
	assert.Equal(t, "12 MG Road", *updated.Address)

	taken := "b@x.com"
	_, err = svc.Update(ctx, user.ID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrDuplicateAccount)

	_, err = svc.Update(ctx, user.ID, ProfileUpdate{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Update(ctx, uuid.New(), ProfileUpdate{Username: &uname})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAddressBookIsAppendOnly(t *testing.T) {
	f := newAuthFixture(t)
	user := f.register(t, "a@x.com", "secret1")
	svc := NewProfileService(f.store.Users(), f.store.Addresses())
	ctx := context.Background()

	_, err := svc.AddAddress(ctx, user.ID, AddressInput{FirstName: "Asha", Address: "12 MG Road"})
	require.NoError(t, err)
	_, err = svc.AddAddress(ctx, user.ID, AddressInput{FirstName: "Asha", Address: "12 MG Road"})
	require.NoError(t, err)
	_, err = svc.AddAddress(ctx, user.ID, AddressInput{FirstName: "Asha"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := svc.Addresses(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestInboxSubscribeOnce(t *testing.T) {
	f := newAuthFixture(t)
	svc := NewInboxService(f.store.Inbox(), zap.NewNop())
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, "news@x.com")
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, "NEWS@x.com")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	assert.NoError(t, svc.Contact(ctx, &models.ContactMessage{FirstName: "A", Email: "a@x.com", Message: "hi"}))
	assert.ErrorIs(t, svc.Contact(ctx, &models.ContactMessage{Email: "a@x.com"}), ErrInvalidInput)
	assert.NoError(t, svc.Support(ctx, &models.SupportTicket{Email: "a@x.com", Subject: "Refund", Message: "late"}))
	assert.ErrorIs(t, svc.Support(ctx, &models.SupportTicket{Email: "a@x.com"}), ErrInvalidInput)
}
