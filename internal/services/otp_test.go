package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services/memstore"
)

func TestGenerateOTP(t *testing.T) {
	counts := map[byte]int{}
	for i := 0; i < 500; i++ {
		code, err := GenerateOTP(4)
		require.NoError(t, err)
		require.Len(t, code, 4)
		for j := 0; j < len(code); j++ {
			require.True(t, code[j] >= '0' && code[j] <= '9', "non digit in %q", code)
			counts[code[j]]++
		}
	}
	assert.Len(t, counts, 10, "every digit shows up")
}

func TestOTPExpiryClearsCode(t *testing.T) {
	store := memstore.New()
	user := models.User{Email: "a@x.com"}
	_, err := store.Users().FindOrCreate(context.Background(), &user)
	require.NoError(t, err)

	hash := "h"
	exp := time.Now().Add(time.Hour)
	cred := &models.Credential{UserID: user.ID, Purpose: models.PurposeLogin, TokenHash: "t", OTPHash: &hash, OTPExpiresAt: &exp, ExpiresAt: exp}
	require.NoError(t, store.Credentials().Issue(context.Background(), cred))

	expiry := NewOTPExpiry(store.Credentials(), zap.NewNop())
	defer expiry.Stop()
	expiry.Schedule(cred.ID, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		c, _ := store.Credentials().Get(cred.ID)
		return c.OTPHash == nil
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, expiry.Pending())
}

func TestOTPExpiryCancel(t *testing.T) {
	store := memstore.New()
	expiry := NewOTPExpiry(store.Credentials(), zap.NewNop())
	id := uuid.New()

	expiry.Schedule(id, time.Hour)
	expiry.Schedule(id, time.Hour)
	assert.Equal(t, 1, expiry.Pending(), "rescheduling replaces the timer")

	expiry.Cancel(id)
	expiry.Cancel(id)
	assert.Zero(t, expiry.Pending())

	expiry.Schedule(uuid.New(), time.Hour)
	expiry.Stop()
	assert.Zero(t, expiry.Pending())
}

func TestSuccessfulVerifyCancelsAutoClear(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@x.com", "secret1")
	pending, code := f.loginCode(t, "a@x.com", "secret1")
	assert.Equal(t, 1, f.svc.Expiry.Pending())

	_, err := f.svc.VerifyOTP(context.Background(), pending, code, nil)
	require.NoError(t, err)
	assert.Zero(t, f.svc.Expiry.Pending())
}
