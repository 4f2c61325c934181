package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateOTP returns a numeric code of the given length. Leading zeros are kept.
func GenerateOTP(digits int) (string, error) {
	var b strings.Builder
	b.Grow(digits)
	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// OTPExpiry clears stored codes once their lifetime is over. Verification
// checks the expiry timestamp itself, so a late or missed clear never
// lets an expired code through.
type OTPExpiry struct {
	store CredentialStore
	log   *zap.Logger

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
}

func NewOTPExpiry(store CredentialStore, log *zap.Logger) *OTPExpiry {
	return &OTPExpiry{store: store, log: log, timers: make(map[uuid.UUID]*time.Timer)}
}

// Schedule clears the code of credential id after ttl, replacing any
// pending clear for the same credential.
func (e *OTPExpiry) Schedule(id uuid.UUID, ttl time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if t, ok := e.timers[id]; ok {
		t.Stop()
	}
	e.timers[id] = time.AfterFunc(ttl, func() {
		e.mu.Lock()
		delete(e.timers, id)
		e.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.store.ClearOTP(ctx, id); err != nil {
			e.log.Warn("otp auto-clear failed", zap.String("credential_id", id.String()), zap.Error(err))
		}
	})
}

// Cancel drops a pending clear. Cancelling an unknown id is a no-op.
func (e *OTPExpiry) Cancel(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.timers[id]; ok {
		t.Stop()
		delete(e.timers, id)
	}
}

// Pending returns the number of scheduled clears.
func (e *OTPExpiry) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers)
}

// Stop cancels every pending clear.
func (e *OTPExpiry) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}
