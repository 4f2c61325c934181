package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services/memstore"
	"github.com/example/storefront/internal/utils"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, msg Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) last(t *testing.T) Message {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no message sent")
	return n.sent[len(n.sent)-1]
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

var codePattern = regexp.MustCompile(`\b(\d{4})\b`)

func codeFrom(t *testing.T, msg Message) string {
	t.Helper()
	m := codePattern.FindStringSubmatch(msg.Body)
	require.Len(t, m, 2, "no code in %q", msg.Body)
	return m[1]
}

func testOTPConfig() config.OTPConfig {
	return config.OTPConfig{
		Digits:      4,
		TTL:         time.Minute,
		MaxAttempts: 5,
		RateWindow:  time.Minute,
		RateMax:     100,
	}
}

type authFixture struct {
	store    *memstore.Store
	notifier *fakeNotifier
	svc      *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	return newAuthFixtureWith(t, testOTPConfig())
}

func newAuthFixtureWith(t *testing.T, otp config.OTPConfig) *authFixture {
	t.Helper()
	store := memstore.New()
	notifier := &fakeNotifier{}
	log := zap.NewNop()
	expiry := NewOTPExpiry(store.Credentials(), log)
	t.Cleanup(expiry.Stop)

	svc := NewAuthService(AuthDeps{
		Tx:          store,
		Users:       store.Users(),
		Credentials: store.Credentials(),
		Cart:        NewCartService(store.Carts()),
		Notifier:    notifier,
		Limiter:     NewMemoryLimiter(otp),
		Tokens:      utils.NewTokenIssuer("test-secret"),
		Expiry:      expiry,
		Log:         log,
	}, AuthSettings{PendingTTL: 24 * time.Hour, SessionTTL: 24 * time.Hour, OTP: otp})

	return &authFixture{store: store, notifier: notifier, svc: svc}
}

func (f *authFixture) register(t *testing.T, email, password string) *models.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), RegisterInput{
		Email: email, Password: password, FirstName: "Asha", Phone: "5550100",
	})
	require.NoError(t, err)
	return user
}

// loginCode logs in and returns the pending token with the emailed code.
func (f *authFixture) loginCode(t *testing.T, email, password string) (string, string) {
	t.Helper()
	res, err := f.svc.Login(context.Background(), email, password)
	require.NoError(t, err)
	return res.PendingToken, codeFrom(t, f.notifier.last(t))
}

func seedProduct(store *memstore.Store, name string, price string) models.Product {
	return store.SeedProduct(models.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
	})
}

func wrongCode(code string) string {
	if code == "0000" {
		return "0001"
	}
	return "0000"
}
