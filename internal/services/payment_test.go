package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/services/memstore"
)

type fakeProvider struct {
	amount   int64
	currency string
	err      error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) CreateIntent(_ context.Context, amountMinor int64, currency string) (*ProviderIntent, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.amount, p.currency = amountMinor, currency
	return &ProviderIntent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

func TestPaymentIntentPricesItemsServerSide(t *testing.T) {
	store := memstore.New()
	shirt := seedProduct(store, "Shirt", "499.99")
	provider := &fakeProvider{}
	svc := NewPaymentService(provider, store.Products(), store.Payments(), "INR", zap.NewNop())

	res, err := svc.CreateIntent(context.Background(), uuid.New(), []CartItem{{ProductID: shirt.ID, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret", res.ClientSecret)
	assert.Equal(t, int64(149997), provider.amount)
	assert.Equal(t, "inr", provider.currency)

	intents := store.Intents()
	require.Len(t, intents, 1)
	assert.Equal(t, "pi_1", intents[0].ProviderID)
	assert.Equal(t, "1499.97", intents[0].Amount.StringFixed(2))
}

func TestPaymentIntentFailures(t *testing.T) {
	store := memstore.New()
	shirt := seedProduct(store, "Shirt", "10")
	ctx := context.Background()

	svc := NewPaymentService(nil, store.Products(), store.Payments(), "inr", zap.NewNop())
	_, err := svc.CreateIntent(ctx, uuid.New(), []CartItem{{ProductID: shirt.ID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrPaymentUnavailable)

	svc = NewPaymentService(&fakeProvider{err: errors.New("card_declined")}, store.Products(), store.Payments(), "inr", zap.NewNop())
	_, err = svc.CreateIntent(ctx, uuid.New(), []CartItem{{ProductID: shirt.ID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrPayment)

	_, err = svc.CreateIntent(ctx, uuid.New(), []CartItem{{ProductID: uuid.New(), Quantity: 1}})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.CreateIntent(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrEmptyCheckout)
	assert.Empty(t, store.Intents())
}
