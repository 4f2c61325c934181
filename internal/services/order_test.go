package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services/memstore"
)

type recordingOrderNotifier struct {
	mu       sync.Mutex
	receipts []*Receipt
	done     chan struct{}
}

func (n *recordingOrderNotifier) NotifyNewOrder(_ context.Context, _ uuid.UUID, r *Receipt) error {
	n.mu.Lock()
	n.receipts = append(n.receipts, r)
	n.mu.Unlock()
	close(n.done)
	return nil
}

func newOrderService(store *memstore.Store, pricing PricingPolicy, notifier OrderNotifier) *OrderService {
	return NewOrderService(store, store.Orders(), store.Products(), pricing, notifier, zap.NewNop())
}

func checkoutLine(id uuid.UUID, qty int) CheckoutLine {
	return CheckoutLine{
		ProductID:      id,
		Quantity:       qty,
		PaymentMethod:  "card",
		BillingAddress: BillingAddress{FirstName: "Asha", LastName: "Rao", Email: "a@x.com", Address: "12 MG Road"},
	}
}

func TestPlaceOrderPersistsOneLinePerItem(t *testing.T) {
	store := memstore.New()
	shirt := seedProduct(store, "Shirt", "499.99")
	mug := seedProduct(store, "Mug", "120.50")
	userID := uuid.New()

	svc := newOrderService(store, nil, nil)
	receipt, err := svc.Place(context.Background(), userID, []CheckoutLine{
		checkoutLine(shirt.ID, 2),
		checkoutLine(mug.ID, 3),
	})
	require.NoError(t, err)

	lines := store.OrderLines()
	require.Len(t, lines, 2)
	require.Len(t, receipt.Orders, 2)
	assert.Len(t, receipt.BilledAddresses, 2)
	assert.Len(t, receipt.Products, 2)

	sum := decimal.Zero
	for _, line := range lines {
		assert.Equal(t, receipt.TrackingID, line.TrackingID)
		assert.Equal(t, models.OrderStatusPlaced, line.Status)
		assert.Equal(t, "12 MG Road", line.BillingAddress)
		assert.Equal(t, userID, line.UserID)
		assert.True(t, line.Tax.IsZero())
		assert.True(t, line.ShippingCost.IsZero())
		sum = sum.Add(line.Total)
	}
	assert.True(t, sum.Equal(receipt.Sums.Total))
	assert.Equal(t, "1361.48", receipt.Sums.Total.StringFixed(2))
	assert.Equal(t, "999.98", receipt.Orders[0].Subtotal.StringFixed(2))
}

func TestPlaceOrderMissingProductWritesNothing(t *testing.T) {
	store := memstore.New()
	shirt := seedProduct(store, "Shirt", "10.00")

	svc := newOrderService(store, nil, nil)
	_, err := svc.Place(context.Background(), uuid.New(), []CheckoutLine{
		checkoutLine(shirt.ID, 1),
		checkoutLine(uuid.New(), 1),
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, store.OrderLines())
}

func TestPlaceOrderStoreFailureRollsBack(t *testing.T) {
	store := memstore.New()
	shirt := seedProduct(store, "Shirt", "10.00")
	store.Fail("orders.CreateLine", errors.New("disk full"))

	svc := newOrderService(store, nil, nil)
	_, err := svc.Place(context.Background(), uuid.New(), []CheckoutLine{checkoutLine(shirt.ID, 1)})
	assert.ErrorIs(t, err, ErrStore)
	assert.Empty(t, store.OrderLines())
}

func TestPlaceOrderAppliesPricingPolicy(t *testing.T) {
	store := memstore.New()
	shirt := seedProduct(store, "Shirt", "100.00")

	pricing := FlatPricing{TaxAmount: decimal.RequireFromString("18"), ShippingAmount: decimal.RequireFromString("40")}
	svc := newOrderService(store, pricing, nil)
	receipt, err := svc.Place(context.Background(), uuid.New(), []CheckoutLine{checkoutLine(shirt.ID, 2)})
	require.NoError(t, err)

	assert.Equal(t, "200.00", receipt.Sums.Subtotal.StringFixed(2))
	assert.Equal(t, "18.00", receipt.Sums.Tax.StringFixed(2))
	assert.Equal(t, "40.00", receipt.Sums.Shipping.StringFixed(2))
	assert.Equal(t, "258.00", receipt.Sums.Total.StringFixed(2))
}

func TestPlaceOrderValidation(t *testing.T) {
	store := memstore.New()
	shirt := seedProduct(store, "Shirt", "10.00")
	svc := newOrderService(store, nil, nil)

	_, err := svc.Place(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrEmptyCheckout)

	_, err = svc.Place(context.Background(), uuid.New(), []CheckoutLine{checkoutLine(shirt.ID, 0)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	line := checkoutLine(shirt.ID, 1)
	line.BillingAddress.Address = " "
	_, err = svc.Place(context.Background(), uuid.New(), []CheckoutLine{line})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestTrackingIDCollisionIsRetried(t *testing.T) {
	store := memstore.New()
	shirt := seedProduct(store, "Shirt", "10.00")
	svc := newOrderService(store, nil, nil)

	ids := []string{"TAKEN", "TAKEN", "FRESH"}
	svc.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	require.NoError(t, store.Orders().CreateLine(context.Background(), &models.OrderLine{TrackingID: "TAKEN"}))

	receipt, err := svc.Place(context.Background(), uuid.New(), []CheckoutLine{checkoutLine(shirt.ID, 1)})
	require.NoError(t, err)
	assert.Equal(t, "FRESH", receipt.TrackingID)

	svc.newID = func() string { return "TAKEN" }
	_, err = svc.Place(context.Background(), uuid.New(), []CheckoutLine{checkoutLine(shirt.ID, 1)})
	assert.ErrorIs(t, err, ErrStore)
}

func TestDefaultTrackingIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := newTrackingID()
		assert.Len(t, id, 26)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestOrderNotifierRunsAfterCommit(t *testing.T) {
	store := memstore.New()
	shirt := seedProduct(store, "Shirt", "10.00")
	notifier := &recordingOrderNotifier{done: make(chan struct{})}

	svc := newOrderService(store, nil, notifier)
	receipt, err := svc.Place(context.Background(), uuid.New(), []CheckoutLine{checkoutLine(shirt.ID, 1)})
	require.NoError(t, err)

	<-notifier.done
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	require.Len(t, notifier.receipts, 1)
	assert.Equal(t, receipt.TrackingID, notifier.receipts[0].TrackingID)
}

func TestOrderHistoryAndReceipt(t *testing.T) {
	store := memstore.New()
	shirt := seedProduct(store, "Shirt", "10.00")
	userID := uuid.New()
	svc := newOrderService(store, nil, nil)
	ctx := context.Background()

	placed, err := svc.Place(ctx, userID, []CheckoutLine{checkoutLine(shirt.ID, 1), checkoutLine(shirt.ID, 4)})
	require.NoError(t, err)
	_, err = svc.Place(ctx, uuid.New(), []CheckoutLine{checkoutLine(shirt.ID, 1)})
	require.NoError(t, err)

	history, err := svc.History(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	receipt, err := svc.Receipt(ctx, userID, placed.TrackingID)
	require.NoError(t, err)
	assert.True(t, receipt.Sums.Total.Equal(placed.Sums.Total))
	assert.Len(t, receipt.Products, 2)

	_, err = svc.Receipt(ctx, uuid.New(), placed.TrackingID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
