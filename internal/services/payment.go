package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

// ProviderIntent is what a payment provider returns for a created intent.
type ProviderIntent struct {
	ID           string
	ClientSecret string
}

// PaymentProvider authorizes an amount given in minor currency units.
type PaymentProvider interface {
	Name() string
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (*ProviderIntent, error)
}

// IntentResult is handed to the client to confirm the payment.
type IntentResult struct {
	ClientSecret string          `json:"clientSecret"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
}

// PaymentService prices a cart from the catalog and opens a provider intent
// for the total. Client-sent prices are never trusted.
type PaymentService struct {
	provider PaymentProvider
	products ProductStore
	payments PaymentStore
	currency string
	log      *zap.Logger
}

func NewPaymentService(provider PaymentProvider, products ProductStore, payments PaymentStore, currency string, log *zap.Logger) *PaymentService {
	return &PaymentService{
		provider: provider,
		products: products,
		payments: payments,
		currency: strings.ToLower(currency),
		log:      log,
	}
}

var hundred = decimal.NewFromInt(100)

func (s *PaymentService) CreateIntent(ctx context.Context, userID uuid.UUID, items []CartItem) (*IntentResult, error) {
	if s.provider == nil {
		return nil, ErrPaymentUnavailable
	}
	if len(items) == 0 {
		return nil, ErrEmptyCheckout
	}

	amount := decimal.Zero
	for _, item := range items {
		if item.ProductID == uuid.Nil || item.Quantity < 1 {
			return nil, ErrInvalidInput.WithMessage("items need a product id and a positive quantity")
		}
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProductNotFound.WithMessage(fmt.Sprintf("product %s not found", item.ProductID))
			}
			return nil, ErrStore.Wrap(err)
		}
		amount = amount.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	minor := amount.Mul(hundred).Round(0).IntPart()
	if minor <= 0 {
		return nil, ErrInvalidInput.WithMessage("order amount must be positive")
	}

	intent, err := s.provider.CreateIntent(ctx, minor, s.currency)
	if err != nil {
		s.log.Error("create payment intent", zap.String("provider", s.provider.Name()), zap.Error(err))
		return nil, ErrPayment.Wrap(err)
	}

	record := &models.PaymentIntent{
		UserID:      userID,
		Provider:    s.provider.Name(),
		ProviderID:  intent.ID,
		Amount:      amount,
		AmountMinor: minor,
		Currency:    s.currency,
	}
	if err := s.payments.CreateIntent(ctx, record); err != nil {
		return nil, ErrStore.Wrap(err)
	}

	return &IntentResult{ClientSecret: intent.ClientSecret, Amount: amount, Currency: s.currency}, nil
}
