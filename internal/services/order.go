package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

const trackingIDAttempts = 3

// BillingAddress is the billing snapshot submitted with a checkout line.
type BillingAddress struct {
	FirstName string `json:"fname"`
	LastName  string `json:"lname"`
	Email     string `json:"email"`
	Address   string `json:"address"`
}

// CheckoutLine is one line of a checkout request.
type CheckoutLine struct {
	ProductID      uuid.UUID      `json:"id"`
	Quantity       int            `json:"quantity"`
	PaymentMethod  string         `json:"paymentMethod"`
	BillingAddress BillingAddress `json:"billingAddress"`
}

// Sums are the aggregate amounts of a checkout.
type Sums struct {
	Subtotal decimal.Decimal `json:"totalSubtotal"`
	Tax      decimal.Decimal `json:"totalTax"`
	Shipping decimal.Decimal `json:"totalShippingCost"`
	Total    decimal.Decimal `json:"totalTotal"`
}

func (s *Sums) add(line *models.OrderLine) {
	s.Subtotal = s.Subtotal.Add(line.Subtotal)
	s.Tax = s.Tax.Add(line.Tax)
	s.Shipping = s.Shipping.Add(line.ShippingCost)
	s.Total = s.Total.Add(line.Total)
}

// Receipt is the consolidated result of one checkout.
type Receipt struct {
	TrackingID      string             `json:"trackingId"`
	Orders          []models.OrderLine `json:"orders"`
	BilledAddresses []BillingAddress   `json:"billedAddresses"`
	Products        []models.Product   `json:"productData"`
	Sums            Sums               `json:"sums"`
}

// PricingPolicy supplies per-line tax and shipping.
type PricingPolicy interface {
	Tax(product *models.Product, quantity int, subtotal decimal.Decimal) decimal.Decimal
	Shipping(product *models.Product, quantity int, subtotal decimal.Decimal) decimal.Decimal
}

// FlatPricing charges fixed tax and shipping amounts per line. The zero
// value charges nothing.
type FlatPricing struct {
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
}

func (p FlatPricing) Tax(*models.Product, int, decimal.Decimal) decimal.Decimal {
	return p.TaxAmount
}

func (p FlatPricing) Shipping(*models.Product, int, decimal.Decimal) decimal.Decimal {
	return p.ShippingAmount
}

// OrderNotifier is told about committed checkouts.
type OrderNotifier interface {
	NotifyNewOrder(ctx context.Context, userID uuid.UUID, receipt *Receipt) error
}

type OrderService struct {
	tx       Transactor
	orders   OrderStore
	products ProductStore
	pricing  PricingPolicy
	notifier OrderNotifier
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewOrderService(tx Transactor, orders OrderStore, products ProductStore, pricing PricingPolicy, notifier OrderNotifier, log *zap.Logger) *OrderService {
	if pricing == nil {
		pricing = FlatPricing{}
	}
	return &OrderService{
		tx:       tx,
		orders:   orders,
		products: products,
		pricing:  pricing,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		newID:    newTrackingID,
	}
}

func newTrackingID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// Place prices and persists every line in one transaction. A missing
// product aborts the whole checkout and nothing is written.
func (s *OrderService) Place(ctx context.Context, userID uuid.UUID, lines []CheckoutLine) (*Receipt, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCheckout
	}
	for _, line := range lines {
		if line.ProductID == uuid.Nil || line.Quantity < 1 {
			return nil, ErrInvalidInput.WithMessage("each line needs a product id and a positive quantity")
		}
		if strings.TrimSpace(line.BillingAddress.Address) == "" {
			return nil, ErrInvalidInput.WithMessage("billing address is required")
		}
	}

	var receipt *Receipt
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		trackingID, err := s.allocateTrackingID(ctx)
		if err != nil {
			return err
		}

		receipt = &Receipt{
			TrackingID:      trackingID,
			Orders:          make([]models.OrderLine, 0, len(lines)),
			BilledAddresses: make([]BillingAddress, 0, len(lines)),
			Products:        make([]models.Product, 0, len(lines)),
		}
		placedAt := s.now()

		for _, req := range lines {
			product, err := s.products.FindByID(ctx, req.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrProductNotFound.WithMessage(fmt.Sprintf("product %s not found", req.ProductID))
				}
				return ErrStore.Wrap(err)
			}

			subtotal := product.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
			tax := s.pricing.Tax(product, req.Quantity, subtotal)
			shipping := s.pricing.Shipping(product, req.Quantity, subtotal)

			line := models.OrderLine{
				TrackingID:     trackingID,
				UserID:         userID,
				ProductID:      product.ID,
				Quantity:       req.Quantity,
				Subtotal:       subtotal,
				Tax:            tax,
				ShippingCost:   shipping,
				Total:          subtotal.Add(tax).Add(shipping),
				PaymentMethod:  req.PaymentMethod,
				Status:         models.OrderStatusPlaced,
				BillingAddress: req.BillingAddress.Address,
				PlacedAt:       placedAt,
			}
			if err := s.orders.CreateLine(ctx, &line); err != nil {
				return ErrStore.Wrap(err)
			}

			receipt.Sums.add(&line)
			receipt.Orders = append(receipt.Orders, line)
			receipt.BilledAddresses = append(receipt.BilledAddresses, req.BillingAddress)
			receipt.Products = append(receipt.Products, *product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersPlaced()
	s.log.Info("order placed",
		zap.String("tracking_id", receipt.TrackingID),
		zap.Int("lines", len(receipt.Orders)),
		zap.String("total", receipt.Sums.Total.StringFixed(2)),
	)

	if s.notifier != nil {
		go func(r *Receipt) {
			nctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.notifier.NotifyNewOrder(nctx, userID, r); err != nil {
				s.log.Warn("order notification failed", zap.String("tracking_id", r.TrackingID), zap.Error(err))
			}
		}(receipt)
	}
	return receipt, nil
}

func (s *OrderService) allocateTrackingID(ctx context.Context) (string, error) {
	for i := 0; i < trackingIDAttempts; i++ {
		id := s.newID()
		exists, err := s.orders.TrackingIDExists(ctx, id)
		if err != nil {
			return "", ErrStore.Wrap(err)
		}
		if !exists {
			return id, nil
		}
	}
	return "", ErrStore.Wrap(errors.New("could not allocate a unique tracking id"))
}

// History returns every order line of the user, newest first.
func (s *OrderService) History(ctx context.Context, userID uuid.UUID) ([]models.OrderLine, error) {
	lines, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}
	return lines, nil
}

// Receipt rebuilds the receipt of one of the user's checkouts.
func (s *OrderService) Receipt(ctx context.Context, userID uuid.UUID, trackingID string) (*Receipt, error) {
	lines, err := s.orders.ListByTrackingID(ctx, userID, trackingID)
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}
	if len(lines) == 0 {
		return nil, ErrOrderNotFound
	}

	receipt := &Receipt{
		TrackingID:      trackingID,
		Orders:          lines,
		BilledAddresses: make([]BillingAddress, 0, len(lines)),
		Products:        make([]models.Product, 0, len(lines)),
	}
	for i := range lines {
		receipt.Sums.add(&lines[i])
		receipt.BilledAddresses = append(receipt.BilledAddresses, BillingAddress{Address: lines[i].BillingAddress})
		if lines[i].Product != nil {
			receipt.Products = append(receipt.Products, *lines[i].Product)
		}
	}
	return receipt, nil
}
