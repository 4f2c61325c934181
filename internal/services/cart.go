package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
)

// CartItem is one client-held cart entry.
type CartItem struct {
	ProductID uuid.UUID `json:"id"`
	Quantity  int       `json:"quantity"`
}

// CartView is the persisted cart with the distinct products it references.
type CartView struct {
	Items    []models.CartLine `json:"cartItems"`
	Products []models.Product  `json:"productDetails"`
}

type CartService struct {
	carts CartStore
}

func NewCartService(carts CartStore) *CartService {
	return &CartService{carts: carts}
}

// Merge appends one row per item. Repeated merges add rows rather than
// updating existing ones. An empty list writes nothing.
func (s *CartService) Merge(ctx context.Context, userID uuid.UUID, items []CartItem) error {
	if len(items) == 0 {
		return nil
	}

	lines := make([]models.CartLine, 0, len(items))
	for _, item := range items {
		if item.ProductID == uuid.Nil || item.Quantity < 1 {
			return ErrInvalidInput.WithMessage("cart items need a product id and a positive quantity")
		}
		line := models.CartLine{UserID: userID, ProductID: item.ProductID, Quantity: item.Quantity}
		line.EnsureID()
		lines = append(lines, line)
	}

	if err := s.carts.CreateBatch(ctx, lines); err != nil {
		return ErrStore.Wrap(err)
	}
	return nil
}

func (s *CartService) List(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	lines, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}

	view := &CartView{Items: lines, Products: []models.Product{}}
	if view.Items == nil {
		view.Items = []models.CartLine{}
	}
	seen := make(map[uuid.UUID]bool)
	for _, line := range lines {
		if line.Product == nil || seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		view.Products = append(view.Products, *line.Product)
	}
	return view, nil
}
