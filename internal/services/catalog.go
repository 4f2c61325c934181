package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

// CatalogService serves read-only product browsing.
type CatalogService struct {
	products ProductStore
}

func NewCatalogService(products ProductStore) *CatalogService {
	return &CatalogService{products: products}
}

func (s *CatalogService) List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int64, error) {
	if !repository.ValidSort(filter.Sort) {
		return nil, 0, ErrInvalidInput.WithMessage("sort must be rating, priceAsc or priceDesc")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, 0, ErrInvalidInput.WithMessage("min_price is greater than max_price")
	}
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, ErrStore.Wrap(err)
	}
	return products, total, nil
}

// Get returns one product with its gallery images.
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, ErrStore.Wrap(err)
	}
	images, err := s.products.ListImages(ctx, id)
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}
	product.Images = images
	return product, nil
}

// Overview returns the products with the given ids; unknown ids are skipped.
func (s *CatalogService) Overview(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	return s.SortByIDs(ctx, ids, "")
}

// SortByIDs orders an already filtered set of products by sort key.
func (s *CatalogService) SortByIDs(ctx context.Context, ids []uuid.UUID, sort string) ([]models.Product, error) {
	if !repository.ValidSort(sort) {
		return nil, ErrInvalidInput.WithMessage("sort must be rating, priceAsc or priceDesc")
	}
	products, err := s.products.FindByIDs(ctx, ids, sort)
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}
	return products, nil
}

func (s *CatalogService) ByCategory(ctx context.Context, categoryID uuid.UUID) ([]models.Product, error) {
	if categoryID == uuid.Nil {
		return nil, ErrInvalidInput.WithMessage("category_id is required")
	}
	products, _, err := s.products.List(ctx, repository.ProductFilter{CategoryID: &categoryID})
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}
	return products, nil
}

func (s *CatalogService) ByType(ctx context.Context, productType string) ([]models.Product, error) {
	if productType == "" {
		return nil, ErrInvalidInput.WithMessage("type is required")
	}
	products, _, err := s.products.List(ctx, repository.ProductFilter{Type: productType})
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}
	return products, nil
}

func (s *CatalogService) Images(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	images, err := s.products.ListImages(ctx, productID)
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}
	return images, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.products.ListCategories(ctx)
	if err != nil {
		return nil, ErrStore.Wrap(err)
	}
	return categories, nil
}
