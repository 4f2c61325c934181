package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/models"
)

// Product sort keys.
const (
	SortRating    = "rating"
	SortPriceAsc  = "priceAsc"
	SortPriceDesc = "priceDesc"
)

// ProductFilter narrows a product listing. Zero values mean no constraint.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Type       string
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
	Limit      int
	Offset     int
}

// ValidSort reports whether key is a supported sort key; empty is allowed.
func ValidSort(key string) bool {
	switch key {
	case "", SortRating, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

func orderClause(key string) string {
	switch key {
	case SortRating:
		return "rating desc"
	case SortPriceAsc:
		return "price asc"
	case SortPriceDesc:
		return "price desc"
	default:
		return "created_at desc"
	}
}

type Products struct {
	db *gorm.DB
}

func NewProducts(db *gorm.DB) *Products {
	return &Products{db: db}
}

func (r *Products) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := conn(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// FindByIDs loads the given products ordered by sort; unknown ids are skipped.
func (r *Products) FindByIDs(ctx context.Context, ids []uuid.UUID, sort string) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	if err := conn(ctx, r.db).Where("id IN ?", ids).Order(orderClause(sort)).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return products, nil
}

// List returns one page of products matching filter plus the total match count.
func (r *Products) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := conn(ctx, r.db).Model(&models.Product{})

	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		q := "%" + search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", q, q)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	products := []models.Product{}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := query.Preload("Category").Order(orderClause(filter.Sort)).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func (r *Products) ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	images := []models.ProductImage{}
	if err := conn(ctx, r.db).Where("product_id = ?", productID).
		Order("display_order asc").Find(&images).Error; err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	return images, nil
}

func (r *Products) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := conn(ctx, r.db).Order("name asc").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}
