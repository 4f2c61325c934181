package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
	"github.com/example/storefront/internal/services/memstore"
)

func seedCatalog(t *testing.T) (*memstore.Store, models.Category, []models.Product) {
	t.Helper()
	store := memstore.New()
	shirts := store.SeedCategory(models.Category{Name: "Shirts"})
	products := []models.Product{
		store.SeedProduct(models.Product{Name: "Linen shirt", Type: "men", Price: decimal.RequireFromString("899"), Rating: 4.1, CategoryID: &shirts.ID}),
		store.SeedProduct(models.Product{Name: "Silk shirt", Type: "women", Price: decimal.RequireFromString("1299"), Rating: 4.8, CategoryID: &shirts.ID}),
		store.SeedProduct(models.Product{Name: "Canvas bag", Type: "women", Price: decimal.RequireFromString("499"), Rating: 3.9}),
	}
	return store, shirts, products
}

func names(ps []models.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestCatalogSortByIDs(t *testing.T) {
	store, _, ps := seedCatalog(t)
	svc := NewCatalogService(store.Products())
	ids := []uuid.UUID{ps[0].ID, ps[1].ID, ps[2].ID, uuid.New()}

	got, err := svc.SortByIDs(context.Background(), ids, repository.SortPriceAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Canvas bag", "Linen shirt", "Silk shirt"}, names(got))

	got, err = svc.SortByIDs(context.Background(), ids, repository.SortRating)
	require.NoError(t, err)
	assert.Equal(t, []string{"Silk shirt", "Linen shirt", "Canvas bag"}, names(got))

	_, err = svc.SortByIDs(context.Background(), ids, "newest")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalogFilters(t *testing.T) {
	store, shirts, _ := seedCatalog(t)
	svc := NewCatalogService(store.Products())
	ctx := context.Background()

	got, err := svc.ByCategory(ctx, shirts.ID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.ByType(ctx, "women")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = svc.ByType(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	minPrice := decimal.RequireFromString("500")
	got, total, err := svc.List(ctx, repository.ProductFilter{MinPrice: &minPrice, Sort: repository.SortPriceDesc, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []string{"Silk shirt"}, names(got))

	maxPrice := decimal.RequireFromString("100")
	_, _, err = svc.List(ctx, repository.ProductFilter{MinPrice: &minPrice, MaxPrice: &maxPrice})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalogGetIncludesImages(t *testing.T) {
	store, _, ps := seedCatalog(t)
	store.SeedImage(models.ProductImage{ProductID: ps[0].ID, Image: "b.jpg", DisplayOrder: 2})
	store.SeedImage(models.ProductImage{ProductID: ps[0].ID, Image: "a.jpg", DisplayOrder: 1})
	svc := NewCatalogService(store.Products())

	product, err := svc.Get(context.Background(), ps[0].ID)
	require.NoError(t, err)
	require.Len(t, product.Images, 2)
	assert.Equal(t, "a.jpg", product.Images[0].Image)

	_, err = svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}
