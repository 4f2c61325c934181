package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/storefront/internal/repository"
	"github.com/example/storefront/internal/services"
	"github.com/example/storefront/internal/utils"
)

// ProductHandler serves product browsing.
type ProductHandler struct {
	catalog *services.CatalogService
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(catalog *services.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// ListProducts returns paginated products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	filter := repository.ProductFilter{
		Type:   c.Query("type"),
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   c.Query("sort"),
		Limit:  pg.Limit,
		Offset: pg.Offset,
	}

	if v := c.Query("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return badRequest("invalid category_id")
		}
		filter.CategoryID = &id
	}

	var err error
	if filter.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return err
	}
	if filter.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return err
	}

	products, total, err := h.catalog.List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       products,
		"pagination": pg.Meta(total),
	})
}

// GetProduct loads a product with its gallery.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest("invalid id")
	}

	product, err := h.catalog.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

// Images returns the gallery of one product.
func (h *ProductHandler) Images(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest("invalid id")
	}

	images, err := h.catalog.Images(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": images})
}

type idsRequest struct {
	IDs  []uuid.UUID `json:"ids"`
	Sort string      `json:"sort"`
}

// Overview returns the products for a list of ids, e.g. a guest cart.
func (h *ProductHandler) Overview(c *fiber.Ctx) error {
	var req idsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	products, err := h.catalog.Overview(c.UserContext(), req.IDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": products})
}

// Sort reorders a given set of products by rating or price.
func (h *ProductHandler) Sort(c *fiber.Ctx) error {
	var req idsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	products, err := h.catalog.SortByIDs(c.UserContext(), req.IDs, req.Sort)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": products})
}

func (h *ProductHandler) ByCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("categoryId"))
	if err != nil {
		return badRequest("invalid category id")
	}

	products, err := h.catalog.ByCategory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": products})
}

func (h *ProductHandler) ByType(c *fiber.Ctx) error {
	products, err := h.catalog.ByType(c.UserContext(), c.Params("type"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": products})
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	val, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, badRequest("invalid " + key)
	}
	return &val, nil
}
