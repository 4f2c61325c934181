package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

type CartHandler struct {
	carts *services.CartService
}

func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type cartRequest struct {
	CartItems []services.CartItem `json:"cartItems"`
}

// Merge appends the given items to the signed-in user's cart.
func (h *CartHandler) Merge(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req cartRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	if err := h.carts.Merge(c.UserContext(), userID, req.CartItems); err != nil {
		return err
	}

	view, err := h.carts.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": view})
}

func (h *CartHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	view, err := h.carts.List(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": view})
}
