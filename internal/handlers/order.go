package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

// OrderHandler exposes checkout and order history.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type placeOrderRequest struct {
	OrderData []services.CheckoutLine `json:"orderData"`
}

// Place turns the submitted lines into one tracked order.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	receipt, err := h.orders.Place(c.UserContext(), userID, req.OrderData)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "order placed",
		"data":    receipt,
	})
}

// List returns every order line of the signed-in user, newest first.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	lines, err := h.orders.History(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": lines})
}

// Receipt rebuilds the receipt of one tracking id.
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	receipt, err := h.orders.Receipt(c.UserContext(), userID, c.Params("trackingId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": receipt})
}
