package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type intentRequest struct {
	Items []services.CartItem `json:"items"`
}

// CreateIntent prices the items and returns the provider client secret.
func (h *PaymentHandler) CreateIntent(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req intentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	res, err := h.payments.CreateIntent(c.UserContext(), userID, req.Items)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": res})
}
