package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/services"
)

// InboxHandler accepts newsletter, contact and support submissions.
type InboxHandler struct {
	inbox *services.InboxService
}

func NewInboxHandler(inbox *services.InboxService) *InboxHandler {
	return &InboxHandler{inbox: inbox}
}

type subscribeRequest struct {
	Email string `json:"subscribeEmail"`
}

func (h *InboxHandler) Subscribe(c *fiber.Ctx) error {
	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid request body")
	}

	sub, err := h.inbox.Subscribe(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": sub})
}

func (h *InboxHandler) Contact(c *fiber.Ctx) error {
	var msg models.ContactMessage
	if err := c.BodyParser(&msg); err != nil {
		return badRequest("invalid request body")
	}

	if err := h.inbox.Contact(c.UserContext(), &msg); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": "message received"})
}

func (h *InboxHandler) Support(c *fiber.Ctx) error {
	var ticket models.SupportTicket
	if err := c.BodyParser(&ticket); err != nil {
		return badRequest("invalid request body")
	}

	if err := h.inbox.Support(c.UserContext(), &ticket); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": fiber.Map{"id": ticket.ID}})
}
