package handlers

import (
	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/middleware"
	"github.com/fyihq/fyi-server/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ContactHandler struct {
	contactService *services.ContactService
}

func NewContactHandler(contactService *services.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// SyncContacts handles POST /api/contacts/sync
func (h *ContactHandler) SyncContacts(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.SyncContactsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp := h.contactService.SyncContacts(phone, req.Contacts)
	if !resp.Success {
		return c.Status(fiber.StatusInternalServerError).JSON(resp)
	}
	return c.JSON(resp)
}

// ShouldSync handles GET /api/contacts/should-sync
func (h *ContactHandler) ShouldSync(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	return c.JSON(fiber.Map{"should_sync": h.contactService.ShouldSync(phone)})
}

// ListMutual handles GET /api/contacts/mutual
func (h *ContactHandler) ListMutual(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	return c.JSON(fiber.Map{"contacts": h.contactService.MutualContacts(phone)})
}
