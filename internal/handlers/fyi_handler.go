package handlers

import (
	"errors"

	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/middleware"
	"github.com/fyihq/fyi-server/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type FYIHandler struct {
	fyiService        *services.FYIService
	engagementService *services.EngagementService
}

func NewFYIHandler(fyiService *services.FYIService, engagementService *services.EngagementService) *FYIHandler {
	return &FYIHandler{fyiService: fyiService, engagementService: engagementService}
}

// CreateFYI handles POST /api/fyis
func (h *FYIHandler) CreateFYI(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CreateFYIRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	resp := h.fyiService.CreateFYI(phone, &req)
	if !resp.Success {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetActiveFYI handles GET /api/fyis/active
func (h *FYIHandler) GetActiveFYI(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	fyi, err := h.fyiService.GetUserActiveFYI(phone)
	if err != nil {
		if errors.Is(err, services.ErrFYINotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "No active FYI",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load active FYI",
		})
	}

	return c.JSON(fyi)
}

// GetFYI handles GET /api/fyis/:id
func (h *FYIHandler) GetFYI(c *fiber.Ctx) error {
	if _, err := middleware.CurrentPhone(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	fyiID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid FYI id",
		})
	}

	fyi, err := h.fyiService.GetFYI(fyiID)
	if err != nil {
		if errors.Is(err, services.ErrFYINotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "FYI not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load FYI",
		})
	}

	return c.JSON(fyi)
}

// ListReactions handles GET /api/fyis/:id/reactions
func (h *FYIHandler) ListReactions(c *fiber.Ctx) error {
	if _, err := middleware.CurrentPhone(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	fyiID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid FYI id",
		})
	}

	return c.JSON(fiber.Map{"reactions": h.fyiService.Reactions(fyiID)})
}

// ListSeenBy handles GET /api/fyis/:id/seen-by
func (h *FYIHandler) ListSeenBy(c *fiber.Ctx) error {
	if _, err := middleware.CurrentPhone(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	fyiID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid FYI id",
		})
	}

	return c.JSON(fiber.Map{"seen_by": h.fyiService.SeenBy(fyiID)})
}

// AddReaction handles POST /api/fyis/:id/reactions
func (h *FYIHandler) AddReaction(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	fyiID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid FYI id",
		})
	}

	var req dto.ReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.engagementService.AddReaction(fyiID, phone, req.Emoji); err != nil {
		switch {
		case errors.Is(err, services.ErrFYINotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "FYI not found",
			})
		case errors.Is(err, services.ErrUnsupportedEmoji):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to add reaction",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// RemoveReaction handles DELETE /api/fyis/:id/reactions
func (h *FYIHandler) RemoveReaction(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	fyiID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid FYI id",
		})
	}

	if err := h.engagementService.RemoveReaction(fyiID, phone); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to remove reaction",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// MarkSeen handles POST /api/fyis/:id/seen
func (h *FYIHandler) MarkSeen(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	fyiID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid FYI id",
		})
	}

	if err := h.engagementService.MarkSeen(fyiID, phone); err != nil {
		if errors.Is(err, services.ErrFYINotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "FYI not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to mark as seen",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
