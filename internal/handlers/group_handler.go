package handlers

import (
	"errors"

	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/middleware"
	"github.com/fyihq/fyi-server/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type GroupHandler struct {
	groupService *services.GroupService
}

func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// CreateGroup handles POST /api/groups
func (h *GroupHandler) CreateGroup(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	groupID, err := h.groupService.CreateGroup(phone, &req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"group_id": groupID})
}

// ListGroups handles GET /api/groups
func (h *GroupHandler) ListGroups(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	return c.JSON(fiber.Map{"groups": h.groupService.GetUserGroups(phone)})
}

// UpdateGroup handles PUT /api/groups/:id
func (h *GroupHandler) UpdateGroup(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid group id",
		})
	}

	var req dto.UpdateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.groupService.UpdateGroup(phone, groupID, &req); err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Group not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// DeleteGroup handles DELETE /api/groups/:id
func (h *GroupHandler) DeleteGroup(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid group id",
		})
	}

	if err := h.groupService.DeleteGroup(phone, groupID); err != nil {
		if errors.Is(err, services.ErrGroupNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Group not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete group",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
