package handlers

import (
	"log/slog"
	"strconv"

	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/middleware"
	"github.com/fyihq/fyi-server/internal/models"
	"github.com/fyihq/fyi-server/internal/services"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type TimelineHandler struct {
	timelineService *services.TimelineService
}

func NewTimelineHandler(timelineService *services.TimelineService) *TimelineHandler {
	return &TimelineHandler{timelineService: timelineService}
}

// GetTimeline handles GET /api/timeline
func (h *TimelineHandler) GetTimeline(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	pageSize := 0
	if raw := c.Query("page_size"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid page_size",
			})
		}
	}

	return c.JSON(h.timelineService.GetUserTimeline(phone, pageSize, c.Query("cursor")))
}

// Rebuild handles POST /api/timeline/rebuild
func (h *TimelineHandler) Rebuild(c *fiber.Ctx) error {
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	if err := h.timelineService.Rebuild(phone); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to rebuild timeline",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// UpgradeRequired gates the websocket route so non-upgrade requests get a
// clean 426 instead of a handler panic. It also stashes the authenticated
// phone in locals, since the upgraded connection no longer sees JWT claims.
func (h *TimelineHandler) UpgradeRequired(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	phone, err := middleware.CurrentPhone(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}
	c.Locals("phone", phone)
	return c.Next()
}

// Stream handles GET /api/timeline/ws. Each connected client gets the
// current timeline snapshot immediately and again whenever it changes.
// The subscription is torn down when the socket closes.
func (h *TimelineHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		phone, ok := conn.Locals("phone").(string)
		if !ok || phone == "" {
			conn.Close()
			return
		}

		updates := make(chan []models.TimelineItem, 1)
		unsubscribe := h.timelineService.Subscribe(phone, func(items []models.TimelineItem) {
			// Drop the stale pending snapshot if the client is slow.
			select {
			case updates <- items:
			default:
				select {
				case <-updates:
				default:
				}
				updates <- items
			}
		})
		defer unsubscribe()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case items := <-updates:
				if err := conn.WriteJSON(fiber.Map{"items": items}); err != nil {
					slog.Debug("timeline stream write failed", "phone", phone, "error", err)
					return
				}
			case <-done:
				return
			}
		}
	})
}
