package routes

import (
	"time"

	"github.com/fyihq/fyi-server/internal/config"
	"github.com/fyihq/fyi-server/internal/handlers"
	"github.com/fyihq/fyi-server/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	userHandler *handlers.UserHandler,
	contactHandler *handlers.ContactHandler,
	groupHandler *handlers.GroupHandler,
	fyiHandler *handlers.FYIHandler,
	timelineHandler *handlers.TimelineHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth is public but gets a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/request-code", authHandler.RequestCode)
	auth.Post("/verify-code", authHandler.VerifyCode)
	auth.Post("/refresh", authHandler.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Everything below requires a valid access token
	protected := api.Group("", middleware.JWTProtected(cfg))

	protected.Get("/me", userHandler.GetMe)
	protected.Put("/me", userHandler.UpdateMe)
	protected.Post("/me/complete-profile", userHandler.CompleteProfile)

	protected.Post("/contacts/sync", contactHandler.SyncContacts)
	protected.Get("/contacts/should-sync", contactHandler.ShouldSync)
	protected.Get("/contacts/mutual", contactHandler.ListMutual)

	protected.Post("/groups", groupHandler.CreateGroup)
	protected.Get("/groups", groupHandler.ListGroups)
	protected.Put("/groups/:id", groupHandler.UpdateGroup)
	protected.Delete("/groups/:id", groupHandler.DeleteGroup)

	protected.Post("/fyis", fyiHandler.CreateFYI)
	protected.Get("/fyis/active", fyiHandler.GetActiveFYI)
	protected.Get("/fyis/:id", fyiHandler.GetFYI)
	protected.Get("/fyis/:id/reactions", fyiHandler.ListReactions)
	protected.Post("/fyis/:id/reactions", fyiHandler.AddReaction)
	protected.Delete("/fyis/:id/reactions", fyiHandler.RemoveReaction)
	protected.Get("/fyis/:id/seen-by", fyiHandler.ListSeenBy)
	protected.Post("/fyis/:id/seen", fyiHandler.MarkSeen)

	protected.Get("/timeline", timelineHandler.GetTimeline)
	protected.Post("/timeline/rebuild", timelineHandler.Rebuild)
	protected.Get("/timeline/ws", timelineHandler.UpgradeRequired, timelineHandler.Stream())
}
