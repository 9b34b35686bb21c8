package http

import (
	"time"

	"github.com/appforge/backend/internal/config"
	"github.com/appforge/backend/internal/http/handlers"
	"github.com/appforge/backend/internal/metrics"
	"github.com/appforge/backend/internal/middleware"
	"github.com/appforge/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	User     *handlers.UserHandler
	AI       *handlers.AIHandler
	Template *handlers.TemplateHandler
	App      *handlers.AppHandler
	Admin    *handlers.AdminHandler
	Telegram *handlers.TelegramHandler
	WS       *handlers.WSHub
}

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	m *metrics.Metrics,
	h Handlers,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))
	app.Use(middleware.MetricsMiddleware(m))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api")

	// Telegram delivers from a small set of IPs, keep it out of the limiter
	api.Post("/telegram/webhook", h.Telegram.Webhook)

	// Identify callers before the limiter so authenticated traffic is
	// counted per wallet. authRequired still rejects missing tokens.
	api.Use(middleware.OptionalAuthMiddleware(cfg))
	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute, log))

	authRequired := middleware.AuthMiddleware(cfg, log)

	// Auth (public)
	api.Get("/auth/registration-message", h.Auth.RegistrationMessage)
	api.Post("/users/register", h.Auth.Register)
	api.Post("/auth/nonce", h.Auth.Nonce)
	api.Post("/auth/login", h.Auth.Login)

	// User
	api.Get("/users/me", authRequired, h.User.GetMe)

	// AI
	api.Get("/ai/challenge", authRequired, h.AI.GetChallenge)
	api.Post("/ai/verify-challenge", h.AI.VerifyChallenge)
	api.Get("/ai/remaining-requests", authRequired, h.AI.RemainingRequests)
	api.Post("/ai/process-prompt", authRequired, h.AI.ProcessPrompt)

	// Templates
	api.Get("/templates", h.Template.ListTemplates)
	api.Get("/templates/mine", authRequired, h.Template.MyTemplates)
	api.Get("/templates/:id", h.Template.GetTemplate)
	api.Post("/templates", authRequired, h.Template.CreateTemplate)
	api.Put("/templates/:id", authRequired, h.Template.UpdateTemplate)
	api.Delete("/templates/:id", authRequired, h.Template.DeleteTemplate)

	// Apps
	api.Get("/apps/mine", authRequired, h.App.MyApps)
	api.Get("/apps/:id", h.App.GetApp)
	api.Post("/apps", authRequired, h.App.CreateApp)
	api.Put("/apps/:id", authRequired, h.App.UpdateApp)
	api.Delete("/apps/:id", authRequired, h.App.DeleteApp)

	// Settings
	api.Get("/settings", h.Admin.GetSettings)

	// Admin
	admin := api.Group("/admin", authRequired)
	admin.Post("/moderation/:kind/:id", middleware.RequirePermission(cfg, rbac.PermModerate), h.Admin.Moderate)
	admin.Put("/settings", middleware.RequirePermission(cfg, rbac.PermManageSettings), h.Admin.UpdateSettings)
	admin.Get("/audit/:entity/:id", middleware.RequirePermission(cfg, rbac.PermViewAuditLog), h.Admin.AuditLog)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(h.WS.HandleWS))
}
