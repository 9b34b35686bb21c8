package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/appforge/backend/internal/config"
	"github.com/appforge/backend/internal/db"
	"github.com/appforge/backend/internal/events"
	apphttp "github.com/appforge/backend/internal/http"
	"github.com/appforge/backend/internal/http/dto"
	"github.com/appforge/backend/internal/http/handlers"
	"github.com/appforge/backend/internal/metrics"
	"github.com/appforge/backend/internal/middleware"
	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/repositories"
	"github.com/appforge/backend/internal/services"
	"github.com/appforge/backend/internal/wallet"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func newLogger(debug bool) *zap.Logger {
	if debug {
		log, _ := zap.NewDevelopment()
		return log
	}
	log, _ := zap.NewProduction()
	return log
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Debug)
	defer log.Sync()

	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, "appforge-api", log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if cfg.MigrationsEnabled {
		if err := db.RunMigrations(ctx, pool, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	m := metrics.New()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	templateRepo := repositories.NewTemplateRepo(pool)
	appRepo := repositories.NewAppRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)
	nonceRepo := repositories.NewNonceRepo(rdb)
	settingsRepo := repositories.NewSettingsRepo(rdb, models.Settings{
		ModerationEnabled: cfg.ModerationEnabledDefault,
		SubmissionsOpen:   cfg.SubmissionsOpenDefault,
	})

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	verifier := wallet.NewVerifier()
	userService := services.NewUserService(userRepo, nonceRepo, verifier, auditRepo, cfg.RegistrationMessage, cfg.LoginNonceTTL, log)
	aiUsageService := services.NewAIUsageService(userRepo, verifier, cfg.AIMaxRequestsPerDay, cfg.AIChallengeTTL, log,
		services.WithMetrics(m),
		services.WithAuditLog(auditRepo),
	)
	chatClient := services.NewChatClient(cfg.AIAPIURL, cfg.AIAPIKey, cfg.AITimeout, log)
	aiContentService := services.NewAIContentService(chatClient, cfg.AIModel, cfg.AITimeout, m, log)
	templateService := services.NewTemplateService(templateRepo, appRepo, settingsRepo, auditRepo, publisher, log)
	appService := services.NewAppService(appRepo, templateRepo, settingsRepo, auditRepo, publisher, log)
	moderationService := services.NewModerationService(templateRepo, appRepo, auditRepo, publisher, log)
	settingsService := services.NewSettingsService(settingsRepo, auditRepo, log)
	telegramClient := services.NewTelegramClient(cfg.TelegramAPIURL, cfg.BotToken, log)

	// Handlers
	wsHub := handlers.NewWSHub(cfg, subscriber, log)
	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to start ws hub", zap.Error(err))
	}

	h := apphttp.Handlers{
		Auth:     handlers.NewAuthHandler(userService, cfg, log),
		User:     handlers.NewUserHandler(userService, aiUsageService, cfg, log),
		AI:       handlers.NewAIHandler(aiUsageService, templateService, aiContentService, log),
		Template: handlers.NewTemplateHandler(templateService, log),
		App:      handlers.NewAppHandler(appService, log),
		Admin:    handlers.NewAdminHandler(moderationService, settingsService, auditRepo, log),
		Telegram: handlers.NewTelegramHandler(moderationService, telegramClient, cfg, log),
		WS:       wsHub,
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(dto.ErrorResponse{Error: err.Error(), RequestID: middleware.GetRequestID(c)})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, m, h)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
