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
	"github.com/appforge/backend/internal/services"
	"go.uber.org/zap"
)

// notify-bridge forwards moderation requests from redis to the Telegram
// moderators' chat. Decisions come back through the API webhook.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, _ := zap.NewProduction()
	defer log.Sync()

	if cfg.BotToken == "" || cfg.TelegramModerationChatID == 0 {
		log.Fatal("BOT_TOKEN and TELEGRAM_MODERATION_CHAT_ID are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	telegram := services.NewTelegramClient(cfg.TelegramAPIURL, cfg.BotToken, log)
	notifier := services.NewModerationNotifier(telegram, cfg.TelegramModerationChatID, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	err = subscriber.Subscribe(ctx, events.ChannelModeration, func(event events.Event) {
		log.Info("forwarding moderation request", zap.String("type", event.Type), zap.Any("id", event.Payload["id"]))
		if err := notifier.HandleEvent(ctx, event); err != nil {
			log.Warn("failed to notify moderators", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.Error(err))
	}

	log.Info("notify-bridge started", zap.Int64("chat_id", cfg.TelegramModerationChatID))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notify-bridge")
	cancel()
}
