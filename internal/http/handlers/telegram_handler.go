package handlers

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/appforge/backend/internal/config"
	"github.com/appforge/backend/internal/http/dto"
	"github.com/appforge/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

type callbackResponder interface {
	AnswerCallbackQuery(ctx context.Context, callbackQueryID, text string) error
	EditMessageText(ctx context.Context, chatID, messageID int64, text string) error
}

type TelegramUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

type TelegramChat struct {
	ID int64 `json:"id"`
}

type TelegramMessage struct {
	MessageID int64        `json:"message_id"`
	Chat      TelegramChat `json:"chat"`
	Text      string       `json:"text,omitempty"`
}

type TelegramCallbackQuery struct {
	ID      string           `json:"id"`
	From    TelegramUser     `json:"from"`
	Message *TelegramMessage `json:"message,omitempty"`
	Data    string           `json:"data"`
}

type TelegramUpdate struct {
	UpdateID      int64                  `json:"update_id"`
	CallbackQuery *TelegramCallbackQuery `json:"callback_query,omitempty"`
}

// TelegramHandler receives moderation button presses from the bot webhook.
type TelegramHandler struct {
	moderation moderationDecider
	bot        callbackResponder
	cfg        *config.Config
	log        *zap.Logger
}

func NewTelegramHandler(moderation moderationDecider, bot callbackResponder, cfg *config.Config, log *zap.Logger) *TelegramHandler {
	return &TelegramHandler{moderation: moderation, bot: bot, cfg: cfg, log: log}
}

// Webhook always answers 200 for authenticated requests so Telegram does
// not redeliver updates that were rejected on purpose. Without a configured
// secret every update is refused: the sender id in the body is the only
// moderator credential.
func (h *TelegramHandler) Webhook(c *fiber.Ctx) error {
	if h.cfg.TelegramWebhookSecret == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "webhook secret not configured"})
	}
	got := c.Get(telegramSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.cfg.TelegramWebhookSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid secret token"})
	}

	var update TelegramUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid update"})
	}

	cb := update.CallbackQuery
	if cb == nil {
		return c.JSON(dto.SuccessResponse{OK: true})
	}

	ctx := c.UserContext()
	answer := h.handleCallback(ctx, cb)

	if err := h.bot.AnswerCallbackQuery(ctx, cb.ID, answer); err != nil {
		h.log.Warn("failed to answer callback query", zap.Error(err))
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}

func (h *TelegramHandler) handleCallback(ctx context.Context, cb *TelegramCallbackQuery) string {
	if !h.cfg.IsModerator(cb.From.ID) {
		h.log.Warn("moderation attempt from non-moderator", zap.Int64("telegram_id", cb.From.ID))
		return "You are not a moderator"
	}

	decision, kind, id, err := services.ParseCallbackData(cb.Data)
	if err != nil {
		h.log.Debug("bad callback data", zap.String("data", cb.Data), zap.Error(err))
		return "Unknown action"
	}

	res, err := h.moderation.Decide(ctx, kind, id, decision, nil, services.Moderator{TelegramID: cb.From.ID})
	if err != nil {
		h.log.Info("moderation decision failed", zap.String("kind", kind), zap.String("id", id.String()), zap.Error(err))
		return "Failed: " + err.Error()
	}

	if cb.Message != nil {
		text := fmt.Sprintf("%s %q (%s) is now %s", kind, res.Name, res.ID, res.Status)
		if err := h.bot.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID, text); err != nil {
			h.log.Warn("failed to edit moderation message", zap.Error(err))
		}
	}
	return "Done: " + res.Status
}
