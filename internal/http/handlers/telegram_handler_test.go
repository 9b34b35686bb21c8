package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/appforge/backend/internal/config"
	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type decision struct {
	kind     string
	id       uuid.UUID
	decision string
	by       services.Moderator
}

type fakeDecider struct {
	decisions []decision
	err       error
}

func (d *fakeDecider) Decide(_ context.Context, kind string, id uuid.UUID, dec string, note *string, by services.Moderator) (*services.ModerationResult, error) {
	if d.err != nil {
		return nil, d.err
	}
	d.decisions = append(d.decisions, decision{kind: kind, id: id, decision: dec, by: by})
	return &services.ModerationResult{Kind: kind, ID: id, Name: "t", Status: models.StatusApproved}, nil
}

type fakeBot struct {
	answers []string
	edits   []string
}

func (b *fakeBot) AnswerCallbackQuery(_ context.Context, id, text string) error {
	b.answers = append(b.answers, text)
	return nil
}

func (b *fakeBot) EditMessageText(_ context.Context, chatID, messageID int64, text string) error {
	b.edits = append(b.edits, text)
	return nil
}

func newTelegramApp(d *fakeDecider, bot *fakeBot) *fiber.App {
	cfg := &config.Config{TelegramWebhookSecret: "s3cret", ModeratorTelegramIDs: []int64{42}}
	h := NewTelegramHandler(d, bot, cfg, zap.NewNop())
	app := fiber.New()
	app.Post("/api/telegram/webhook", h.Webhook)
	return app
}

func postUpdate(t *testing.T, app *fiber.App, secret string, update TelegramUpdate) int {
	t.Helper()
	b, _ := json.Marshal(update)
	req := httptest.NewRequest(http.MethodPost, "/api/telegram/webhook", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(telegramSecretHeader, secret)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestTelegramWebhook_Approve(t *testing.T) {
	d, bot := &fakeDecider{}, &fakeBot{}
	app := newTelegramApp(d, bot)
	id := uuid.New()

	status := postUpdate(t, app, "s3cret", TelegramUpdate{CallbackQuery: &TelegramCallbackQuery{
		ID:      "q1",
		From:    TelegramUser{ID: 42},
		Message: &TelegramMessage{MessageID: 7, Chat: TelegramChat{ID: -100}},
		Data:    services.CallbackData(services.DecisionApprove, models.KindTemplate, id),
	}})
	assert.Equal(t, http.StatusOK, status)

	require.Len(t, d.decisions, 1)
	assert.Equal(t, id, d.decisions[0].id)
	assert.Equal(t, int64(42), d.decisions[0].by.TelegramID)
	require.Len(t, bot.answers, 1)
	assert.Contains(t, bot.answers[0], "approved")
	assert.Len(t, bot.edits, 1)
}

func TestTelegramWebhook_RejectsBadSecret(t *testing.T) {
	d := &fakeDecider{}
	app := newTelegramApp(d, &fakeBot{})

	status := postUpdate(t, app, "wrong", TelegramUpdate{CallbackQuery: &TelegramCallbackQuery{From: TelegramUser{ID: 42}}})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, d.decisions)
}

func TestTelegramWebhook_RefusesWithoutConfiguredSecret(t *testing.T) {
	d, bot := &fakeDecider{}, &fakeBot{}
	cfg := &config.Config{ModeratorTelegramIDs: []int64{42}}
	app := fiber.New()
	app.Post("/api/telegram/webhook", NewTelegramHandler(d, bot, cfg, zap.NewNop()).Webhook)

	update := TelegramUpdate{CallbackQuery: &TelegramCallbackQuery{
		ID:   "q1",
		From: TelegramUser{ID: 42},
		Data: services.CallbackData(services.DecisionApprove, models.KindTemplate, uuid.New()),
	}}
	assert.Equal(t, http.StatusUnauthorized, postUpdate(t, app, "", update))
	assert.Equal(t, http.StatusUnauthorized, postUpdate(t, app, "anything", update))
	assert.Empty(t, d.decisions)
	assert.Empty(t, bot.answers)
}

func TestTelegramWebhook_NonModerator(t *testing.T) {
	d, bot := &fakeDecider{}, &fakeBot{}
	app := newTelegramApp(d, bot)

	status := postUpdate(t, app, "s3cret", TelegramUpdate{CallbackQuery: &TelegramCallbackQuery{
		ID:   "q1",
		From: TelegramUser{ID: 7},
		Data: services.CallbackData(services.DecisionApprove, models.KindApp, uuid.New()),
	}})
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, d.decisions)
	require.Len(t, bot.answers, 1)
	assert.Contains(t, bot.answers[0], "not a moderator")
}

func TestTelegramWebhook_IgnoresOtherUpdates(t *testing.T) {
	d, bot := &fakeDecider{}, &fakeBot{}
	app := newTelegramApp(d, bot)

	assert.Equal(t, http.StatusOK, postUpdate(t, app, "s3cret", TelegramUpdate{UpdateID: 1}))
	assert.Empty(t, bot.answers)
}
