package services

import (
	"context"
	"fmt"

	"github.com/appforge/backend/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type MessageSender interface {
	SendMessage(ctx context.Context, req SendMessageRequest) error
}

// ModerationNotifier posts moderation requests to the moderators' chat with
// approve and reject buttons.
type ModerationNotifier struct {
	sender MessageSender
	chatID int64
	log    *zap.Logger
}

func NewModerationNotifier(sender MessageSender, chatID int64, log *zap.Logger) *ModerationNotifier {
	return &ModerationNotifier{sender: sender, chatID: chatID, log: log}
}

func (n *ModerationNotifier) HandleEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.EventModerationRequested {
		return nil
	}

	kind, _ := event.Payload["kind"].(string)
	rawID, _ := event.Payload["id"].(string)
	name, _ := event.Payload["name"].(string)
	owner := event.Address()

	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("moderation event has invalid id %q: %w", rawID, err)
	}

	text := fmt.Sprintf("New %s awaiting moderation\n\nName: %s\nOwner: %s\nID: %s", kind, name, owner, id)
	return n.sender.SendMessage(ctx, SendMessageRequest{
		ChatID: n.chatID,
		Text:   text,
		ReplyMarkup: &InlineKeyboardMarkup{
			InlineKeyboard: [][]InlineKeyboardButton{{
				{Text: "Approve", CallbackData: CallbackData(DecisionApprove, kind, id)},
				{Text: "Reject", CallbackData: CallbackData(DecisionReject, kind, id)},
			}},
		},
	})
}
