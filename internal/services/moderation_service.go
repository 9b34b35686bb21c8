package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/appforge/backend/internal/events"
	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Moderation decisions
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

var ErrUnknownKind = errors.New("unknown moderation kind")

// Moderator identifies who made a decision: an admin wallet or a Telegram moderator.
type Moderator struct {
	Address    string
	TelegramID int64
}

func (m Moderator) actor() (*string, string) {
	if m.Address != "" {
		addr := m.Address
		return &addr, "admin"
	}
	return nil, fmt.Sprintf("telegram:%d", m.TelegramID)
}

type ModerationResult struct {
	Kind         string    `json:"kind"`
	ID           uuid.UUID `json:"id"`
	OwnerAddress string    `json:"owner_address"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Note         *string   `json:"note,omitempty"`
}

type ModerationService struct {
	templates TemplateStore
	apps      AppStore
	audit     AuditLogger
	publisher events.Publisher
	log       *zap.Logger
}

func NewModerationService(templates TemplateStore, apps AppStore, audit AuditLogger, publisher events.Publisher, log *zap.Logger) *ModerationService {
	return &ModerationService{
		templates: templates,
		apps:      apps,
		audit:     audit,
		publisher: publisher,
		log:       log,
	}
}

func decisionStatus(decision string) (string, error) {
	switch decision {
	case DecisionApprove:
		return models.StatusApproved, nil
	case DecisionReject:
		return models.StatusRejected, nil
	}
	return "", fmt.Errorf("%w: unknown decision %q", ErrInvalidStatus, decision)
}

// Decide applies a moderation decision to a pending template or app and
// notifies its owner.
func (s *ModerationService) Decide(ctx context.Context, kind string, id uuid.UUID, decision string, note *string, by Moderator) (*ModerationResult, error) {
	to, err := decisionStatus(decision)
	if err != nil {
		return nil, err
	}

	var res *ModerationResult
	switch kind {
	case models.KindTemplate:
		res, err = s.decideTemplate(ctx, id, to, note)
	case models.KindApp:
		res, err = s.decideApp(ctx, id, to)
	default:
		return nil, ErrUnknownKind
	}
	if err != nil {
		return nil, err
	}
	res.Note = note

	actorAddr, actorType := by.actor()
	entityID := id.String()
	_ = s.audit.Log(ctx, models.AuditLog{
		ActorAddress: actorAddr,
		ActorType:    actorType,
		Action:       fmt.Sprintf("%s_%s", kind, to),
		EntityType:   kind,
		EntityID:     &entityID,
		Meta:         map[string]any{"decision": decision, "note": note},
	})

	payload := map[string]any{
		"kind":          kind,
		"id":            entityID,
		"owner_address": res.OwnerAddress,
		"name":          res.Name,
		"status":        res.Status,
	}
	if note != nil {
		payload["note"] = *note
	}
	if err := s.publisher.Publish(ctx, events.ChannelUser, events.Event{
		Type:    events.EventModerationDecided,
		Payload: payload,
	}); err != nil {
		s.log.Warn("failed to publish moderation decision", zap.Error(err))
	}

	s.log.Info("moderation decision applied",
		zap.String("kind", kind),
		zap.String("id", entityID),
		zap.String("status", to),
		zap.String("actor", actorType),
	)
	return res, nil
}

func (s *ModerationService) decideTemplate(ctx context.Context, id uuid.UUID, to string, note *string) (*ModerationResult, error) {
	t, err := s.templates.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if !models.IsValidTransition(t.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, t.Status, to)
	}
	if err := s.templates.UpdateStatus(ctx, id, t.Status, to, note); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, fmt.Errorf("%w: template changed concurrently", ErrInvalidStatus)
		}
		return nil, fmt.Errorf("update template status: %w", err)
	}
	return &ModerationResult{Kind: models.KindTemplate, ID: id, OwnerAddress: t.OwnerAddress, Name: t.Name, Status: to}, nil
}

func (s *ModerationService) decideApp(ctx context.Context, id uuid.UUID, to string) (*ModerationResult, error) {
	a, err := s.apps.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAppNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get app: %w", err)
	}
	if !models.IsValidTransition(a.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatus, a.Status, to)
	}
	if err := s.apps.UpdateStatus(ctx, id, a.Status, to); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return nil, fmt.Errorf("%w: app changed concurrently", ErrInvalidStatus)
		}
		return nil, fmt.Errorf("update app status: %w", err)
	}
	return &ModerationResult{Kind: models.KindApp, ID: id, OwnerAddress: a.OwnerAddress, Name: a.Name, Status: to}, nil
}

// CallbackData encodes a moderation button as "<decision>:<kind>:<id>".
func CallbackData(decision, kind string, id uuid.UUID) string {
	return decision + ":" + kind + ":" + id.String()
}

// ParseCallbackData is the inverse of CallbackData.
func ParseCallbackData(data string) (decision, kind string, id uuid.UUID, err error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return "", "", uuid.Nil, fmt.Errorf("malformed callback data %q", data)
	}
	if _, err := decisionStatus(parts[0]); err != nil {
		return "", "", uuid.Nil, err
	}
	if parts[1] != models.KindTemplate && parts[1] != models.KindApp {
		return "", "", uuid.Nil, ErrUnknownKind
	}
	id, err = uuid.Parse(parts[2])
	if err != nil {
		return "", "", uuid.Nil, fmt.Errorf("invalid id in callback data: %w", err)
	}
	return parts[0], parts[1], id, nil
}
