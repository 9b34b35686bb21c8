package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/appforge/backend/internal/events"
	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/repositories"
	"github.com/appforge/backend/internal/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TemplateStore interface {
	Create(ctx context.Context, t *models.Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
	Update(ctx context.Context, t *models.Template) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, note *string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f repositories.ListFilter) ([]models.Template, error)
}

type SettingsStore interface {
	Get(ctx context.Context) (models.Settings, error)
	Set(ctx context.Context, key string, value bool) error
}

// InvalidSchemaError is returned when a template schema does not compile.
type InvalidSchemaError struct {
	Err error
}

func (e *InvalidSchemaError) Error() string { return e.Err.Error() }
func (e *InvalidSchemaError) Unwrap() error { return e.Err }

type TemplateInput struct {
	Name           string
	Description    *string
	JSONSchema     json.RawMessage
	AIPromptPrefix *string
}

type TemplateService struct {
	templates TemplateStore
	apps      AppStore
	settings  SettingsStore
	audit     AuditLogger
	publisher events.Publisher
	log       *zap.Logger
}

func NewTemplateService(templates TemplateStore, apps AppStore, settings SettingsStore, audit AuditLogger, publisher events.Publisher, log *zap.Logger) *TemplateService {
	return &TemplateService{
		templates: templates,
		apps:      apps,
		settings:  settings,
		audit:     audit,
		publisher: publisher,
		log:       log,
	}
}

// submissionStatus returns the status new or edited content starts in.
func submissionStatus(ctx context.Context, settings SettingsStore) (string, error) {
	s, err := settings.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	if !s.SubmissionsOpen {
		return "", ErrSubmissionsClosed
	}
	if s.ModerationEnabled {
		return models.StatusPending, nil
	}
	return models.StatusApproved, nil
}

func (s *TemplateService) Create(ctx context.Context, owner string, in TemplateInput) (*models.Template, error) {
	if _, err := schema.Compile(in.JSONSchema); err != nil {
		return nil, &InvalidSchemaError{Err: err}
	}

	status, err := submissionStatus(ctx, s.settings)
	if err != nil {
		return nil, err
	}

	t := &models.Template{
		OwnerAddress:   owner,
		Name:           in.Name,
		Description:    in.Description,
		JSONSchema:     in.JSONSchema,
		AIPromptPrefix: in.AIPromptPrefix,
		Status:         status,
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}

	s.logAction(ctx, owner, "template_created", t)
	if t.Status == models.StatusPending {
		s.requestModeration(ctx, t)
	}
	return t, nil
}

// Get returns a template visible to viewer: approved ones to everyone,
// others only to their owner.
func (s *TemplateService) Get(ctx context.Context, id uuid.UUID, viewer string) (*models.Template, error) {
	t, err := s.templates.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if !t.IsApproved() && t.OwnerAddress != viewer {
		return nil, ErrTemplateNotFound
	}
	return t, nil
}

func (s *TemplateService) ListApproved(ctx context.Context, limit, offset int) ([]models.Template, error) {
	status := models.StatusApproved
	return s.templates.List(ctx, repositories.ListFilter{Status: &status, Limit: limit, Offset: offset})
}

func (s *TemplateService) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]models.Template, error) {
	return s.templates.List(ctx, repositories.ListFilter{OwnerAddress: &owner, Limit: limit, Offset: offset})
}

// owned loads a template for a write by owner.
func (s *TemplateService) owned(ctx context.Context, id uuid.UUID, owner string) (*models.Template, error) {
	t, err := s.templates.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	if t.OwnerAddress != owner {
		return nil, ErrForbidden
	}
	return t, nil
}

// Update edits a template. Any edit re-enters moderation while it is enabled.
func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, owner string, in TemplateInput) (*models.Template, error) {
	t, err := s.owned(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if _, err := schema.Compile(in.JSONSchema); err != nil {
		return nil, &InvalidSchemaError{Err: err}
	}

	status, err := submissionStatus(ctx, s.settings)
	if err != nil {
		return nil, err
	}

	t.Name = in.Name
	t.Description = in.Description
	t.JSONSchema = in.JSONSchema
	t.AIPromptPrefix = in.AIPromptPrefix
	t.Status = status
	if err := s.templates.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}

	s.logAction(ctx, owner, "template_updated", t)
	if t.Status == models.StatusPending {
		s.requestModeration(ctx, t)
	}
	return t, nil
}

func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID, owner string) error {
	t, err := s.owned(ctx, id, owner)
	if err != nil {
		return err
	}

	n, err := s.apps.CountByTemplate(ctx, id)
	if err != nil {
		return fmt.Errorf("count apps: %w", err)
	}
	if n > 0 {
		return ErrTemplateInUse
	}

	if err := s.templates.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	s.logAction(ctx, owner, "template_deleted", t)
	return nil
}

func (s *TemplateService) logAction(ctx context.Context, actor, action string, t *models.Template) {
	id := t.ID.String()
	_ = s.audit.Log(ctx, models.AuditLog{
		ActorAddress: &actor,
		ActorType:    "user",
		Action:       action,
		EntityType:   models.KindTemplate,
		EntityID:     &id,
		Meta:         map[string]any{"status": t.Status},
	})
}

func (s *TemplateService) requestModeration(ctx context.Context, t *models.Template) {
	publishModerationRequest(ctx, s.publisher, s.log, models.KindTemplate, t.ID, t.OwnerAddress, t.Name)
}

func publishModerationRequest(ctx context.Context, p events.Publisher, log *zap.Logger, kind string, id uuid.UUID, owner, name string) {
	err := p.Publish(ctx, events.ChannelModeration, events.Event{
		Type: events.EventModerationRequested,
		Payload: map[string]any{
			"kind":          kind,
			"id":            id.String(),
			"owner_address": owner,
			"name":          name,
		},
	})
	if err != nil {
		log.Warn("failed to publish moderation request", zap.String("kind", kind), zap.Error(err))
	}
}
