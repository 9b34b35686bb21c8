package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/appforge/backend/internal/events"
	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/repositories"
	"github.com/appforge/backend/internal/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppStore interface {
	Create(ctx context.Context, a *models.App) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.App, error)
	Update(ctx context.Context, a *models.App) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByTemplate(ctx context.Context, templateID uuid.UUID) (int, error)
	List(ctx context.Context, f repositories.ListFilter) ([]models.App, error)
}

// DataValidationError lists the schema violations of app data.
type DataValidationError struct {
	Errors []string
}

func (e *DataValidationError) Error() string {
	return "data does not match template schema: " + strings.Join(e.Errors, "; ")
}

type AppInput struct {
	TemplateID uuid.UUID
	Name       string
	Data       json.RawMessage
}

type AppService struct {
	apps      AppStore
	templates TemplateStore
	settings  SettingsStore
	audit     AuditLogger
	publisher events.Publisher
	log       *zap.Logger
}

func NewAppService(apps AppStore, templates TemplateStore, settings SettingsStore, audit AuditLogger, publisher events.Publisher, log *zap.Logger) *AppService {
	return &AppService{
		apps:      apps,
		templates: templates,
		settings:  settings,
		audit:     audit,
		publisher: publisher,
		log:       log,
	}
}

// validateData checks data against the schema of an approved template.
func (s *AppService) validateData(ctx context.Context, templateID uuid.UUID, data json.RawMessage) error {
	t, err := s.templates.GetByID(ctx, templateID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrTemplateNotFound
	}
	if err != nil {
		return fmt.Errorf("get template: %w", err)
	}
	if !t.IsApproved() {
		return ErrTemplateNotReady
	}

	if len(data) == 0 {
		data = json.RawMessage("{}")
	}
	errs, err := schema.Validate(t.JSONSchema, data)
	if err != nil {
		return &DataValidationError{Errors: []string{err.Error()}}
	}
	if len(errs) > 0 {
		return &DataValidationError{Errors: errs}
	}
	return nil
}

func (s *AppService) Create(ctx context.Context, owner string, in AppInput) (*models.App, error) {
	if err := s.validateData(ctx, in.TemplateID, in.Data); err != nil {
		return nil, err
	}

	status, err := submissionStatus(ctx, s.settings)
	if err != nil {
		return nil, err
	}

	a := &models.App{
		OwnerAddress: owner,
		TemplateID:   in.TemplateID,
		Name:         in.Name,
		Data:         in.Data,
		Status:       status,
	}
	if len(a.Data) == 0 {
		a.Data = json.RawMessage("{}")
	}
	if err := s.apps.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create app: %w", err)
	}

	s.logAction(ctx, owner, "app_created", a)
	if a.Status == models.StatusPending {
		publishModerationRequest(ctx, s.publisher, s.log, models.KindApp, a.ID, a.OwnerAddress, a.Name)
	}
	return a, nil
}

func (s *AppService) Get(ctx context.Context, id uuid.UUID, viewer string) (*models.App, error) {
	a, err := s.apps.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAppNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get app: %w", err)
	}
	if !a.IsApproved() && a.OwnerAddress != viewer {
		return nil, ErrAppNotFound
	}
	return a, nil
}

func (s *AppService) ListByOwner(ctx context.Context, owner string, limit, offset int) ([]models.App, error) {
	return s.apps.List(ctx, repositories.ListFilter{OwnerAddress: &owner, Limit: limit, Offset: offset})
}

func (s *AppService) owned(ctx context.Context, id uuid.UUID, owner string) (*models.App, error) {
	a, err := s.apps.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrAppNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get app: %w", err)
	}
	if a.OwnerAddress != owner {
		return nil, ErrForbidden
	}
	return a, nil
}

// Update replaces name and data. The template cannot change.
func (s *AppService) Update(ctx context.Context, id uuid.UUID, owner, name string, data json.RawMessage) (*models.App, error) {
	a, err := s.owned(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if err := s.validateData(ctx, a.TemplateID, data); err != nil {
		return nil, err
	}

	status, err := submissionStatus(ctx, s.settings)
	if err != nil {
		return nil, err
	}

	a.Name = name
	a.Data = data
	a.Status = status
	if err := s.apps.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update app: %w", err)
	}

	s.logAction(ctx, owner, "app_updated", a)
	if a.Status == models.StatusPending {
		publishModerationRequest(ctx, s.publisher, s.log, models.KindApp, a.ID, a.OwnerAddress, a.Name)
	}
	return a, nil
}

func (s *AppService) Delete(ctx context.Context, id uuid.UUID, owner string) error {
	a, err := s.owned(ctx, id, owner)
	if err != nil {
		return err
	}
	if err := s.apps.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete app: %w", err)
	}
	s.logAction(ctx, owner, "app_deleted", a)
	return nil
}

func (s *AppService) logAction(ctx context.Context, actor, action string, a *models.App) {
	id := a.ID.String()
	_ = s.audit.Log(ctx, models.AuditLog{
		ActorAddress: &actor,
		ActorType:    "user",
		Action:       action,
		EntityType:   models.KindApp,
		EntityID:     &id,
		Meta:         map[string]any{"status": a.Status, "template_id": a.TemplateID.String()},
	})
}
