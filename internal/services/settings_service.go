package services

import (
	"context"
	"fmt"

	"github.com/appforge/backend/internal/models"
	"go.uber.org/zap"
)

type SettingsPatch struct {
	ModerationEnabled *bool
	SubmissionsOpen   *bool
}

type SettingsService struct {
	store SettingsStore
	audit AuditLogger
	log   *zap.Logger
}

func NewSettingsService(store SettingsStore, audit AuditLogger, log *zap.Logger) *SettingsService {
	return &SettingsService{store: store, audit: audit, log: log}
}

func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	return s.store.Get(ctx)
}

func (s *SettingsService) Update(ctx context.Context, actor string, patch SettingsPatch) (models.Settings, error) {
	changes := map[string]any{}
	if patch.ModerationEnabled != nil {
		if err := s.store.Set(ctx, models.SettingModerationEnabled, *patch.ModerationEnabled); err != nil {
			return models.Settings{}, fmt.Errorf("set %s: %w", models.SettingModerationEnabled, err)
		}
		changes[models.SettingModerationEnabled] = *patch.ModerationEnabled
	}
	if patch.SubmissionsOpen != nil {
		if err := s.store.Set(ctx, models.SettingSubmissionsOpen, *patch.SubmissionsOpen); err != nil {
			return models.Settings{}, fmt.Errorf("set %s: %w", models.SettingSubmissionsOpen, err)
		}
		changes[models.SettingSubmissionsOpen] = *patch.SubmissionsOpen
	}

	if len(changes) > 0 {
		_ = s.audit.Log(ctx, models.AuditLog{
			ActorAddress: &actor,
			ActorType:    "admin",
			Action:       "settings_updated",
			EntityType:   "settings",
			Meta:         changes,
		})
		s.log.Info("settings updated", zap.String("actor", actor), zap.Any("changes", changes))
	}

	return s.store.Get(ctx)
}
