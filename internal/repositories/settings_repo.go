package repositories

import (
	"context"
	"strconv"

	"github.com/appforge/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const settingsKey = "settings"

// SettingsRepo stores runtime feature flags in a redis hash.
type SettingsRepo struct {
	rdb      *redis.Client
	defaults models.Settings
}

func NewSettingsRepo(rdb *redis.Client, defaults models.Settings) *SettingsRepo {
	return &SettingsRepo{rdb: rdb, defaults: defaults}
}

// Get returns the current flags. Fields never written fall back to defaults.
func (r *SettingsRepo) Get(ctx context.Context) (models.Settings, error) {
	s := r.defaults

	vals, err := r.rdb.HGetAll(ctx, settingsKey).Result()
	if err != nil {
		return s, err
	}
	if v, ok := vals[models.SettingModerationEnabled]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.ModerationEnabled = b
		}
	}
	if v, ok := vals[models.SettingSubmissionsOpen]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.SubmissionsOpen = b
		}
	}
	return s, nil
}

func (r *SettingsRepo) Set(ctx context.Context, key string, value bool) error {
	return r.rdb.HSet(ctx, settingsKey, key, strconv.FormatBool(value)).Err()
}
