package models

// Feature flag keys
const (
	SettingModerationEnabled = "moderation_enabled"
	SettingSubmissionsOpen   = "submissions_open"
)

type Settings struct {
	ModerationEnabled bool `json:"moderation_enabled"`
	SubmissionsOpen   bool `json:"submissions_open"`
}
