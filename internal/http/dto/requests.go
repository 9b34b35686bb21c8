package dto

import "encoding/json"

// Auth

type RegisterRequest struct {
	Address   string `json:"address" validate:"required,eth_addr"`
	Signature string `json:"signature" validate:"required"`
}

type NonceRequest struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

type LoginRequest struct {
	Address   string `json:"address" validate:"required,eth_addr"`
	Nonce     string `json:"nonce" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// AI

type VerifyChallengeRequest struct {
	Address   string `json:"address" validate:"required,eth_addr"`
	Challenge string `json:"challenge" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type ProcessPromptRequest struct {
	Prompt     string `json:"prompt" validate:"required,max=4000"`
	TemplateID string `json:"templateId" validate:"required,uuid"`
	Challenge  string `json:"challenge" validate:"required"`
	Signature  string `json:"signature" validate:"required"`
}

// Templates

type TemplateRequest struct {
	Name           string          `json:"name" validate:"required,max=200"`
	Description    *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	JSONSchema     json.RawMessage `json:"json_schema" validate:"required"`
	AIPromptPrefix *string         `json:"ai_prompt_prefix,omitempty" validate:"omitempty,max=4000"`
}

// Apps

type CreateAppRequest struct {
	TemplateID string          `json:"template_id" validate:"required,uuid"`
	Name       string          `json:"name" validate:"required,max=200"`
	Data       json.RawMessage `json:"data"`
}

type UpdateAppRequest struct {
	Name string          `json:"name" validate:"required,max=200"`
	Data json.RawMessage `json:"data"`
}

// Admin

type ModerationDecisionRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=approve reject"`
	Note     *string `json:"note,omitempty" validate:"omitempty,max=1000"`
}

type UpdateSettingsRequest struct {
	ModerationEnabled *bool `json:"moderation_enabled,omitempty"`
	SubmissionsOpen   *bool `json:"submissions_open,omitempty"`
}
