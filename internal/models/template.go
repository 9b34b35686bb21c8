package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Moderation statuses shared by templates and apps
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Valid moderation transitions: from -> []to
var ValidModerationTransitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusPending},
	StatusRejected: {StatusPending},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidModerationTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type Template struct {
	ID             uuid.UUID       `json:"id"`
	OwnerAddress   string          `json:"owner_address"`
	Name           string          `json:"name"`
	Description    *string         `json:"description,omitempty"`
	JSONSchema     json.RawMessage `json:"json_schema"`
	AIPromptPrefix *string         `json:"ai_prompt_prefix,omitempty"`
	Status         string          `json:"status"`
	ModerationNote *string         `json:"moderation_note,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (t *Template) IsApproved() bool {
	return t.Status == StatusApproved
}

// PromptPrefix returns the system prompt prefix or "" when unset.
func (t *Template) PromptPrefix() string {
	if t.AIPromptPrefix == nil {
		return ""
	}
	return *t.AIPromptPrefix
}

// Moderated entity kinds
const (
	KindTemplate = "template"
	KindApp      = "app"
)
