package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Address              string     `json:"address"`
	AIUsageCount         int        `json:"ai_usage_count"`
	AIUsageResetDate     *time.Time `json:"ai_usage_reset_date,omitempty"`
	AIChallengeUUID      *uuid.UUID `json:"-"`
	AIChallengeCreatedAt *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	LastActiveAt         time.Time  `json:"last_active_at"`
}

// AIUsage is the per-user usage-gate state: the live challenge plus the
// counter for the current quota window.
type AIUsage struct {
	Address            string
	UsageCount         int
	ResetDate          *time.Time // instant the current window rolls over
	ChallengeUUID      *uuid.UUID
	ChallengeCreatedAt *time.Time
}

// HasChallenge reports whether challenge matches the outstanding one.
func (u *AIUsage) HasChallenge(challenge uuid.UUID) bool {
	return u.ChallengeUUID != nil && *u.ChallengeUUID == challenge
}
