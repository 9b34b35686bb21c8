package dto

import "time"

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type ErrorResponse struct {
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type NonceResponse struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

type RegistrationMessageResponse struct {
	Message string `json:"message"`
}

type ChallengeResponse struct {
	Challenge         string    `json:"challenge"`
	RemainingAttempts int       `json:"remaining_attempts"`
	MaxAttempts       int       `json:"max_attempts"`
	ResetDate         time.Time `json:"reset_date"`
}

type VerifyChallengeResponse struct {
	Success           bool   `json:"success"`
	RemainingAttempts int    `json:"remaining_attempts"`
	MaxAttempts       int    `json:"max_attempts"`
	Reason            string `json:"reason,omitempty"`
}

type RemainingRequestsResponse struct {
	RemainingAttempts int       `json:"remaining_attempts"`
	MaxAttempts       int       `json:"max_attempts"`
	ResetDate         time.Time `json:"reset_date"`
}

type PromptData struct {
	Result             any      `json:"result"`
	RequiredValidation bool     `json:"requiredValidation"`
	ValidationErrors   []string `json:"validationErrors,omitempty"`
}

type ProcessPromptResponse struct {
	Success bool        `json:"success"`
	Data    *PromptData `json:"data,omitempty"`
}

type PromptRejectedResponse struct {
	Success           bool   `json:"success"`
	RemainingAttempts int    `json:"remaining_attempts"`
	MaxAttempts       int    `json:"max_attempts"`
	Reason            string `json:"reason,omitempty"`
}

type PromptFailedResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type ProfileResponse struct {
	User    any                       `json:"user"`
	IsAdmin bool                      `json:"is_admin"`
	AIUsage RemainingRequestsResponse `json:"ai_usage"`
}
