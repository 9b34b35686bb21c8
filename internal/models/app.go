package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type App struct {
	ID           uuid.UUID       `json:"id"`
	OwnerAddress string          `json:"owner_address"`
	TemplateID   uuid.UUID       `json:"template_id"`
	Name         string          `json:"name"`
	Data         json.RawMessage `json:"data"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (a *App) IsApproved() bool {
	return a.Status == StatusApproved
}
