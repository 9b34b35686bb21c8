package handlers

import (
	"context"

	"github.com/appforge/backend/internal/http/dto"
	"github.com/appforge/backend/internal/middleware"
	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type moderationDecider interface {
	Decide(ctx context.Context, kind string, id uuid.UUID, decision string, note *string, by services.Moderator) (*services.ModerationResult, error)
}

type auditReader interface {
	GetByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]models.AuditLog, error)
}

type AdminHandler struct {
	moderation moderationDecider
	settings   *services.SettingsService
	audit      auditReader
	log        *zap.Logger
}

func NewAdminHandler(moderation moderationDecider, settings *services.SettingsService, audit auditReader, log *zap.Logger) *AdminHandler {
	return &AdminHandler{moderation: moderation, settings: settings, audit: audit, log: log}
}

func (h *AdminHandler) Moderate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid id"})
	}

	var req dto.ModerationDecisionRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	res, err := h.moderation.Decide(c.UserContext(), c.Params("kind"), id, req.Decision, req.Note,
		services.Moderator{Address: middleware.GetAddress(c)})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: res})
}

// GetSettings is public so clients can hide submission forms.
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	s, err := h.settings.Get(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: s})
}

func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var req dto.UpdateSettingsRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	s, err := h.settings.Update(c.UserContext(), middleware.GetAddress(c), services.SettingsPatch{
		ModerationEnabled: req.ModerationEnabled,
		SubmissionsOpen:   req.SubmissionsOpen,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: s})
}

func (h *AdminHandler) AuditLog(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	logs, err := h.audit.GetByEntity(c.UserContext(), c.Params("entity"), c.Params("id"), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: logs})
}
