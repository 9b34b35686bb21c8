package handlers

import (
	"github.com/appforge/backend/internal/http/dto"
	"github.com/appforge/backend/internal/middleware"
	"github.com/appforge/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TemplateHandler struct {
	templateService *services.TemplateService
	log             *zap.Logger
}

func NewTemplateHandler(templateService *services.TemplateService, log *zap.Logger) *TemplateHandler {
	return &TemplateHandler{templateService: templateService, log: log}
}

func templateInput(req dto.TemplateRequest) services.TemplateInput {
	return services.TemplateInput{
		Name:           req.Name,
		Description:    req.Description,
		JSONSchema:     req.JSONSchema,
		AIPromptPrefix: req.AIPromptPrefix,
	}
}

func (h *TemplateHandler) CreateTemplate(c *fiber.Ctx) error {
	var req dto.TemplateRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	t, err := h.templateService.Create(c.UserContext(), middleware.GetAddress(c), templateInput(req))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: t})
}

func (h *TemplateHandler) ListTemplates(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	templates, err := h.templateService.ListApproved(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: templates})
}

func (h *TemplateHandler) MyTemplates(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	templates, err := h.templateService.ListByOwner(c.UserContext(), middleware.GetAddress(c), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: templates})
}

func (h *TemplateHandler) GetTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid template id"})
	}

	t, err := h.templateService.Get(c.UserContext(), id, middleware.GetAddress(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: t})
}

func (h *TemplateHandler) UpdateTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid template id"})
	}

	var req dto.TemplateRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	t, err := h.templateService.Update(c.UserContext(), id, middleware.GetAddress(c), templateInput(req))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: t})
}

func (h *TemplateHandler) DeleteTemplate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid template id"})
	}

	if err := h.templateService.Delete(c.UserContext(), id, middleware.GetAddress(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
