package handlers

import (
	"github.com/appforge/backend/internal/http/dto"
	"github.com/appforge/backend/internal/middleware"
	"github.com/appforge/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppHandler struct {
	appService *services.AppService
	log        *zap.Logger
}

func NewAppHandler(appService *services.AppService, log *zap.Logger) *AppHandler {
	return &AppHandler{appService: appService, log: log}
}

func (h *AppHandler) CreateApp(c *fiber.Ctx) error {
	var req dto.CreateAppRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid template_id"})
	}

	a, err := h.appService.Create(c.UserContext(), middleware.GetAddress(c), services.AppInput{
		TemplateID: templateID,
		Name:       req.Name,
		Data:       req.Data,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: a})
}

func (h *AppHandler) MyApps(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	apps, err := h.appService.ListByOwner(c.UserContext(), middleware.GetAddress(c), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: apps})
}

func (h *AppHandler) GetApp(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid app id"})
	}

	a, err := h.appService.Get(c.UserContext(), id, middleware.GetAddress(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: a})
}

func (h *AppHandler) UpdateApp(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid app id"})
	}

	var req dto.UpdateAppRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	a, err := h.appService.Update(c.UserContext(), id, middleware.GetAddress(c), req.Name, req.Data)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: a})
}

func (h *AppHandler) DeleteApp(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid app id"})
	}

	if err := h.appService.Delete(c.UserContext(), id, middleware.GetAddress(c)); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true})
}
