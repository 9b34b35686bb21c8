package handlers

import (
	"context"

	"github.com/appforge/backend/internal/config"
	"github.com/appforge/backend/internal/http/dto"
	"github.com/appforge/backend/internal/middleware"
	"github.com/appforge/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type quotaReporter interface {
	GetRemainingRequests(ctx context.Context, address string) (*services.RemainingResult, error)
}

type UserHandler struct {
	users accountService
	quota quotaReporter
	cfg   *config.Config
	log   *zap.Logger
}

func NewUserHandler(users accountService, quota quotaReporter, cfg *config.Config, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, quota: quota, cfg: cfg, log: log}
}

func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	address := middleware.GetAddress(c)
	user, err := h.users.GetUser(c.UserContext(), address)
	if err != nil {
		return writeError(c, h.log, err)
	}

	usage, err := h.quota.GetRemainingRequests(c.UserContext(), address)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.ProfileResponse{
		User:    user,
		IsAdmin: h.cfg.IsAdmin(address),
		AIUsage: dto.RemainingRequestsResponse{
			RemainingAttempts: usage.RemainingAttempts,
			MaxAttempts:       usage.MaxAttempts,
			ResetDate:         usage.ResetDate,
		},
	}})
}
