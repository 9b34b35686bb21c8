package handlers

import (
	"context"

	"github.com/appforge/backend/internal/auth"
	"github.com/appforge/backend/internal/config"
	"github.com/appforge/backend/internal/http/dto"
	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type accountService interface {
	RegistrationMessage() string
	Register(ctx context.Context, address, signature string) (*models.User, error)
	IssueNonce(ctx context.Context, address string) (string, string, error)
	Login(ctx context.Context, address, nonce, signature string) (*models.User, error)
	GetUser(ctx context.Context, address string) (*models.User, error)
}

type AuthHandler struct {
	users accountService
	cfg   *config.Config
	log   *zap.Logger
}

func NewAuthHandler(users accountService, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, cfg: cfg, log: log}
}

func (h *AuthHandler) issueToken(c *fiber.Ctx, user *models.User, status int) error {
	role := rbac.RoleFor(h.cfg.IsAdmin(user.Address))
	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.Address, role, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	return c.Status(status).JSON(dto.AuthResponse{
		Token: token,
		User:  user,
	})
}

func (h *AuthHandler) RegistrationMessage(c *fiber.Ctx) error {
	return c.JSON(dto.RegistrationMessageResponse{Message: h.users.RegistrationMessage()})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	user, err := h.users.Register(c.UserContext(), req.Address, req.Signature)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.issueToken(c, user, fiber.StatusCreated)
}

func (h *AuthHandler) Nonce(c *fiber.Ctx) error {
	var req dto.NonceRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	nonce, message, err := h.users.IssueNonce(c.UserContext(), req.Address)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.NonceResponse{Nonce: nonce, Message: message})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	user, err := h.users.Login(c.UserContext(), req.Address, req.Nonce, req.Signature)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.issueToken(c, user, fiber.StatusOK)
}
