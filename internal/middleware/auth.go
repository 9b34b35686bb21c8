package middleware

import (
	"strings"

	"github.com/appforge/backend/internal/auth"
	"github.com/appforge/backend/internal/config"
	"github.com/appforge/backend/internal/http/dto"
	"github.com/appforge/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	CtxAddress = "address"
	CtxRole    = "role"
)

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid or expired token"})
		}

		c.Locals(CtxAddress, claims.Address)
		c.Locals(CtxRole, claims.Role)

		return c.Next()
	}
}

func GetAddress(c *fiber.Ctx) string {
	addr, _ := c.Locals(CtxAddress).(string)
	return addr
}

func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(CtxRole).(string)
	return role
}

// RequirePermission checks the caller's role against rbac. The role is
// derived from ADMIN_ADDRESSES on every request, not from the token claim,
// so revoking an admin takes effect immediately.
func RequirePermission(cfg *config.Config, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := rbac.RoleFor(cfg.IsAdmin(GetAddress(c)))
		if !rbac.HasPermission(role, permission) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Error: "admin access required"})
		}
		return c.Next()
	}
}

// OptionalAuthMiddleware sets the address when a valid token is present and
// lets anonymous requests through.
func OptionalAuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		if tokenStr == "" {
			return c.Next()
		}
		if claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr); err == nil {
			c.Locals(CtxAddress, claims.Address)
			c.Locals(CtxRole, claims.Role)
		}
		return c.Next()
	}
}
