package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/appforge/backend/internal/auth"
	"github.com/appforge/backend/internal/config"
	"github.com/appforge/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	adminAddr = "0x1111111111111111111111111111111111111111"
	userAddr  = "0x2222222222222222222222222222222222222222"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "secret", AdminAddresses: []string{adminAddr}}
}

func request(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	app := fiber.New()
	app.Get("/me", AuthMiddleware(cfg, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(GetAddress(c))
	})

	token, err := auth.GenerateJWT(cfg.JWTSecret, userAddr, rbac.RoleUser, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, request(t, app, "/me", token))
	assert.Equal(t, http.StatusUnauthorized, request(t, app, "/me", ""))
	assert.Equal(t, http.StatusUnauthorized, request(t, app, "/me", "garbage"))
}

func TestRequirePermission(t *testing.T) {
	cfg := testConfig()
	app := fiber.New()
	app.Get("/admin", AuthMiddleware(cfg, zap.NewNop()), RequirePermission(cfg, rbac.PermModerate), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	adminToken, _ := auth.GenerateJWT(cfg.JWTSecret, adminAddr, rbac.RoleAdmin, time.Hour)
	// a forged admin role claim is ignored
	userToken, _ := auth.GenerateJWT(cfg.JWTSecret, userAddr, rbac.RoleAdmin, time.Hour)

	assert.Equal(t, http.StatusNoContent, request(t, app, "/admin", adminToken))
	assert.Equal(t, http.StatusForbidden, request(t, app, "/admin", userToken))
}

func TestOptionalAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	app := fiber.New()
	app.Get("/who", OptionalAuthMiddleware(cfg), func(c *fiber.Ctx) error {
		if GetAddress(c) == "" {
			return c.SendStatus(http.StatusNoContent)
		}
		return c.SendStatus(http.StatusOK)
	})

	token, _ := auth.GenerateJWT(cfg.JWTSecret, userAddr, rbac.RoleUser, time.Hour)
	assert.Equal(t, http.StatusOK, request(t, app, "/who", token))
	assert.Equal(t, http.StatusNoContent, request(t, app, "/who", ""))
	assert.Equal(t, http.StatusNoContent, request(t, app, "/who", "garbage"))
}

func TestRateLimitMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	app := fiber.New()
	app.Use(RateLimitMiddleware(rdb, 2, time.Minute, zap.NewNop()))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	assert.Equal(t, http.StatusOK, request(t, app, "/ping", ""))
	assert.Equal(t, http.StatusOK, request(t, app, "/ping", ""))
	assert.Equal(t, http.StatusTooManyRequests, request(t, app, "/ping", ""))

	mr.FastForward(2 * time.Minute)
	assert.Equal(t, http.StatusOK, request(t, app, "/ping", ""))
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	app := fiber.New()
	app.Use(RateLimitMiddleware(rdb, 1, time.Minute, zap.NewNop()))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	assert.Equal(t, http.StatusOK, request(t, app, "/ping", ""))
	assert.Equal(t, http.StatusOK, request(t, app, "/ping", ""))
}

func TestRateLimitMiddleware_KeysByWallet(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := testConfig()
	app := fiber.New()
	app.Use(OptionalAuthMiddleware(cfg))
	app.Use(RateLimitMiddleware(rdb, 1, time.Minute, zap.NewNop()))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	userToken, _ := auth.GenerateJWT(cfg.JWTSecret, userAddr, rbac.RoleUser, time.Hour)
	adminToken, _ := auth.GenerateJWT(cfg.JWTSecret, adminAddr, rbac.RoleAdmin, time.Hour)

	// same IP, separate budgets per wallet
	assert.Equal(t, http.StatusOK, request(t, app, "/ping", userToken))
	assert.Equal(t, http.StatusOK, request(t, app, "/ping", adminToken))
	assert.Equal(t, http.StatusOK, request(t, app, "/ping", ""))
	assert.Equal(t, http.StatusTooManyRequests, request(t, app, "/ping", userToken))

	assert.True(t, mr.Exists("rl:/ping:"+userAddr))
	assert.True(t, mr.Exists("rl:/ping:"+adminAddr))
}

func TestRequestIDMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetRequestID(c)) })

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"missing", "", false},
		{"token", "abc-123_x.y", true},
		{"too long", strings.Repeat("a", 65), false},
		{"unsafe characters", "abc;drop<script>", false},
		{"spaces", "a b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(HeaderRequestID, tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			got := resp.Header.Get(HeaderRequestID)
			if tt.keep {
				assert.Equal(t, tt.header, got)
			} else {
				assert.NotEqual(t, tt.header, got)
				assert.Len(t, got, 36)
			}
		})
	}
}

func TestLoggerMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := testConfig()

	app := fiber.New()
	app.Use(RequestIDMiddleware())
	app.Use(LoggerMiddleware(zap.New(core)))
	app.Get("/templates/:id", OptionalAuthMiddleware(cfg), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusInternalServerError)
	})

	token, _ := auth.GenerateJWT(cfg.JWTSecret, userAddr, rbac.RoleUser, time.Hour)
	assert.Equal(t, http.StatusOK, request(t, app, "/templates/42", token))
	assert.Equal(t, http.StatusInternalServerError, request(t, app, "/boom", ""))

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/templates/:id", first["route"])
	assert.Equal(t, "/templates/42", first["path"])
	assert.Equal(t, userAddr, first["address"])
	assert.NotEmpty(t, first["request_id"])

	second := entries[1].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.NotContains(t, second, "address")
	assert.EqualValues(t, http.StatusInternalServerError, second["status"])
}
