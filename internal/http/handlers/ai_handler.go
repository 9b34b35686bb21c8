package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/appforge/backend/internal/http/dto"
	"github.com/appforge/backend/internal/middleware"
	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/services"
	"github.com/appforge/backend/internal/wallet"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type aiGate interface {
	GenerateChallenge(ctx context.Context, address string) (*services.ChallengeResult, error)
	VerifyChallenge(ctx context.Context, address, challenge, signature string) (*services.VerifyResult, error)
	GetRemainingRequests(ctx context.Context, address string) (*services.RemainingResult, error)
	RefundUsage(ctx context.Context, address string, resetDate time.Time) error
}

type templateGetter interface {
	Get(ctx context.Context, id uuid.UUID, viewer string) (*models.Template, error)
}

type promptProcessor interface {
	ProcessTemplatePrompt(ctx context.Context, prompt string, jsonSchema json.RawMessage, systemPromptPrefix string) (*services.PromptResult, error)
}

type AIHandler struct {
	gate      aiGate
	templates templateGetter
	content   promptProcessor
	log       *zap.Logger
}

func NewAIHandler(gate aiGate, templates templateGetter, content promptProcessor, log *zap.Logger) *AIHandler {
	return &AIHandler{gate: gate, templates: templates, content: content, log: log}
}

func (h *AIHandler) GetChallenge(c *fiber.Ctx) error {
	res, err := h.gate.GenerateChallenge(c.UserContext(), middleware.GetAddress(c))
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(dto.ChallengeResponse{
		Challenge:         res.Challenge.String(),
		RemainingAttempts: res.RemainingAttempts,
		MaxAttempts:       res.MaxAttempts,
		ResetDate:         res.ResetDate,
	})
}

func (h *AIHandler) VerifyChallenge(c *fiber.Ctx) error {
	var req dto.VerifyChallengeRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	address, err := wallet.NormalizeAddress(req.Address)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	res, err := h.gate.VerifyChallenge(c.UserContext(), address, req.Challenge, req.Signature)
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(dto.VerifyChallengeResponse{
		Success:           res.Success,
		RemainingAttempts: res.RemainingAttempts,
		MaxAttempts:       res.MaxAttempts,
		Reason:            res.Reason,
	})
}

func (h *AIHandler) RemainingRequests(c *fiber.Ctx) error {
	res, err := h.gate.GetRemainingRequests(c.UserContext(), middleware.GetAddress(c))
	if err != nil {
		return writeError(c, h.log, err)
	}

	return c.JSON(dto.RemainingRequestsResponse{
		RemainingAttempts: res.RemainingAttempts,
		MaxAttempts:       res.MaxAttempts,
		ResetDate:         res.ResetDate,
	})
}

// ProcessPrompt runs a prompt through the usage gate and the AI service.
// The template is resolved first so a bad templateId costs no quota; an
// upstream failure refunds the consumed request.
func (h *AIHandler) ProcessPrompt(c *fiber.Ctx) error {
	var req dto.ProcessPromptRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	address := middleware.GetAddress(c)
	ctx := c.UserContext()

	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid templateId"})
	}
	tpl, err := h.templates.Get(ctx, templateID, address)
	if err != nil {
		return writeError(c, h.log, err)
	}

	gate, err := h.gate.VerifyChallenge(ctx, address, req.Challenge, req.Signature)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !gate.Success {
		return c.Status(fiber.StatusForbidden).JSON(dto.PromptRejectedResponse{
			Success:           false,
			RemainingAttempts: gate.RemainingAttempts,
			MaxAttempts:       gate.MaxAttempts,
			Reason:            gate.Reason,
		})
	}

	result, err := h.content.ProcessTemplatePrompt(ctx, req.Prompt, tpl.JSONSchema, tpl.PromptPrefix())
	if err != nil {
		if rerr := h.gate.RefundUsage(context.WithoutCancel(ctx), address, gate.ResetDate); rerr != nil {
			h.log.Error("failed to refund ai usage", zap.String("address", address), zap.Error(rerr))
		}
		if errors.Is(err, services.ErrUpstream) {
			return c.Status(fiber.StatusBadGateway).JSON(dto.PromptFailedResponse{
				Success: false,
				Error:   "ai service unavailable",
			})
		}
		return writeError(c, h.log, err)
	}

	data := &dto.PromptData{
		Result:             result.ParsedData,
		RequiredValidation: !result.IsValid,
		ValidationErrors:   result.ValidationErrors,
	}
	if result.ParsedData == nil {
		data.Result = result.RawResponse
	}

	return c.JSON(dto.ProcessPromptResponse{Success: true, Data: data})
}
