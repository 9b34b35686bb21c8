package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/appforge/backend/internal/metrics"
	"github.com/appforge/backend/internal/models"
	"github.com/appforge/backend/internal/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Rejection reasons reported by VerifyChallenge.
const (
	ReasonInvalidChallenge = "invalid_challenge"
	ReasonChallengeExpired = "challenge_expired"
	ReasonQuotaExceeded    = "quota_exceeded"
	ReasonInvalidSignature = "invalid_signature"
)

const DefaultMaxAIRequestsPerDay = 10

// AIUsageStore persists the per-user usage gate state.
type AIUsageStore interface {
	GetAIUsage(ctx context.Context, address string) (*models.AIUsage, error)
	SetChallenge(ctx context.Context, address string, challenge uuid.UUID, issuedAt time.Time) error
	ConsumeChallenge(ctx context.Context, p repositories.ConsumeChallengeParams) (*models.AIUsage, error)
	BurnChallenge(ctx context.Context, address string, challenge uuid.UUID) (bool, error)
	RefundUsage(ctx context.Context, address string, resetDate time.Time) error
}

type SignatureVerifier interface {
	Verify(message, signature, claimedAddress string) bool
}

type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

type ChallengeResult struct {
	Challenge         uuid.UUID
	RemainingAttempts int
	MaxAttempts       int
	ResetDate         time.Time
}

type VerifyResult struct {
	Success           bool
	RemainingAttempts int
	MaxAttempts       int
	Reason            string
	// ResetDate identifies the window the request was counted in. Zero unless Success.
	ResetDate time.Time
}

type RemainingResult struct {
	RemainingAttempts int
	MaxAttempts       int
	ResetDate         time.Time
}

type AIUsageOption func(*AIUsageService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) AIUsageOption {
	return func(s *AIUsageService) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) AIUsageOption {
	return func(s *AIUsageService) { s.metrics = m }
}

func WithAuditLog(a AuditLogger) AIUsageOption {
	return func(s *AIUsageService) { s.audit = a }
}

// AIUsageService gates AI requests behind signed one-time challenges and a
// per-user daily quota. Windows roll over at UTC midnight; the rollover is
// computed on read and only persisted by a successful consumption.
type AIUsageService struct {
	store        AIUsageStore
	verifier     SignatureVerifier
	maxRequests  int
	challengeTTL time.Duration
	now          func() time.Time
	metrics      *metrics.Metrics
	audit        AuditLogger
	log          *zap.Logger
}

// NewAIUsageService creates the gate. challengeTTL <= 0 disables expiry.
func NewAIUsageService(store AIUsageStore, verifier SignatureVerifier, maxRequests int, challengeTTL time.Duration, log *zap.Logger, opts ...AIUsageOption) *AIUsageService {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxAIRequestsPerDay
	}
	s := &AIUsageService{
		store:        store,
		verifier:     verifier,
		maxRequests:  maxRequests,
		challengeTTL: challengeTTL,
		now:          time.Now,
		log:          log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AIUsageService) MaxRequests() int {
	return s.maxRequests
}

// NextWindowReset returns the next UTC midnight strictly after now.
func NextWindowReset(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// EffectiveUsage applies lazy rollover: when the stored window has ended (or
// never started) the count is 0 and the window ends at the next UTC midnight.
func EffectiveUsage(count int, resetDate *time.Time, now time.Time) (int, time.Time) {
	if resetDate == nil || !resetDate.After(now) {
		return 0, NextWindowReset(now)
	}
	return count, *resetDate
}

func (s *AIUsageService) remaining(count int) int {
	if r := s.maxRequests - count; r > 0 {
		return r
	}
	return 0
}

func (s *AIUsageService) load(ctx context.Context, address string) (*models.AIUsage, error) {
	usage, err := s.store.GetAIUsage(ctx, address)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load ai usage: %w", err)
	}
	return usage, nil
}

// GenerateChallenge issues a fresh challenge, replacing any outstanding one.
func (s *AIUsageService) GenerateChallenge(ctx context.Context, address string) (*ChallengeResult, error) {
	usage, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}

	now := s.now()
	challenge := uuid.New()
	if err := s.store.SetChallenge(ctx, address, challenge, now); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("store challenge: %w", err)
	}

	count, resetDate := EffectiveUsage(usage.UsageCount, usage.ResetDate, now)
	s.metrics.GateResult(metrics.GateChallengeIssued, "")

	return &ChallengeResult{
		Challenge:         challenge,
		RemainingAttempts: s.remaining(count),
		MaxAttempts:       s.maxRequests,
		ResetDate:         resetDate,
	}, nil
}

// VerifyChallenge checks the challenge, the quota and the signature, in that
// order, and consumes one request on success. A challenge succeeds at most
// once. Business rejections are reported in the result, never as errors.
func (s *AIUsageService) VerifyChallenge(ctx context.Context, address, challenge, signature string) (*VerifyResult, error) {
	usage, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}

	now := s.now()

	id, err := uuid.Parse(challenge)
	if err != nil || !usage.HasChallenge(id) {
		return s.reject(address, ReasonInvalidChallenge, 0), nil
	}

	if s.challengeTTL > 0 && usage.ChallengeCreatedAt != nil && now.Sub(*usage.ChallengeCreatedAt) > s.challengeTTL {
		return s.reject(address, ReasonChallengeExpired, 0), nil
	}

	count, resetDate := EffectiveUsage(usage.UsageCount, usage.ResetDate, now)
	if count >= s.maxRequests {
		return s.reject(address, ReasonQuotaExceeded, 0), nil
	}

	if !s.verifier.Verify(challenge, signature, address) {
		// burn so one challenge cannot be retried with new signatures
		if _, err := s.store.BurnChallenge(ctx, address, id); err != nil {
			return nil, fmt.Errorf("burn challenge: %w", err)
		}
		return s.reject(address, ReasonInvalidSignature, s.remaining(count)), nil
	}

	updated, err := s.store.ConsumeChallenge(ctx, repositories.ConsumeChallengeParams{
		Address:   address,
		Challenge: id,
		Now:       now,
		NextReset: resetDate,
		Limit:     s.maxRequests,
	})
	if errors.Is(err, repositories.ErrConflict) {
		// lost a race: the challenge was consumed or replaced, or the quota filled up
		return s.reject(address, ReasonInvalidChallenge, 0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume challenge: %w", err)
	}

	s.metrics.GateResult(metrics.GateAccepted, "")
	if s.audit != nil {
		_ = s.audit.Log(ctx, models.AuditLog{
			ActorAddress: &address,
			ActorType:    "user",
			Action:       "ai_request_consumed",
			EntityType:   "user",
			EntityID:     &address,
			Meta:         map[string]any{"usage_count": updated.UsageCount},
		})
	}

	result := &VerifyResult{
		Success:           true,
		RemainingAttempts: s.remaining(updated.UsageCount),
		MaxAttempts:       s.maxRequests,
	}
	if updated.ResetDate != nil {
		result.ResetDate = *updated.ResetDate
	}
	return result, nil
}

func (s *AIUsageService) reject(address, reason string, remaining int) *VerifyResult {
	s.log.Debug("ai challenge rejected", zap.String("address", address), zap.String("reason", reason))
	s.metrics.GateResult(metrics.GateRejected, reason)
	return &VerifyResult{
		RemainingAttempts: remaining,
		MaxAttempts:       s.maxRequests,
		Reason:            reason,
	}
}

// GetRemainingRequests reports the quota without changing any state.
func (s *AIUsageService) GetRemainingRequests(ctx context.Context, address string) (*RemainingResult, error) {
	usage, err := s.load(ctx, address)
	if err != nil {
		return nil, err
	}

	count, resetDate := EffectiveUsage(usage.UsageCount, usage.ResetDate, s.now())
	return &RemainingResult{
		RemainingAttempts: s.remaining(count),
		MaxAttempts:       s.maxRequests,
		ResetDate:         resetDate,
	}, nil
}

// RefundUsage returns the request counted by a successful verification whose
// downstream work failed. Windows that already rolled over are left alone.
func (s *AIUsageService) RefundUsage(ctx context.Context, address string, resetDate time.Time) error {
	if resetDate.IsZero() {
		return nil
	}
	if err := s.store.RefundUsage(ctx, address, resetDate); err != nil {
		return fmt.Errorf("refund ai usage: %w", err)
	}
	s.metrics.GateResult(metrics.GateRefunded, "")
	return nil
}
