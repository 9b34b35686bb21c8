package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/appforge/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const userColumns = `address, ai_usage_count, ai_usage_reset_date, ai_challenge_uuid, ai_challenge_created_at, created_at, last_active_at`

func (r *UserRepo) Create(ctx context.Context, address string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (address) VALUES ($1)
		RETURNING `+userColumns,
		address,
	).Scan(&u.Address, &u.AIUsageCount, &u.AIUsageResetDate, &u.AIChallengeUUID, &u.AIChallengeCreatedAt, &u.CreatedAt, &u.LastActiveAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepo) GetByAddress(ctx context.Context, address string) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE address = $1`, address).
		Scan(&u.Address, &u.AIUsageCount, &u.AIUsageResetDate, &u.AIChallengeUUID, &u.AIChallengeCreatedAt, &u.CreatedAt, &u.LastActiveAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepo) UpdateLastActive(ctx context.Context, address string) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_active_at = $1 WHERE address = $2`, time.Now(), address)
	return err
}

// --- AI usage gate ---

func (r *UserRepo) GetAIUsage(ctx context.Context, address string) (*models.AIUsage, error) {
	var u models.AIUsage
	err := r.pool.QueryRow(ctx, `
		SELECT address, ai_usage_count, ai_usage_reset_date, ai_challenge_uuid, ai_challenge_created_at
		FROM users WHERE address = $1
	`, address).Scan(&u.Address, &u.UsageCount, &u.ResetDate, &u.ChallengeUUID, &u.ChallengeCreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// SetChallenge replaces any outstanding challenge.
func (r *UserRepo) SetChallenge(ctx context.Context, address string, challenge uuid.UUID, issuedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET ai_challenge_uuid = $2, ai_challenge_created_at = $3
		WHERE address = $1
	`, address, challenge, issuedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ConsumeChallengeParams struct {
	Address   string
	Challenge uuid.UUID
	Now       time.Time
	NextReset time.Time // applied when the stored window has elapsed
	Limit     int
}

// ConsumeChallenge atomically clears the challenge and counts one request.
// The row only matches while the challenge is still the stored one and the
// window has room, so concurrent callers racing on one challenge get
// ErrConflict.
func (r *UserRepo) ConsumeChallenge(ctx context.Context, p ConsumeChallengeParams) (*models.AIUsage, error) {
	u := models.AIUsage{}
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET
			ai_usage_count = CASE
				WHEN ai_usage_reset_date IS NULL OR ai_usage_reset_date <= $3 THEN 1
				ELSE ai_usage_count + 1
			END,
			ai_usage_reset_date = CASE
				WHEN ai_usage_reset_date IS NULL OR ai_usage_reset_date <= $3 THEN $4
				ELSE ai_usage_reset_date
			END,
			ai_challenge_uuid = NULL,
			ai_challenge_created_at = NULL,
			last_active_at = $3
		WHERE address = $1
		  AND ai_challenge_uuid = $2
		  AND (ai_usage_reset_date IS NULL OR ai_usage_reset_date <= $3 OR ai_usage_count < $5)
		RETURNING address, ai_usage_count, ai_usage_reset_date
	`, p.Address, p.Challenge, p.Now, p.NextReset, p.Limit).Scan(&u.Address, &u.UsageCount, &u.ResetDate)
	if err != nil {
		err = mapErr(err)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &u, nil
}

// BurnChallenge clears the challenge if it is still the outstanding one.
func (r *UserRepo) BurnChallenge(ctx context.Context, address string, challenge uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET ai_challenge_uuid = NULL, ai_challenge_created_at = NULL
		WHERE address = $1 AND ai_challenge_uuid = $2
	`, address, challenge)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RefundUsage gives back one request, but only within the window that
// consumed it.
func (r *UserRepo) RefundUsage(ctx context.Context, address string, resetDate time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET ai_usage_count = GREATEST(ai_usage_count - 1, 0)
		WHERE address = $1 AND ai_usage_reset_date = $2
	`, address, resetDate)
	return err
}
