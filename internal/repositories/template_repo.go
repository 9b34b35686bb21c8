package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/appforge/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TemplateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

const templateColumns = `id, owner_address, name, description, json_schema, ai_prompt_prefix, status, moderation_note, created_at, updated_at`

func scanTemplate(row pgx.Row) (*models.Template, error) {
	var t models.Template
	err := row.Scan(&t.ID, &t.OwnerAddress, &t.Name, &t.Description, &t.JSONSchema,
		&t.AIPromptPrefix, &t.Status, &t.ModerationNote, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *TemplateRepo) Create(ctx context.Context, t *models.Template) error {
	return mapErr(r.pool.QueryRow(ctx, `
		INSERT INTO templates (owner_address, name, description, json_schema, ai_prompt_prefix, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, t.OwnerAddress, t.Name, t.Description, t.JSONSchema, t.AIPromptPrefix, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt))
}

func (r *TemplateRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	return scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
}

func (r *TemplateRepo) Update(ctx context.Context, t *models.Template) error {
	return mapErr(r.pool.QueryRow(ctx, `
		UPDATE templates SET name = $1, description = $2, json_schema = $3,
		       ai_prompt_prefix = $4, status = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`, t.Name, t.Description, t.JSONSchema, t.AIPromptPrefix, t.Status, t.ID).Scan(&t.UpdatedAt))
}

// UpdateStatus moves a template from one moderation status to another.
// Returns ErrConflict when the stored status is no longer from.
func (r *TemplateRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string, note *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE templates SET status = $3, moderation_note = $4, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, from, to, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *TemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	return err
}

type ListFilter struct {
	OwnerAddress *string
	Status       *string
	Limit        int
	Offset       int
}

// where renders the filter as a WHERE clause plus args, leaving room for
// LIMIT/OFFSET placeholders after them.
func (f ListFilter) where() (string, []any) {
	args := []any{}
	where := []string{}

	if f.OwnerAddress != nil {
		args = append(args, *f.OwnerAddress)
		where = append(where, fmt.Sprintf("owner_address = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(where) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func (f ListFilter) page(args []any) (string, []any) {
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	clause := fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	return clause, append(args, limit, offset)
}

func (r *TemplateRepo) List(ctx context.Context, f ListFilter) ([]models.Template, error) {
	where, args := f.where()
	page, args := f.page(args)

	rows, err := r.pool.Query(ctx, `SELECT `+templateColumns+` FROM templates`+where+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []models.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}
