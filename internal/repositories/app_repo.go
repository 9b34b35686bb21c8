package repositories

import (
	"context"

	"github.com/appforge/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AppRepo struct {
	pool *pgxpool.Pool
}

func NewAppRepo(pool *pgxpool.Pool) *AppRepo {
	return &AppRepo{pool: pool}
}

const appColumns = `id, owner_address, template_id, name, data, status, created_at, updated_at`

func scanApp(row pgx.Row) (*models.App, error) {
	var a models.App
	err := row.Scan(&a.ID, &a.OwnerAddress, &a.TemplateID, &a.Name, &a.Data, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *AppRepo) Create(ctx context.Context, a *models.App) error {
	return mapErr(r.pool.QueryRow(ctx, `
		INSERT INTO apps (owner_address, template_id, name, data, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, a.OwnerAddress, a.TemplateID, a.Name, a.Data, a.Status).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt))
}

func (r *AppRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.App, error) {
	return scanApp(r.pool.QueryRow(ctx, `SELECT `+appColumns+` FROM apps WHERE id = $1`, id))
}

func (r *AppRepo) Update(ctx context.Context, a *models.App) error {
	return mapErr(r.pool.QueryRow(ctx, `
		UPDATE apps SET name = $1, data = $2, status = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, a.Name, a.Data, a.Status, a.ID).Scan(&a.UpdatedAt))
}

func (r *AppRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE apps SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (r *AppRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM apps WHERE id = $1`, id)
	return err
}

func (r *AppRepo) CountByTemplate(ctx context.Context, templateID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM apps WHERE template_id = $1`, templateID).Scan(&n)
	return n, err
}

func (r *AppRepo) List(ctx context.Context, f ListFilter) ([]models.App, error) {
	where, args := f.where()
	page, args := f.page(args)

	rows, err := r.pool.Query(ctx, `SELECT `+appColumns+` FROM apps`+where+page, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := []models.App{}
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}
