package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lineuphq/lineup/models"
)

type StageRepository struct {
	db *sql.DB
}

func NewStageRepository(db *sql.DB) *StageRepository {
	return &StageRepository{db: db}
}

func (r *StageRepository) GetByName(ctx context.Context, tenantID, name string) (*models.HiringStage, error) {
	const q = `
		SELECT id, tenant_id, name, key, position, color, created_at, updated_at
		FROM hiring_stages
		WHERE tenant_id = $1 AND name = $2
	`

	var s models.HiringStage

	err := r.db.QueryRowContext(ctx, q, tenantID, name).Scan(
		&s.ID,
		&s.TenantID,
		&s.Name,
		&s.Key,
		&s.Position,
		&s.Color,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}

		return nil, err
	}

	return &s, nil
}

func (r *StageRepository) Create(ctx context.Context, stage *models.HiringStage) error {
	const q = `
		INSERT INTO hiring_stages (id, tenant_id, name, key, position, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`

	if stage.ID == "" {
		stage.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	stage.CreatedAt = now
	stage.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, q,
		stage.ID,
		stage.TenantID,
		stage.Name,
		stage.Key,
		stage.Position,
		stage.Color,
		now,
	)

	return err
}

func (r *StageRepository) UpdatePosition(ctx context.Context, id string, position int) error {
	const q = `UPDATE hiring_stages SET position = $2, updated_at = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, q, id, position, time.Now().UTC())
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}

	return nil
}
