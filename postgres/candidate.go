package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lineuphq/lineup/models"
)

const candidateColumns = `id, tenant_id, name, email, phone, role_title, stage, source,
	external_id, external_source, raw_payload, tags, created_at, updated_at`

type CandidateRepository struct {
	db *sql.DB
}

func NewCandidateRepository(db *sql.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

func (r *CandidateRepository) GetByExternalID(ctx context.Context, tenantID, externalID, externalSource string) (*models.Candidate, error) {
	const q = `
		SELECT ` + candidateColumns + `
		FROM candidates
		WHERE tenant_id = $1 AND external_id = $2 AND external_source = $3
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, externalID, externalSource))
}

func (r *CandidateRepository) GetByEmail(ctx context.Context, tenantID, email string) (*models.Candidate, error) {
	const q = `
		SELECT ` + candidateColumns + `
		FROM candidates
		WHERE tenant_id = $1 AND lower(email) = lower($2)
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, q, tenantID, email))
}

func (r *CandidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	const q = `
		INSERT INTO candidates
			(id, tenant_id, name, email, phone, role_title, stage, source,
			 external_id, external_source, raw_payload, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`

	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}

	tags, err := json.Marshal(candidate.Tags)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	candidate.CreatedAt = now
	candidate.UpdatedAt = now

	_, err = r.db.ExecContext(ctx, q,
		candidate.ID,
		candidate.TenantID,
		candidate.Name,
		candidate.Email,
		candidate.Phone,
		candidate.RoleTitle,
		candidate.Stage,
		candidate.Source,
		candidate.ExternalID,
		candidate.ExternalSource,
		nullableJSON(candidate.RawPayload),
		tags,
		now,
	)

	return err
}

func (r *CandidateRepository) Update(ctx context.Context, candidate *models.Candidate) error {
	const q = `
		UPDATE candidates
		SET name = $2, email = $3, phone = $4, role_title = $5, stage = $6, source = $7,
		    external_id = $8, external_source = $9, raw_payload = $10, tags = $11, updated_at = $12
		WHERE id = $1
	`

	tags, err := json.Marshal(candidate.Tags)
	if err != nil {
		return err
	}

	candidate.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, q,
		candidate.ID,
		candidate.Name,
		candidate.Email,
		candidate.Phone,
		candidate.RoleTitle,
		candidate.Stage,
		candidate.Source,
		candidate.ExternalID,
		candidate.ExternalSource,
		nullableJSON(candidate.RawPayload),
		tags,
		candidate.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *CandidateRepository) scanOne(row *sql.Row) (*models.Candidate, error) {
	var (
		c       models.Candidate
		payload []byte
		tags    []byte
	)

	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.RoleTitle,
		&c.Stage,
		&c.Source,
		&c.ExternalID,
		&c.ExternalSource,
		&payload,
		&tags,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}

		return nil, err
	}

	c.RawPayload = payload

	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &c.Tags); err != nil {
			return nil, err
		}
	}

	return &c, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}

	return []byte(raw)
}
