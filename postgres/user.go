package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/lineuphq/lineup/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, email, name, email_verified, password_hash IS NOT NULL, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`

	var u models.User

	err := r.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.EmailVerified,
		&u.HasPassword,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}

		return nil, err
	}

	return &u, nil
}

// Create inserts a user without a password. Users synced from an external
// CRM arrive unverified and set a password via the invite flow.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (id, email, name, email_verified, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULL, $5, $5)
	`

	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, q, user.ID, user.Email, user.Name, user.EmailVerified, now)

	return err
}

type TenantMemberRepository struct {
	db *sql.DB
}

func NewTenantMemberRepository(db *sql.DB) *TenantMemberRepository {
	return &TenantMemberRepository{db: db}
}

func (r *TenantMemberRepository) Create(ctx context.Context, member *models.TenantMember) error {
	const q = `
		INSERT INTO tenant_members (id, tenant_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, user_id) DO NOTHING
	`

	if member.ID == "" {
		member.ID = uuid.NewString()
	}

	member.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, q, member.ID, member.TenantID, member.UserID, member.Role, member.CreatedAt)

	return err
}
