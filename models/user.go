package models

import (
	"context"
	"time"
)

// Tenant membership roles, highest privilege first.
const (
	RoleAdmin         = "admin"
	RoleHiringManager = "hiring_manager"
	RoleRecruiter     = "recruiter"
)

// User is a registered user. Email is the cross-tenant identity key: a user
// synced from a CRM into a second tenant links to the existing row instead
// of creating a duplicate.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	HasPassword   bool      `json:"has_password"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TenantMember links a user to a tenant with a role.
type TenantMember struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserRepository manages user accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
}

// TenantMemberRepository manages tenant memberships.
type TenantMemberRepository interface {
	Create(ctx context.Context, member *TenantMember) error
}
