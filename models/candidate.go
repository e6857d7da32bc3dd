package models

import (
	"context"
	"encoding/json"
	"time"
)

// Stage keys every tenant starts with. Candidates arriving from an external
// CRM land in one of these until a recruiter moves them.
const (
	StageApplied  = "APPLIED"
	StageImported = "IMPORTED"
)

// Candidate is a person in a tenant's hiring pipeline. ExternalID together
// with ExternalSource is the foreign-system key; RawPayload keeps the full
// remote record verbatim for audit and debugging.
type Candidate struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	Name           string          `json:"name"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	RoleTitle      string          `json:"role_title,omitempty"`
	Stage          string          `json:"stage"`
	Source         string          `json:"source,omitempty"`
	ExternalID     string          `json:"external_id,omitempty"`
	ExternalSource string          `json:"external_source,omitempty"`
	RawPayload     json.RawMessage `json:"-"`
	Tags           []string        `json:"tags,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CandidateRepository manages candidate records for reconciliation.
type CandidateRepository interface {
	GetByExternalID(ctx context.Context, tenantID, externalID, externalSource string) (*Candidate, error)
	GetByEmail(ctx context.Context, tenantID, email string) (*Candidate, error)
	Create(ctx context.Context, candidate *Candidate) error
	Update(ctx context.Context, candidate *Candidate) error
}
