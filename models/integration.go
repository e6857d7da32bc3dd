package models

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// IntegrationStatus is the connection health of a tenant's CRM integration.
type IntegrationStatus string

const (
	IntegrationConnected    IntegrationStatus = "connected"
	IntegrationDisabled     IntegrationStatus = "disabled"
	IntegrationError        IntegrationStatus = "error"
	IntegrationAuthRequired IntegrationStatus = "auth_required"
)

// TokenBundle is the canonical OAuth token set for an integration.
// Legacy rows store an encrypted JSON string instead of structured columns;
// the store decodes both forms into this one type.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	APIDomain    string `json:"api_domain,omitempty"`
}

// Integration represents a tenant's connection to an external CRM provider.
// At most one row exists per (tenant, provider).
type Integration struct {
	ID           string            `json:"id"`
	TenantID     string            `json:"tenant_id"`
	Provider     string            `json:"provider"`
	Tokens       TokenBundle       `json:"-"` // never serialized; legacy rows hold it encrypted in token_cipher
	Status       IntegrationStatus `json:"status"`
	LastError    string            `json:"last_error,omitempty"`
	LastSyncedAt *time.Time        `json:"last_synced_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// IntegrationRepository manages per-tenant CRM integration rows.
type IntegrationRepository interface {
	Get(ctx context.Context, tenantID, provider string) (*Integration, error)
	Upsert(ctx context.Context, integration *Integration) error
	UpdateStatus(ctx context.Context, tenantID, provider string, status IntegrationStatus, lastError string) error
	TouchLastSynced(ctx context.Context, tenantID, provider string, at time.Time) error
}

// FieldMappingRepository manages per-module remote-to-local field mappings.
// Each module's mapping is its own row so concurrent saves to different
// modules cannot lose each other's writes.
type FieldMappingRepository interface {
	Get(ctx context.Context, tenantID, provider, module string) (map[string]string, error)
	Save(ctx context.Context, tenantID, provider, module string, mapping map[string]string) error
}
