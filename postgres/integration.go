package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lineuphq/lineup/models"
	"github.com/lineuphq/lineup/pkg/encryption"
)

// IntegrationRepository stores per-tenant CRM integrations. Rows written
// before the schema migration to structured token columns keep the whole
// token bundle as one encrypted JSON string in token_cipher; Get decodes
// both forms into models.TokenBundle so callers never see the difference.
type IntegrationRepository struct {
	db    *sql.DB
	codec *encryption.Codec
}

func NewIntegrationRepository(db *sql.DB, codec *encryption.Codec) *IntegrationRepository {
	return &IntegrationRepository{db: db, codec: codec}
}

func (r *IntegrationRepository) Get(ctx context.Context, tenantID, provider string) (*models.Integration, error) {
	const q = `
		SELECT id, tenant_id, provider, access_token, refresh_token, expires_in, token_type, api_domain,
		       token_cipher, status, last_error, last_synced_at, created_at, updated_at
		FROM integrations
		WHERE tenant_id = $1 AND provider = $2
	`

	var (
		i           models.Integration
		tokenCipher string
		lastSynced  sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, q, tenantID, provider).Scan(
		&i.ID,
		&i.TenantID,
		&i.Provider,
		&i.Tokens.AccessToken,
		&i.Tokens.RefreshToken,
		&i.Tokens.ExpiresIn,
		&i.Tokens.TokenType,
		&i.Tokens.APIDomain,
		&tokenCipher,
		&i.Status,
		&i.LastError,
		&lastSynced,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}

		return nil, err
	}

	if lastSynced.Valid {
		t := lastSynced.Time
		i.LastSyncedAt = &t
	}

	if tokenCipher != "" {
		tokens, err := r.decodeLegacyTokens(tokenCipher)
		if err != nil {
			return nil, fmt.Errorf("failed to decode legacy token bundle: %w", err)
		}

		i.Tokens = *tokens
	}

	return &i, nil
}

func (r *IntegrationRepository) Upsert(ctx context.Context, integration *models.Integration) error {
	const q = `
		INSERT INTO integrations
			(id, tenant_id, provider, access_token, refresh_token, expires_in, token_type, api_domain,
			 token_cipher, status, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, '', $9, $10, $11, $11)
		ON CONFLICT (tenant_id, provider) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_in = EXCLUDED.expires_in,
			token_type = EXCLUDED.token_type,
			api_domain = EXCLUDED.api_domain,
			token_cipher = '',
			status = EXCLUDED.status,
			last_error = EXCLUDED.last_error,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	if integration.ID == "" {
		integration.ID = uuid.NewString()
	}

	return r.db.QueryRowContext(ctx, q,
		integration.ID,
		integration.TenantID,
		integration.Provider,
		integration.Tokens.AccessToken,
		integration.Tokens.RefreshToken,
		integration.Tokens.ExpiresIn,
		integration.Tokens.TokenType,
		integration.Tokens.APIDomain,
		integration.Status,
		integration.LastError,
		time.Now().UTC(),
	).Scan(&integration.ID)
}

func (r *IntegrationRepository) UpdateStatus(ctx context.Context, tenantID, provider string, status models.IntegrationStatus, lastError string) error {
	const q = `
		UPDATE integrations
		SET status = $3, last_error = $4, updated_at = $5
		WHERE tenant_id = $1 AND provider = $2
	`

	res, err := r.db.ExecContext(ctx, q, tenantID, provider, status, lastError, time.Now().UTC())
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *IntegrationRepository) TouchLastSynced(ctx context.Context, tenantID, provider string, at time.Time) error {
	const q = `
		UPDATE integrations
		SET last_synced_at = $3, updated_at = $3
		WHERE tenant_id = $1 AND provider = $2
	`

	_, err := r.db.ExecContext(ctx, q, tenantID, provider, at.UTC())

	return err
}

// legacyTokenBundle tolerates both the historical camelCase field names and
// the current snake_case ones inside the encrypted JSON blob.
type legacyTokenBundle struct {
	AccessToken       string `json:"access_token"`
	AccessTokenCamel  string `json:"accessToken"`
	RefreshToken      string `json:"refresh_token"`
	RefreshTokenCamel string `json:"refreshToken"`
	ExpiresIn         int64  `json:"expires_in"`
	TokenType         string `json:"token_type"`
	APIDomain         string `json:"api_domain"`
}

func (r *IntegrationRepository) decodeLegacyTokens(cipherText string) (*models.TokenBundle, error) {
	plain, err := r.codec.Decrypt(cipherText)
	if err != nil {
		return nil, err
	}

	var legacy legacyTokenBundle
	if err := json.Unmarshal([]byte(plain), &legacy); err != nil {
		return nil, err
	}

	tokens := models.TokenBundle{
		AccessToken:  legacy.AccessToken,
		RefreshToken: legacy.RefreshToken,
		ExpiresIn:    legacy.ExpiresIn,
		TokenType:    legacy.TokenType,
		APIDomain:    legacy.APIDomain,
	}
	if tokens.AccessToken == "" {
		tokens.AccessToken = legacy.AccessTokenCamel
	}
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = legacy.RefreshTokenCamel
	}

	return &tokens, nil
}

// FieldMappingRepository stores one row per (tenant, provider, module) so a
// mapping save for one module never rewrites another module's mapping.
type FieldMappingRepository struct {
	db *sql.DB
}

func NewFieldMappingRepository(db *sql.DB) *FieldMappingRepository {
	return &FieldMappingRepository{db: db}
}

func (r *FieldMappingRepository) Get(ctx context.Context, tenantID, provider, module string) (map[string]string, error) {
	const q = `
		SELECT mapping FROM integration_field_mappings
		WHERE tenant_id = $1 AND provider = $2 AND module = $3
	`

	var raw []byte

	err := r.db.QueryRowContext(ctx, q, tenantID, provider, module).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	var mapping map[string]string
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, err
	}

	return mapping, nil
}

func (r *FieldMappingRepository) Save(ctx context.Context, tenantID, provider, module string, mapping map[string]string) error {
	const q = `
		INSERT INTO integration_field_mappings (tenant_id, provider, module, mapping, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tenant_id, provider, module) DO UPDATE SET
			mapping = EXCLUDED.mapping,
			updated_at = EXCLUDED.updated_at
	`

	raw, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, q, tenantID, provider, module, raw, time.Now().UTC())

	return err
}
