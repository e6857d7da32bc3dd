package zoho

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lineuphq/lineup/models"
)

// OAuth owns the credential lifecycle for a tenant's Zoho integration:
// code exchange, token refresh, and the connection-status transitions that
// go with them. The auth_required status is terminal here; only a fresh
// ExchangeCode leaves it.
type OAuth struct {
	client       *Client
	integrations models.IntegrationRepository
	log          *zap.Logger
}

func NewOAuth(client *Client, integrations models.IntegrationRepository, logger *zap.Logger) *OAuth {
	return &OAuth{
		client:       client,
		integrations: integrations,
		log:          logger.Named("zoho.oauth"),
	}
}

// AuthorizationURL returns the consent URL for a tenant. The tenant id
// rides in the OAuth state parameter. No side effects.
func (o *OAuth) AuthorizationURL(tenantID, redirectURI string) string {
	return o.client.AuthorizationURL(tenantID, redirectURI)
}

// ExchangeResult reports whether the exchange re-established a previously
// connected integration.
type ExchangeResult struct {
	Reconnected bool
}

// ExchangeCode trades an authorization code for tokens and upserts the
// integration row as connected, clearing any prior error. This is the only
// way out of the auth_required state.
func (o *OAuth) ExchangeCode(ctx context.Context, tenantID, code, redirectURI string) (*ExchangeResult, error) {
	tokens, err := o.client.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, fmt.Errorf("zoho rejected the authorization code: %w", err)
	}

	prior, err := o.integrations.Get(ctx, tenantID, Provider)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	integration := &models.Integration{
		TenantID: tenantID,
		Provider: Provider,
		Tokens: models.TokenBundle{
			AccessToken:  tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresIn:    tokens.ExpiresIn,
			TokenType:    tokens.TokenType,
			APIDomain:    tokens.APIDomain,
		},
		Status:    models.IntegrationConnected,
		LastError: "",
	}

	// Some re-consent flows omit the refresh token; keep the one we have.
	if integration.Tokens.RefreshToken == "" && prior != nil {
		integration.Tokens.RefreshToken = prior.Tokens.RefreshToken
	}

	if err := o.integrations.Upsert(ctx, integration); err != nil {
		return nil, err
	}

	o.log.Info("integration connected",
		zap.String("tenant_id", tenantID),
		zap.Bool("reconnected", prior != nil),
	)

	return &ExchangeResult{Reconnected: prior != nil}, nil
}

// AccessToken is the gatekeeper for every sync call. It fails immediately
// when the integration is in auth_required, before any network traffic, so
// a revoked credential is never hammered.
func (o *OAuth) AccessToken(ctx context.Context, tenantID string) (string, error) {
	integration, err := o.integration(ctx, tenantID)
	if err != nil {
		return "", err
	}

	if integration.Tokens.AccessToken == "" {
		return "", fmt.Errorf("no access token stored for tenant %s: %w", tenantID, ErrNotConfigured)
	}

	return integration.Tokens.AccessToken, nil
}

// Refresh exchanges the stored refresh token for a new access token. On a
// classified auth failure it flips the integration to auth_required and
// returns ErrAuthRequired; transient failures propagate untouched.
func (o *OAuth) Refresh(ctx context.Context, tenantID string) (string, error) {
	integration, err := o.integration(ctx, tenantID)
	if err != nil {
		return "", err
	}

	if integration.Tokens.RefreshToken == "" {
		return "", fmt.Errorf("no refresh token stored for tenant %s: %w", tenantID, ErrNotConfigured)
	}

	tokens, err := o.client.RefreshAccessToken(ctx, integration.Tokens.RefreshToken)
	if err != nil {
		if !IsAuthError(err) {
			return "", err
		}

		reason := "token refresh rejected: " + err.Error()

		if uerr := o.integrations.UpdateStatus(ctx, tenantID, Provider, models.IntegrationAuthRequired, reason); uerr != nil {
			o.log.Error("failed to record auth_required status",
				zap.String("tenant_id", tenantID), zap.Error(uerr))
		}

		o.log.Warn("integration requires re-authorization",
			zap.String("tenant_id", tenantID), zap.Error(err))

		return "", fmt.Errorf("%s: %w", reason, ErrAuthRequired)
	}

	integration.Tokens.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		integration.Tokens.RefreshToken = tokens.RefreshToken
	}
	if tokens.ExpiresIn != 0 {
		integration.Tokens.ExpiresIn = tokens.ExpiresIn
	}
	if tokens.APIDomain != "" {
		integration.Tokens.APIDomain = tokens.APIDomain
	}

	integration.Status = models.IntegrationConnected
	integration.LastError = ""

	if err := o.integrations.Upsert(ctx, integration); err != nil {
		return "", err
	}

	return integration.Tokens.AccessToken, nil
}

// integration loads the row and applies the auth_required short-circuit
// shared by AccessToken and Refresh.
func (o *OAuth) integration(ctx context.Context, tenantID string) (*models.Integration, error) {
	integration, err := o.integrations.Get(ctx, tenantID, Provider)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("no zoho integration for tenant %s: %w", tenantID, ErrNotConfigured)
		}

		return nil, err
	}

	if integration.Status == models.IntegrationAuthRequired {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, ErrAuthRequired)
	}

	return integration, nil
}
