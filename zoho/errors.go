package zoho

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Provider is the external-source tag stamped on every record owned by this
// integration.
const Provider = "zoho"

var (
	// ErrAuthRequired means the stored credential was revoked or rejected.
	// It is terminal until an administrator reconnects the integration;
	// callers must not retry against the provider.
	ErrAuthRequired = errors.New("zoho: re-authorization required")

	// ErrNotConfigured means no integration row or no usable token exists
	// for the tenant.
	ErrNotConfigured = errors.New("zoho: integration not configured")

	// ErrSyncInProgress means another worker holds the tenant's sync lock.
	ErrSyncInProgress = errors.New("zoho: a sync is already running for this tenant")
)

// APIError is an error response from the Zoho token endpoint or REST API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" && e.Message != e.Code {
		return fmt.Sprintf("zoho api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}

	return fmt.Sprintf("zoho api error %d: %s", e.StatusCode, e.Code)
}

// authErrorCodes are provider error codes that indicate a dead credential
// rather than a transient failure.
var authErrorCodes = map[string]struct{}{
	"INVALID_TOKEN":          {},
	"INVALID_OAUTH":          {},
	"OAUTH_SCOPE_MISMATCH":   {},
	"AUTHENTICATION_FAILURE": {},
	"invalid_client":         {},
	"invalid_code":           {},
	"invalid_grant":          {},
}

var authErrorPhrases = []string{
	"invalid oauth",
	"invalid token",
	"unauthorized",
	"authentication",
}

// IsAuthError reports whether err indicates an authentication failure that
// requires a human to reconnect. The heuristic is conservative: a false
// negative means one more retry against the provider, a false positive
// locks a tenant out until someone reconnects.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrAuthRequired) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden {
			return true
		}

		if _, ok := authErrorCodes[apiErr.Code]; ok {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, phrase := range authErrorPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}

	return false
}
