package zoho

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "401 status", err: &APIError{StatusCode: 401, Code: "whatever"}, expected: true},
		{name: "403 status", err: &APIError{StatusCode: 403}, expected: true},
		{name: "invalid token code", err: &APIError{StatusCode: 400, Code: "INVALID_TOKEN"}, expected: true},
		{name: "invalid grant code", err: &APIError{StatusCode: 400, Code: "invalid_grant"}, expected: true},
		{name: "oauth scope mismatch", err: &APIError{StatusCode: 200, Code: "OAUTH_SCOPE_MISMATCH"}, expected: true},
		{name: "wrapped auth required", err: fmt.Errorf("outer: %w", ErrAuthRequired), expected: true},
		{name: "wrapped api error", err: fmt.Errorf("refresh: %w", &APIError{StatusCode: 401}), expected: true},
		{name: "phrase match", err: errors.New("provider said: invalid oauth credentials"), expected: true},
		{name: "rate limited", err: &APIError{StatusCode: 429, Code: "TOO_MANY_REQUESTS", Message: "rate limit"}, expected: false},
		{name: "server error", err: &APIError{StatusCode: 500, Code: "INTERNAL_ERROR", Message: "oops"}, expected: false},
		{name: "plain network error", err: errors.New("dial tcp: connection refused"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsAuthError(tt.err))
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: 400, Code: "INVALID_QUERY", Message: "syntax error near SELECT"}
	assert.Contains(t, err.Error(), "INVALID_QUERY")
	assert.Contains(t, err.Error(), "syntax error")

	bare := &APIError{StatusCode: 401, Code: "invalid_code"}
	assert.Contains(t, bare.Error(), "invalid_code")
}
