package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContractError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ContractError
		expected string
	}{
		{
			name: "error with subject",
			err: &ContractError{
				Type:    ErrorTypeFixtureNotFound,
				Message: "cannot load fixture a.json",
				Subject: "a.json",
			},
			expected: "[a.json] fixture_not_found: cannot load fixture a.json",
		},
		{
			name: "error without subject",
			err: &ContractError{
				Type:    ErrorTypeUnmatchedRequest,
				Message: "no stub rule matches GET /x",
			},
			expected: "unmatched_request: no stub rule matches GET /x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestContractError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	err := NewConfigurationError("rule-1", "bad pattern", originalErr)

	assert.Same(t, originalErr, err.Unwrap())
	assert.ErrorIs(t, err, originalErr)
}

func TestContractError_HTTPStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      *ContractError
		expected int
	}{
		{
			name:     "explicit status code",
			err:      &ContractError{Type: ErrorTypeConfiguration, StatusCode: http.StatusServiceUnavailable},
			expected: http.StatusServiceUnavailable,
		},
		{
			name:     "unmatched default",
			err:      &ContractError{Type: ErrorTypeUnmatchedRequest},
			expected: http.StatusNotFound,
		},
		{
			name:     "transient default",
			err:      &ContractError{Type: ErrorTypeTransientNetwork},
			expected: http.StatusBadGateway,
		},
		{
			name:     "configuration default",
			err:      &ContractError{Type: ErrorTypeConfiguration},
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.HTTPStatusCode())
		})
	}
}

func TestNewUnmatchedRequestError(t *testing.T) {
	err := NewUnmatchedRequestError(http.MethodGet, "/nowhere")

	assert.Equal(t, http.StatusNotFound, err.HTTPStatusCode())
	body := err.ToJSON()["error"].(map[string]interface{})
	assert.Equal(t, ErrorTypeUnmatchedRequest, body["type"])
	assert.Contains(t, body["message"], "/nowhere")
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("setup: %w", NewFixtureNotFoundError("missing.json", nil))

	assert.True(t, IsType(wrapped, ErrorTypeFixtureNotFound))
	assert.False(t, IsType(wrapped, ErrorTypeConfiguration))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeFixtureNotFound))
}

func TestIsSetupFatal(t *testing.T) {
	assert.True(t, IsSetupFatal(NewConfigurationError("r", "bad", nil)))
	assert.True(t, IsSetupFatal(NewFixtureNotFoundError("f.json", nil)))
	assert.False(t, IsSetupFatal(NewUnmatchedRequestError("GET", "/")))
	assert.False(t, IsSetupFatal(NewAssertionFailure("e", "status 500")))
	assert.False(t, IsSetupFatal(nil))
}

func TestNewTransientNetworkError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewTransientNetworkError("current-conditions", cause)

	assert.Equal(t, ErrorTypeTransientNetwork, err.Type)
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}
