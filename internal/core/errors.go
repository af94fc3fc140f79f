// Package core provides the error taxonomy shared by the stub server, the
// fixture loader, the live weather client and the contract checker.
package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeConfiguration indicates a malformed stub rule or setting (setup fatal)
	ErrorTypeConfiguration ErrorType = "configuration_error"
	// ErrorTypeFixtureNotFound indicates a fixture file is missing (setup fatal)
	ErrorTypeFixtureNotFound ErrorType = "fixture_not_found"
	// ErrorTypeUnmatchedRequest indicates no stub rule matched a request (404)
	ErrorTypeUnmatchedRequest ErrorType = "unmatched_request"
	// ErrorTypeAssertion indicates a response did not meet its contract
	ErrorTypeAssertion ErrorType = "assertion_failure"
	// ErrorTypeTransientNetwork indicates the provider could not be reached
	ErrorTypeTransientNetwork ErrorType = "transient_network_error"
)

// ContractError is the base error type for all errors raised by this module.
type ContractError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
	// Subject names what the error is about: a rule, a fixture or an endpoint.
	Subject string `json:"subject,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *ContractError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Subject, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *ContractError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the HTTP status code the stub server answers with.
func (e *ContractError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeUnmatchedRequest:
		return http.StatusNotFound
	case ErrorTypeTransientNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *ContractError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewConfigurationError creates an error for a malformed rule, pattern or setting.
func NewConfigurationError(subject, message string, err error) *ContractError {
	return &ContractError{
		Type:    ErrorTypeConfiguration,
		Message: message,
		Subject: subject,
		Err:     err,
	}
}

// NewFixtureNotFoundError creates an error for a fixture that is absent on disk.
func NewFixtureNotFoundError(name string, err error) *ContractError {
	return &ContractError{
		Type:    ErrorTypeFixtureNotFound,
		Message: "cannot load fixture " + name,
		Subject: name,
		Err:     err,
	}
}

// NewUnmatchedRequestError creates the error served when no stub rule matches (404).
func NewUnmatchedRequestError(method, path string) *ContractError {
	return &ContractError{
		Type:       ErrorTypeUnmatchedRequest,
		Message:    "no stub rule matches " + method + " " + path,
		StatusCode: http.StatusNotFound,
	}
}

// NewAssertionFailure creates an error for a response that broke its contract.
func NewAssertionFailure(endpoint, message string) *ContractError {
	return &ContractError{
		Type:    ErrorTypeAssertion,
		Message: message,
		Subject: endpoint,
	}
}

// NewTransientNetworkError creates an error for a failed round trip to the provider.
func NewTransientNetworkError(endpoint string, err error) *ContractError {
	msg := "request failed"
	if err != nil {
		msg = "request failed: " + err.Error()
	}
	return &ContractError{
		Type:       ErrorTypeTransientNetwork,
		Message:    msg,
		StatusCode: http.StatusBadGateway,
		Subject:    endpoint,
		Err:        err,
	}
}

// IsType reports whether err is, or wraps, a ContractError of the given type.
func IsType(err error, t ErrorType) bool {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Type == t
	}
	return false
}

// IsSetupFatal reports whether err must abort a suite before any test runs.
func IsSetupFatal(err error) bool {
	return IsType(err, ErrorTypeConfiguration) || IsType(err, ErrorTypeFixtureNotFound)
}
