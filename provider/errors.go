// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// APIError represents a non-2xx response from the provider API.
// Callers can use errors.As to extract the structured information:
//
//	var apiErr *provider.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.StatusCode == http.StatusPaymentRequired { ... }
//	}
type APIError struct {
	// StatusCode is the HTTP status code of the response.
	StatusCode int
	// Message is the provider's error text, when it sent any.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("provider: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsAPIStatus checks whether err is an *APIError with the given HTTP
// status code.
func IsAPIStatus(err error, statusCode int) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusCode
	}
	return false
}

// newAPIError builds an APIError from an HTTP error response. The
// provider does not document a stable error shape; when the body is
// JSON with an "error" field that is used, otherwise the raw body.
func newAPIError(statusCode int, body []byte) *APIError {
	message := strings.TrimSpace(string(body))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	return &APIError{StatusCode: statusCode, Message: message}
}
