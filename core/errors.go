package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrMissingAccessToken  = errors.New("missing access token")
	ErrRefreshFailed       = errors.New("token refresh failed")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPasswordMismatch    = errors.New("passwords do not match")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token has expired")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrConflict            = errors.New("conflict")
)

// APIError is a non-2xx reply from the backend
type APIError struct {
	StatusCode int
	Status     string
	Detail     string
	Body       []byte
}

// NewAPIError builds an APIError from a status line and a raw body.
// Detail is taken from a DRF style "detail" or "error" field when present.
func NewAPIError(statusCode int, status string, body []byte) *APIError {
	if status == "" {
		status = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}
	e := &APIError{StatusCode: statusCode, Status: status, Body: body}

	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		e.Detail = payload.Detail
		if e.Detail == "" {
			e.Detail = payload.Error
		}
	}
	return e
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %s: %s", e.Status, e.Detail)
	}
	return "api: " + e.Status
}

// Is maps well-known statuses onto the package sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an APIError
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
