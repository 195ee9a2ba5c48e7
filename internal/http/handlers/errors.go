// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package). These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, conflict) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., not_linked, delivery_failed) carry the service
//     error kind when status alone is ambiguous.
//
// Example response:
//
//	{
//	  "success": false,
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_linked",
//	  "message": "game account has no linked chat account"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/orion-relay/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeNotLinked        = "not_linked"
	ErrCodeDeliveryFailed   = "delivery_failed"
	ErrCodeUpstreamFailed   = "upstream_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodePayloadTooLarge  = "payload_too_large"
)

// statusFor maps a service error to its HTTP status and stable code.
// Untyped errors are internal.
func statusFor(err error) (int, string) {
	switch k := services.Kind(err); {
	case errors.Is(k, services.ErrValidation):
		return http.StatusBadRequest, ErrCodeBadRequest
	case errors.Is(k, services.ErrConflict):
		return http.StatusConflict, ErrCodeConflict
	case errors.Is(k, services.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(k, services.ErrNotLinked):
		return http.StatusUnprocessableEntity, ErrCodeNotLinked
	case errors.Is(k, services.ErrDelivery):
		return http.StatusBadGateway, ErrCodeDeliveryFailed
	case errors.Is(k, services.ErrUpstream):
		return http.StatusBadGateway, ErrCodeUpstreamFailed
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
