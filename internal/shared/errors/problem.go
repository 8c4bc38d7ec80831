// Package errors provides RFC 7807 Problem Details for the bus endpoint.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail represents an RFC 7807 Problem Details response.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Error implements the error interface.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithInstance returns a copy with the given instance URI.
func (p ProblemDetail) WithInstance(instance string) ProblemDetail {
	p.Instance = instance
	return p
}

// WithExtension returns a copy with an additional extension property.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	extensions := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		extensions[k] = v
	}
	extensions[key] = value
	p.Extensions = extensions
	return p
}

// Problem type URI references.
const (
	TypeBadRequest        = "/problems/bad-request"
	TypeInternal          = "/problems/internal-error"
	TypeMalformedEnvelope = "/problems/malformed-envelope"
	TypeUnknownMessage    = "/problems/unknown-message-type"
	TypeUnsupportedKind   = "/problems/unsupported-message-kind"
	TypeNoHandler         = "/problems/no-handler"
	TypeNoResult          = "/problems/no-result"
	TypeUnavailable       = "/problems/unavailable"
	TypeNotFound          = "/problems/not-found"
	TypeConflict          = "/problems/conflict"
	TypeInvalidInput      = "/problems/invalid-input"
)

var (
	// ErrBadRequest indicates the request was malformed.
	ErrBadRequest = ProblemDetail{
		Type:   TypeBadRequest,
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
	}

	// ErrMalformedEnvelope indicates the body is not a decodable envelope.
	ErrMalformedEnvelope = ProblemDetail{
		Type:   TypeMalformedEnvelope,
		Title:  "Malformed Envelope",
		Status: http.StatusBadRequest,
	}

	// ErrUnknownMessage indicates sender and receiver disagree on the message catalog.
	ErrUnknownMessage = ProblemDetail{
		Type:   TypeUnknownMessage,
		Title:  "Unknown Message Type",
		Status: http.StatusUnprocessableEntity,
	}

	// ErrUnsupportedKind indicates the payload is neither a request nor a notification.
	ErrUnsupportedKind = ProblemDetail{
		Type:   TypeUnsupportedKind,
		Title:  "Unsupported Message Kind",
		Status: http.StatusBadRequest,
	}

	// ErrNoHandler indicates the receiving process has no handler for the request.
	ErrNoHandler = ProblemDetail{
		Type:   TypeNoHandler,
		Title:  "No Handler Registered",
		Status: http.StatusNotImplemented,
	}

	// ErrNoResult indicates a handler completed without a result.
	ErrNoResult = ProblemDetail{
		Type:   TypeNoResult,
		Title:  "No Result",
		Status: http.StatusInternalServerError,
	}

	// ErrUnavailable indicates the request was canceled or timed out while dispatching.
	ErrUnavailable = ProblemDetail{
		Type:   TypeUnavailable,
		Title:  "Service Unavailable",
		Status: http.StatusServiceUnavailable,
	}

	// ErrNotFound indicates the addressed resource does not exist.
	ErrNotFound = ProblemDetail{
		Type:   TypeNotFound,
		Title:  "Not Found",
		Status: http.StatusNotFound,
	}

	// ErrConflict indicates the resource was changed concurrently.
	ErrConflict = ProblemDetail{
		Type:   TypeConflict,
		Title:  "Conflict",
		Status: http.StatusConflict,
	}

	// ErrInvalidInput indicates the message was understood but violates a domain rule.
	ErrInvalidInput = ProblemDetail{
		Type:   TypeInvalidInput,
		Title:  "Invalid Input",
		Status: http.StatusBadRequest,
	}

	// ErrInternal indicates an unexpected server error.
	ErrInternal = ProblemDetail{
		Type:   TypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
	}
)

// NewUnknownMessageProblem names the tag that could not be resolved.
func NewUnknownMessageProblem(typeName string) ProblemDetail {
	return ErrUnknownMessage.
		WithDetail(fmt.Sprintf("message type '%s' is not registered on the receiving side", typeName)).
		WithExtension("typeName", typeName)
}
