// Package errors provides the client-side error taxonomy and the classification
// of transport and HTTP failures into it.
//
// Every error that crosses the API gateway boundary is an *APIError with a Kind;
// callers branch on Kind and never re-interpret status codes.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind categorizes an API failure for callers and metrics.
type Kind string

const (
	// KindValidation indicates input rejected locally, before any network call.
	KindValidation Kind = "validation"
	// KindInvalidInput indicates the server rejected the request payload (HTTP 400).
	KindInvalidInput Kind = "invalid_input"
	// KindInvalidCredentials indicates a failed login or registration (HTTP 401 on auth endpoints).
	KindInvalidCredentials Kind = "invalid_credentials"
	// KindDuplicateAccount indicates the account already exists (HTTP 409).
	KindDuplicateAccount Kind = "duplicate_account"
	// KindSessionExpired indicates the server no longer accepts the session token
	// (HTTP 401 outside auth endpoints, or 403 anywhere). Triggers forced logout.
	KindSessionExpired Kind = "session_expired"
	// KindNetworkUnavailable indicates the transport failed before a response arrived.
	KindNetworkUnavailable Kind = "network_unavailable"
	// KindTimeout indicates the request deadline elapsed.
	KindTimeout Kind = "timeout"
	// KindServer indicates a server-side failure (HTTP >= 500).
	KindServer Kind = "server"
	// KindUnknown indicates a status the taxonomy does not map.
	KindUnknown Kind = "unknown"
)

// APIError is the classified form of every failure returned by the API gateway.
type APIError struct {
	Kind    Kind
	Message string
	Status  int // HTTP status code, 0 when no response was received
	Cause   error
}

func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Validation creates a local validation error. It never reaches the server.
func Validation(message string) *APIError {
	return &APIError{Kind: KindValidation, Message: message}
}

// KindOf extracts the Kind from err, or KindUnknown if err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// FromTransport classifies a transport-layer failure (no HTTP response).
// Deadline and net timeouts map to KindTimeout, everything else to
// KindNetworkUnavailable.
func FromTransport(err error) *APIError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Kind: KindTimeout, Message: "request timed out", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTimeout, Message: "request timed out", Cause: err}
	}
	return &APIError{Kind: KindNetworkUnavailable, Message: "could not reach server", Cause: err}
}

// FromStatus classifies a non-2xx HTTP response. authEndpoint distinguishes
// 401 on login/register (bad credentials) from 401 elsewhere (expired session).
// The message is taken from the server's detail/message field when present.
func FromStatus(status int, body []byte, authEndpoint bool) *APIError {
	switch {
	case status == http.StatusBadRequest:
		return &APIError{Kind: KindInvalidInput, Status: status, Message: serverMessage(body, "invalid request")}
	case status == http.StatusUnauthorized && authEndpoint:
		return &APIError{Kind: KindInvalidCredentials, Status: status, Message: serverMessage(body, "invalid email or password")}
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return &APIError{Kind: KindSessionExpired, Status: status, Message: "session expired"}
	case status == http.StatusConflict:
		return &APIError{Kind: KindDuplicateAccount, Status: status, Message: serverMessage(body, "account already exists")}
	case status == http.StatusUnprocessableEntity:
		return &APIError{Kind: KindValidation, Status: status, Message: serverMessage(body, "validation failed")}
	case status >= http.StatusInternalServerError:
		return &APIError{Kind: KindServer, Status: status, Message: serverMessage(body, "server error")}
	default:
		return &APIError{Kind: KindUnknown, Status: status, Message: fmt.Sprintf("unexpected status %d", status)}
	}
}

// serverMessage extracts a human-readable message from an error response body.
// Handles the shapes the backend emits: {"detail": "..."}, {"message": "..."},
// and the structured 422 form {"detail": [{"msg": "..."}]}.
func serverMessage(body []byte, fallback string) string {
	if len(body) == 0 {
		return fallback
	}

	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fallback
	}

	if len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil && s != "" {
			return s
		}
		var structured []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &structured); err == nil && len(structured) > 0 && structured[0].Msg != "" {
			return structured[0].Msg
		}
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return fallback
}
