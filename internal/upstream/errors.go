package upstream

import (
	"fmt"
	"strings"
)

// ErrorKind classifies platform API failures
type ErrorKind string

const (
	// KindMissingTenant: the call was made without a company id; no
	// network I/O was issued
	KindMissingTenant ErrorKind = "missing_tenant"
	// KindNetwork: the request could not be sent or completed
	KindNetwork ErrorKind = "network"
	// KindHTTPStatus: the platform answered with a non-2xx status
	KindHTTPStatus ErrorKind = "http_status"
	// KindInvalidEnvelope: the response body violated the
	// {success,data,error} contract
	KindInvalidEnvelope ErrorKind = "invalid_envelope"
	// KindBusiness: the platform answered success:false with a
	// server-supplied message
	KindBusiness ErrorKind = "business"
)

// APIError is the typed result of a failed platform call. The client
// never recovers errors silently; fallback policy belongs to the
// caller.
type APIError struct {
	Kind    ErrorKind
	Status  int // set for KindHTTPStatus
	Message string
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("platform returned status %d: %s", e.Status, e.Message)
	case KindMissingTenant:
		return "company id is required"
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// CompanyNotFound reports whether the platform rejected the company id
// itself. A stale or forged persisted company is fatal for the session,
// not retryable.
func (e *APIError) CompanyNotFound() bool {
	if e.Kind != KindBusiness && !(e.Kind == KindHTTPStatus && e.Status == 404) {
		return false
	}
	return strings.Contains(strings.ToLower(e.Message), "company not found")
}

func missingTenant() *APIError {
	return &APIError{Kind: KindMissingTenant, Message: "company id is required"}
}

func networkErr(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: err.Error()}
}

func invalidEnvelope(detail string) *APIError {
	return &APIError{Kind: KindInvalidEnvelope, Message: detail}
}

func businessErr(message string) *APIError {
	return &APIError{Kind: KindBusiness, Message: message}
}
