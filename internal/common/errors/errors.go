// Package errors provides standardized error handling for the event pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Permanent faults: the input itself cannot succeed on retry.
	ErrCodeDecodeFailed         ErrorCode = "DECODE_FAILED"
	ErrCodeSchemaValidation     ErrorCode = "SCHEMA_VALIDATION_FAILED"
	ErrCodeProductNotFound      ErrorCode = "PRODUCT_NOT_FOUND"
	ErrCodeBadRequest           ErrorCode = "BAD_REQUEST"
	ErrCodeForbidden            ErrorCode = "FORBIDDEN"
	ErrCodeUnsupportedEventType ErrorCode = "UNSUPPORTED_EVENT_TYPE"

	// Transient faults: redelivery may succeed.
	ErrCodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeWriteTimeout     ErrorCode = "WRITE_TIMEOUT"
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	ErrCodePersistFailed    ErrorCode = "PERSIST_FAILED"

	// Absorbed faults: never reach the classifier.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeNotifyFailed        ErrorCode = "NOTIFY_FAILED"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewDecodeFailedError creates a non-retryable decode error. The raw bytes
// are kept in metadata for diagnostics; malformed input is never silently
// dropped.
func NewDecodeFailedError(raw []byte, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecodeFailed,
		Message:   "Message bytes did not match any recognized shape",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"raw": string(raw)},
		Timestamp: time.Now().UTC(),
	}
}

// NewSchemaValidationError creates a non-retryable payload validation error.
func NewSchemaValidationError(eventType, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaValidation,
		Message:   "Event payload failed schema validation",
		Details:   fmt.Sprintf("type: %s, %s", eventType, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProductNotFoundError creates a non-retryable not-found error.
func NewProductNotFoundError(productID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProductNotFound,
		Message:   "Product does not exist",
		Details:   fmt.Sprintf("productId: %s", productID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewBadRequestError creates a non-retryable invalid-input error.
func NewBadRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBadRequest,
		Message:   "Request is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError creates a non-retryable authorization error.
func NewForbiddenError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "Operation not permitted",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedEventTypeError creates a non-retryable error for event types
// this worker does not handle. Redelivering them would never help.
func NewUnsupportedEventTypeError(eventType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedEventType,
		Message:   "No handler registered for event type",
		Details:   fmt.Sprintf("type: %s", eventType),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable store connectivity error.
func NewStoreUnavailableError(store string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   fmt.Sprintf("Store '%s' unavailable", store),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWriteTimeoutError creates a retryable write timeout error.
func NewWriteTimeoutError(store string) *StandardError {
	return &StandardError{
		Code:      ErrCodeWriteTimeout,
		Message:   fmt.Sprintf("Write to '%s' timed out", store),
		Details:   "write exceeded deadline",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConnectionFailedError creates a retryable connection error.
func NewConnectionFailedError(target string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConnectionFailed,
		Message:   fmt.Sprintf("Connection to '%s' failed", target),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistFailedError creates a retryable persistence error. The object
// store write precedes the document write, so nothing partial is committed
// when this is raised.
func NewPersistFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistFailed,
		Message:   "Persisting generation result failed",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderUnavailableError creates an error meaning "try the next
// provider". It is absorbed by the generation fallback chain and must never
// propagate to the classifier.
func NewProviderUnavailableError(provider string, err error) *StandardError {
	details := "credential or configuration missing"
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeProviderUnavailable,
		Message:   fmt.Sprintf("Provider '%s' unavailable", provider),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotifyFailedError creates an error for a failed best-effort downstream
// publish. Callers log and swallow it; persistence has already succeeded.
func NewNotifyFailedError(topic string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotifyFailed,
		Message:   "Completion event publish failed",
		Details:   fmt.Sprintf("topic: %s, error: %s", topic, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
