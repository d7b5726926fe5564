// Package apierror holds the error envelopes returned to API clients.
// Handlers never put store or driver errors into these.
package apierror

// APIError is the envelope for every 4xx/5xx response.
type APIError struct {
	Detail string `json:"detail"`
	// Retryable is set on 503s caused by the backing store.
	Retryable bool `json:"retryable,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func Retryable(msg string) *APIError {
	return &APIError{Detail: msg, Retryable: true}
}

// ValidationError carries the failed tag per request field.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}
