package types

// SuccessEnvelope wraps every successful payload, including placement conflicts.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a pkg/errors.Error. Retryable is set when the same request
// may succeed unchanged later, e.g. a database outage or a rate limit window.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ErrorEnvelope echoes the X-Request-Id of the failed call so support can find its logs.
type ErrorEnvelope struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"requestId,omitempty"`
}
