// Package apierror holds the JSON error envelopes the API returns. Handlers
// never put store or driver errors in Detail.
package apierror

// Machine-readable codes for failures a client of the import API is expected
// to react to. Generic 4xx/5xx responses carry no code.
const (
	CodeValidation        = "validation_failed"
	CodeBatchTooLarge     = "batch_too_large"
	CodeInvalidProvenance = "invalid_provenance"
	CodeEmptyFile         = "empty_file"
	CodeMalformedFile     = "malformed_file"
	CodeBatchInProgress   = "batch_in_progress"
	CodeStoreUnavailable  = "store_unavailable"
	CodeNotFound          = "not_found"
	CodeConflict          = "conflict"
	CodeIntegrity         = "integrity_violation"
)

// APIError is the envelope for every 4xx/5xx response.
type APIError struct {
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// WithCode is New plus a code from the list above.
func WithCode(code, msg string) *APIError {
	return &APIError{Code: code, Detail: msg}
}

// ValidationError lists request fields that failed validation, keyed by the
// JSON or form name of the field.
type ValidationError struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Code: CodeValidation, Detail: "validation failed", Fields: fields}
}
