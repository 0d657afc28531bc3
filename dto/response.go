package dto

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the extraction path.
var (
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
	ErrMalformedResponse   = errors.New("malformed upstream response")
	ErrUnknownCategory     = errors.New("unknown document category")
	ErrCategoryMismatch    = errors.New("document does not match requested category")
	ErrInvalidUpload       = errors.New("invalid upload")
)

// ExtractionError is the failure side of an extraction. Callers branch on
// errors.Is(err, Kind) instead of inspecting record keys.
type ExtractionError struct {
	Kind     error
	Category string
	Message  string
	Err      error
}

func (e *ExtractionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewExtractionError builds an ExtractionError of the given kind.
func NewExtractionError(kind error, category, message string, cause error) *ExtractionError {
	return &ExtractionError{
		Kind:     kind,
		Category: category,
		Message:  message,
		Err:      cause,
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ExtractionErrorResponse is the error-only record returned for a failed extraction.
type ExtractionErrorResponse struct {
	Error string `json:"error"`
}
