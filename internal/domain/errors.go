package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrJobTerminal    = errors.New("job already terminal")
	ErrNoJobAvailable = errors.New("no job available")
	// ErrDuplicateJob signals that another submission with the same
	// idempotency key won the insert race; callers resolve it by looking
	// the winning job up.
	ErrDuplicateJob = errors.New("duplicate job for idempotency key")
)

// Stable machine-readable codes persisted on failed jobs. API consumers
// branch on these; user-facing messages are a separate localized layer.
const (
	ErrCodeOutlineFailed = "OUTLINE_FAILED"
	ErrCodeContentFailed = "CONTENT_FAILED"
	ErrCodeModelError    = "MODEL_ERROR"
	ErrCodePersistFailed = "PERSIST_FAILED"
	ErrCodeCancelled     = "CANCELLED"
	ErrCodeInternal      = "INTERNAL"
)

// GenerationError is a job-fatal pipeline error carrying a stable code.
type GenerationError struct {
	Code    string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError wraps err with a stable code and a client-safe message.
func NewGenerationError(code, message string, err error) *GenerationError {
	return &GenerationError{Code: code, Message: message, Err: err}
}

// GenerationErrorFrom extracts a GenerationError from err, defaulting to
// INTERNAL when err carries no code.
func GenerationErrorFrom(err error) *GenerationError {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr
	}
	return &GenerationError{Code: ErrCodeInternal, Message: "generation failed", Err: err}
}
