package service

import "fmt"

// ErrNoText is the message returned when a request carries no text.
const ErrNoText = "No text provided"

// ValidationError reports a request rejected before the provider is called.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ProviderError wraps any failure returned by the translation provider.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return "translation failed"
	}
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewValidationError formats a ValidationError.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
