package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknown is returned when a requested resource does not exist
	ErrUnknown = errors.New("unknown resource")

	// ErrInvalidArgument is returned for malformed or out of range request parameters
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNoRoute is returned when no candidate route could be built at all
	ErrNoRoute = errors.New("no route available")
)

// A ProviderError wraps a failure of an external collaborator (routing,
// elevation, geocoding or map data).
type ProviderError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a ProviderError for the named provider.
func NewProviderError(provider, reason string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Reason: reason, Err: err}
}

// InvalidArgument wraps ErrInvalidArgument with a description of the bad value.
func InvalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// IsProviderError reports whether err is, or wraps, a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// Is is errors.Is, so callers need only this package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
