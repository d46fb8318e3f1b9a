package core

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when a provider answers without any text
var ErrEmptyResponse = errors.New("empty response from text-completion service")

// ServiceError reports a failed call to the text-completion service
type ServiceError struct {
	Provider string
	Err      error
}

// NewServiceError wraps err as a failure of the named provider
func NewServiceError(provider string, err error) *ServiceError {
	return &ServiceError{Provider: provider, Err: err}
}

func (e *ServiceError) Error() string {
	if e.Provider == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
