package assistant

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the user id or message is empty.
var ErrInvalidInput = errors.New("assistant: invalid input")

// ConfigurationError reports a missing setting that makes a turn impossible.
type ConfigurationError struct {
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assistant: configuration: %s: %v", e.Setting, e.Err)
	}
	return fmt.Sprintf("assistant: configuration: %s is not set", e.Setting)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ModelInvocationError wraps a failed language model call.
type ModelInvocationError struct {
	Provider string
	Err      error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("assistant: model %s: %v", e.Provider, e.Err)
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }

// StoreError wraps a failed read or write against a store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("assistant: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
