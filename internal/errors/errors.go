// Package errors defines the coded error types shared by the relay components.
package errors

import (
	"errors"
	"fmt"
)

// Error codes reported by Code.
const (
	CodeUnknown    = "UNKNOWN"
	CodeConfig     = "CONFIG"
	CodeTransport  = "TRANSPORT"
	CodeStore      = "STORE"
	CodeValidation = "VALIDATION"
)

// ApplicationError is implemented by every coded error in this package.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

type baseError struct {
	code    string
	message string
	err     error
}

func (e *baseError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}

	return e.message
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if there is none.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}

	return CodeUnknown
}

// ConfigurationError reports an unrecognized country or missing configuration.
// It is fatal to a single operation, never to the process.
type ConfigurationError struct {
	base baseError
}

func (e *ConfigurationError) Error() string { return e.base.Error() }
func (e *ConfigurationError) Code() string  { return e.base.code }
func (e *ConfigurationError) Unwrap() error { return e.base.err }

// NewConfigurationError wraps cause (which may be nil) as a ConfigurationError.
func NewConfigurationError(message string, cause error) error {
	return &ConfigurationError{base: baseError{code: CodeConfig, message: message, err: cause}}
}

// TransportError reports a failed mail (or chat) transport call.
type TransportError struct {
	base baseError
}

func (e *TransportError) Error() string { return e.base.Error() }
func (e *TransportError) Code() string  { return e.base.code }
func (e *TransportError) Unwrap() error { return e.base.err }

// NewTransportError wraps cause as a TransportError.
func NewTransportError(message string, cause error) error {
	return &TransportError{base: baseError{code: CodeTransport, message: message, err: cause}}
}

// StoreError reports a storage connectivity or write failure.
type StoreError struct {
	base baseError
}

func (e *StoreError) Error() string { return e.base.Error() }
func (e *StoreError) Code() string  { return e.base.code }
func (e *StoreError) Unwrap() error { return e.base.err }

// NewStoreError wraps cause as a StoreError.
func NewStoreError(message string, cause error) error {
	return &StoreError{base: baseError{code: CodeStore, message: message, err: cause}}
}

// ValidationError reports malformed input.
type ValidationError struct {
	base baseError
}

func (e *ValidationError) Error() string { return e.base.Error() }
func (e *ValidationError) Code() string  { return e.base.code }
func (e *ValidationError) Unwrap() error { return e.base.err }

// NewValidationError wraps cause (which may be nil) as a ValidationError.
func NewValidationError(message string, cause error) error {
	return &ValidationError{base: baseError{code: CodeValidation, message: message, err: cause}}
}

// IsConfiguration reports whether err carries a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsTransport reports whether err carries a TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsStore reports whether err carries a StoreError.
func IsStore(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}
