package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error types for the fuzzy expression builder
type ErrorType string

const (
	// Input errors
	ErrorTypeInvalidField ErrorType = "invalid_field"
	ErrorTypeInvalidValue ErrorType = "invalid_value"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// Sentinel causes. Typed errors below wrap one of these so callers can
// branch with errors.Is without caring about the surrounding context.
var (
	ErrEmptyField       = errors.New("field name is empty")
	ErrUnsafeIdentifier = errors.New("field contains characters unsafe for identifier quoting")
	ErrFieldNotAllowed  = errors.New("field is not in the allowed field list")

	ErrNonStringValue = errors.New("search value must be a string")

	ErrUnknownMatcher   = errors.New("unknown matcher kind")
	ErrDuplicateMatcher = errors.New("matcher kind listed more than once")
	ErrInvalidWeight    = errors.New("matcher weight must be positive")
	ErrWeightOrder      = errors.New("matcher weights must strictly decrease")
	ErrWeightDominance  = errors.New("matcher weight does not dominate the lower tiers")
	ErrUnknownDialect   = errors.New("unknown SQL dialect")
	ErrBadFieldPattern  = errors.New("invalid allowed-field pattern")
)

// InvalidFieldError is returned when a field cannot be turned into a quoted
// column reference.
type InvalidFieldError struct {
	Type       ErrorType
	Field      string
	Reason     string
	Underlying error
	Timestamp  time.Time
}

// NewInvalidFieldError creates a field error wrapping one of the field sentinels
func NewInvalidFieldError(field, reason string, err error) *InvalidFieldError {
	return &InvalidFieldError{
		Type:       ErrorTypeInvalidField,
		Field:      field,
		Reason:     reason,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *InvalidFieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid field %q (%s): %v", e.Field, e.Reason, e.Underlying)
	}
	return fmt.Sprintf("invalid field %q: %v", e.Field, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *InvalidFieldError) Unwrap() error {
	return e.Underlying
}

// InvalidValueError is a precondition violation on the search value.
type InvalidValueError struct {
	Type       ErrorType
	Field      string
	Value      interface{}
	Underlying error
	Timestamp  time.Time
}

// NewInvalidValueError creates a value error
func NewInvalidValueError(field string, value interface{}, err error) *InvalidValueError {
	return &InvalidValueError{
		Type:       ErrorTypeInvalidValue,
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value of type %T for field %q: %v", e.Value, e.Field, e.Underlying)
}

// Unwrap returns the underlying error
func (e *InvalidValueError) Unwrap() error {
	return e.Underlying
}

// ConfigurationError represents a configuration error. Matcher registries
// raise it when they are built, never per query.
type ConfigurationError struct {
	Type       ErrorType
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(field, value string, err error) *ConfigurationError {
	return &ConfigurationError{
		Type:       ErrorTypeConfig,
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("config error for %s: %v", e.Field, e.Underlying)
	}
	return fmt.Sprintf("config error for %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigurationError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrorOrNil returns nil when no errors were collected
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return e
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}
