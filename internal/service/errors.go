package service

import (
	"errors"
	"fmt"
	"strings"

	"phonecbr/internal/model"
)

var (
	// ErrConfiguration marks invalid weights or evaluation settings.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a reference to an unknown record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPhone marks a phone record that breaks the record invariants.
	ErrInvalidPhone = errors.New("invalid phone")
)

// ConfigurationError reports the precondition that failed.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an unknown record identifier.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// PhoneValidationError wraps the failed record checks.
type PhoneValidationError struct {
	Err error
}

func (e *PhoneValidationError) Error() string {
	return fmt.Sprintf("invalid phone: %v", e.Err)
}

func (e *PhoneValidationError) Unwrap() []error {
	return []error{ErrInvalidPhone, e.Err}
}

func phoneNotFound(id int64) error {
	return &NotFoundError{Kind: "phone", ID: fmt.Sprint(id)}
}

// DegenerateDataWarning lists attributes with zero variance across the
// catalog. Those attributes contribute nothing to any distance.
type DegenerateDataWarning struct {
	Attributes []model.Attribute
}

func (w DegenerateDataWarning) String() string {
	names := make([]string, len(w.Attributes))
	for i, a := range w.Attributes {
		names[i] = a.String()
	}
	return "zero variance across catalog: " + strings.Join(names, ", ")
}

// Warnings renders the warning for API responses.
func (w DegenerateDataWarning) Warnings() []string {
	if len(w.Attributes) == 0 {
		return nil
	}
	return []string{w.String()}
}
