package model

import (
	"errors"
	"fmt"
)

// Sentinels for classifying errors with errors.Is.
var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidComponent     = errors.New("invalid component name")
	ErrPropertyNotSupported = errors.New("property not supported for component")
	ErrInvalidPropertyValue = errors.New("invalid property value")
	ErrPersistence          = errors.New("persistence failure")
	ErrNotify               = errors.New("configuration change notification failed")
)

// PermissionDeniedError is returned when the caller lacks the capability
// required by an operation.
type PermissionDeniedError struct {
	User       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	if e.User == "" {
		return fmt.Sprintf("permission denied: %s required", e.Permission)
	}
	return fmt.Sprintf("permission denied: user %q lacks %s", e.User, e.Permission)
}

func (e *PermissionDeniedError) Is(target error) bool { return target == ErrPermissionDenied }

// InvalidComponentError names a component outside the catalog.
type InvalidComponentError struct {
	Name string
}

func (e *InvalidComponentError) Error() string {
	return fmt.Sprintf("invalid component name: %s", e.Name)
}

func (e *InvalidComponentError) Is(target error) bool { return target == ErrInvalidComponent }

// PropertyNotSupportedError names a property that the component does not
// accept.
type PropertyNotSupportedError struct {
	Component Component
	Property  string
}

func (e *PropertyNotSupportedError) Error() string {
	return fmt.Sprintf("%s does not have a %q property", e.Component, e.Property)
}

func (e *PropertyNotSupportedError) Is(target error) bool { return target == ErrPropertyNotSupported }

// InvalidPropertyValueError reports a value element that cannot be stored
// without corrupting the list on read.
type InvalidPropertyValueError struct {
	Component Component
	Property  string
	Value     string
	Reason    string
}

func (e *InvalidPropertyValueError) Error() string {
	return fmt.Sprintf("%s property %q: value %q %s", e.Component, e.Property, e.Value, e.Reason)
}

func (e *InvalidPropertyValueError) Is(target error) bool { return target == ErrInvalidPropertyValue }

// PersistenceError wraps a storage backend failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// NotifyError wraps a failure of the post-commit change notification. The
// configuration change it refers to has already been committed.
type NotifyError struct {
	Err error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify configuration change: %v", e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

func (e *NotifyError) Is(target error) bool { return target == ErrNotify }

// IsValidationError reports whether err is a client-side validation failure
// (bad component, unsupported property or bad value).
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidComponent) ||
		errors.Is(err, ErrPropertyNotSupported) ||
		errors.Is(err, ErrInvalidPropertyValue)
}
