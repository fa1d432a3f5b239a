package services

import "errors"

// ErrorKind classifies service failures so controllers can map them to HTTP
// status codes in one place.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindValidation
)

// ServiceError carries a user-facing reason alongside its kind. The Message
// is surfaced to the end user verbatim, so it must be specific ("Assignment
// has expired"), never a generic failure.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.cause
}

func notFound(message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: message}
}

func forbidden(message string) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Message: message}
}

func conflict(message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Message: message}
}

func invalid(message string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: message}
}

func internal(message string, cause error) *ServiceError {
	return &ServiceError{Kind: KindInternal, Message: message, cause: cause}
}

// KindOf extracts the error kind, defaulting to KindInternal for plain errors.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
