package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuthorization
	KindConflict
	KindNotFound
	KindNotReady
	KindDependency
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindAuthorization:
		return "FORBIDDEN"
	case KindConflict:
		return "CONFLICT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindNotReady:
		return "NOT_READY"
	case KindDependency:
		return "DEPENDENCY"
	}
	return "INTERNAL"
}

// HTTPStatus maps a kind to the status the API answers with.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict, KindNotReady:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindDependency:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ValidationError(format string, args ...interface{}) error {
	return newAppError(KindValidation, format, args...)
}

func AuthorizationError(format string, args ...interface{}) error {
	return newAppError(KindAuthorization, format, args...)
}

func ConflictError(format string, args ...interface{}) error {
	return newAppError(KindConflict, format, args...)
}

func NotFoundError(format string, args ...interface{}) error {
	return newAppError(KindNotFound, format, args...)
}

func NotReadyError(format string, args ...interface{}) error {
	return newAppError(KindNotReady, format, args...)
}

// DependencyError wraps a failed call to an external collaborator (object storage).
func DependencyError(err error, format string, args ...interface{}) error {
	e := newAppError(KindDependency, format, args...)
	e.Err = err
	return e
}

// KindOf returns 0 for errors that are not AppErrors.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return 0
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
