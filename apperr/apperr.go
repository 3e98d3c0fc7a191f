// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindAuth              Kind = "auth"
	KindPermission        Kind = "permission"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindSignatureMismatch Kind = "signature_mismatch"
	KindInternal          Kind = "internal"
)

// FieldError points a validation message at one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries a kind, a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newErr(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// New builds an error of any kind with per-field details.
func New(kind Kind, msg string, fields ...FieldError) error {
	return &Error{Kind: kind, Message: msg, Fields: fields}
}

func Validation(msg string) error        { return newErr(KindValidation, msg) }
func Auth(msg string) error              { return newErr(KindAuth, msg) }
func Permission(msg string) error        { return newErr(KindPermission, msg) }
func NotFound(msg string) error          { return newErr(KindNotFound, msg) }
func Conflict(msg string) error          { return newErr(KindConflict, msg) }
func SignatureMismatch(msg string) error { return newErr(KindSignatureMismatch, msg) }

// Wrap marks err as an internal failure with a safe message for clients.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err; unknown errors are internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "Internal server error"
}

// FieldsOf returns the per-field details of err, if any.
func FieldsOf(err error) []FieldError {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

// StatusOf maps err to an HTTP status code.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindSignatureMismatch:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindPermission:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
