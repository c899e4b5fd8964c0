// Package errorbank defines the application error type shared by the HTTP and
// gRPC transports.
package errorbank

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind classifies an AppError and selects its transport status.
type Kind string

const (
	KindBadRequest            Kind = "bad_request"
	KindValidation            Kind = "validation"
	KindBusinessRuleViolation Kind = "business_rule_violation"
	KindNotFound              Kind = "not_found"
	KindInternal              Kind = "internal"
)

type statusPair struct {
	http int
	grpc codes.Code
}

// Kinds missing from the table render as internal errors.
var statuses = map[Kind]statusPair{
	KindBadRequest:            {http.StatusBadRequest, codes.InvalidArgument},
	KindValidation:            {http.StatusBadRequest, codes.InvalidArgument},
	KindBusinessRuleViolation: {http.StatusBadRequest, codes.AlreadyExists},
	KindNotFound:              {http.StatusNotFound, codes.NotFound},
	KindInternal:              {http.StatusInternalServerError, codes.Internal},
}

// AppError is an error with a client-facing message and a Kind.
type AppError struct {
	kind    Kind
	message string
	fields  map[string][]string
	cause   error
}

// Option configures an AppError.
type Option func(*AppError)

// WithCause attaches the underlying error. It appears in Error() but never in
// Message().
func WithCause(err error) Option {
	return func(e *AppError) { e.cause = err }
}

// WithFieldErrors attaches per-field messages. An empty map is ignored.
func WithFieldErrors(fields map[string][]string) Option {
	return func(e *AppError) {
		if len(fields) > 0 {
			e.fields = fields
		}
	}
}

// New builds an AppError. An empty message defaults to the kind name.
func New(kind Kind, message string, opts ...Option) *AppError {
	if message == "" {
		message = string(kind)
	}
	e := &AppError{kind: kind, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func BadRequest(message string, opts ...Option) *AppError {
	return New(KindBadRequest, message, opts...)
}

// Validation carries the offending fields alongside a summary message.
func Validation(message string, fields map[string][]string, opts ...Option) *AppError {
	return New(KindValidation, message, append(opts, WithFieldErrors(fields))...)
}

func BusinessRule(message string, opts ...Option) *AppError {
	return New(KindBusinessRuleViolation, message, opts...)
}

func NotFound(message string, opts ...Option) *AppError {
	return New(KindNotFound, message, opts...)
}

func Internal(message string, opts ...Option) *AppError {
	return New(KindInternal, message, opts...)
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.cause != nil:
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	default:
		return e.message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Kind returns the category; a nil error reports KindInternal.
func (e *AppError) Kind() Kind {
	if e == nil {
		return KindInternal
	}
	return e.kind
}

func (e *AppError) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// FieldErrors returns the per-field messages, or nil.
func (e *AppError) FieldErrors() map[string][]string {
	if e == nil {
		return nil
	}
	return e.fields
}

func (e *AppError) status() statusPair {
	if s, ok := statuses[e.Kind()]; ok {
		return s
	}
	return statuses[KindInternal]
}

// StatusCode is the HTTP status for the error's kind.
func (e *AppError) StatusCode() int {
	return e.status().http
}

// GRPCCode is the gRPC status code for the error's kind.
func (e *AppError) GRPCCode() codes.Code {
	return e.status().grpc
}

// From finds the AppError in err's chain, wrapping anything else as internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal error", WithCause(err))
}

// IsKind reports whether err's chain holds an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind() == kind
}
