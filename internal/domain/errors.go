package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindConflict          ErrorKind = "conflict"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindPaymentRejected   ErrorKind = "payment_rejected"
	KindPaymentFailed     ErrorKind = "payment_failed"
	KindForbidden         ErrorKind = "forbidden"
	KindExternalService   ErrorKind = "external_service"
	KindInternal          ErrorKind = "internal"
)

// ErrGatewayUnavailable marks transport level failures of an outbound
// provider call (timeouts, connection errors, 5xx responses).
var ErrGatewayUnavailable = errors.New("gateway unavailable")

// Error is the caller-facing error value. Message is safe to return to
// clients, Err keeps the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
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

func newError(kind ErrorKind, err error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, nil, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return newError(KindNotFound, nil, format, args...)
}

func Conflict(format string, args ...interface{}) error {
	return newError(KindConflict, nil, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return newError(KindForbidden, nil, format, args...)
}

// PaymentRejected carries the gateway's own message verbatim.
func PaymentRejected(message string) error {
	return &Error{Kind: KindPaymentRejected, Message: message}
}

func PaymentFailed(format string, args ...interface{}) error {
	return newError(KindPaymentFailed, nil, format, args...)
}

func ExternalService(err error, format string, args ...interface{}) error {
	return newError(KindExternalService, err, format, args...)
}

func Internal(err error, format string, args ...interface{}) error {
	return newError(KindInternal, err, format, args...)
}

type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)", e.ProductID, e.Requested, e.Available)
}

// KindOf resolves the kind of any error returned by a repository or use case.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return KindInsufficientStock
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// MessageOf returns the part of err that may be shown to a caller.
func MessageOf(err error) string {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr.Error()
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Kind != KindInternal {
		return domainErr.Message
	}
	return "internal server error"
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
